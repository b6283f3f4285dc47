package request

import (
	"errors"
	"time"
)

// ErrMissingID is returned when a domain record arrives without its
// correlation id. This is a caller error: records must be persisted
// (and therefore have an id) before notification dispatch.
var ErrMissingID = errors.New("request: missing correlation id")

// Unspecified is the literal substituted for missing optional fields,
// matching the portal's bilingual "not specified" convention.
const Unspecified = "غير محدد"

// ChatSession is the chat-support record shape as the chat flow stores it.
type ChatSession struct {
	SessionID       string
	LastMessage     string
	LastMessageTime time.Time
	UserInfo        UserInfo
	Priority        Priority
	Status          string
	MessageCount    int
	Language        string
}

// FromSupportRequest normalizes a "customer asked for an agent" event.
func FromSupportRequest(s ChatSession) (Data, error) {
	if s.SessionID == "" {
		return Data{}, ErrMissingID
	}
	return Data{
		Type:        TypeChatSupport,
		Title:       "طلب ممثل خدمة عملاء",
		Description: s.LastMessage,
		UserInfo:    s.UserInfo,
		SessionID:   s.SessionID,
		Priority:    priorityOr(s.Priority, PriorityMedium),
		Status:      statusOr(s.Status),
		CreatedAt:   timeOr(s.LastMessageTime),
		Language:    langOr(s.Language),
		AdditionalData: map[string]any{
			"messageCount": s.MessageCount,
			"language":     langOr(s.Language),
		},
	}, nil
}

// FromNewMessage normalizes a follow-up customer message on an open session.
func FromNewMessage(s ChatSession, message string) (Data, error) {
	d, err := FromSupportRequest(s)
	if err != nil {
		return Data{}, err
	}
	d.Title = "رسالة جديدة من العميل"
	d.Description = message
	d.CreatedAt = time.Now()
	return d, nil
}

// FromUrgentMessage normalizes an urgent customer message. Priority is
// forced to urgent and the detail block carries an urgency marker.
func FromUrgentMessage(s ChatSession, message string) (Data, error) {
	d, err := FromNewMessage(s, message)
	if err != nil {
		return Data{}, err
	}
	d.Title = "رسالة مستعجلة!"
	d.Priority = PriorityUrgent
	d.AdditionalData["isUrgent"] = true
	return d, nil
}

// ServiceRecord is the shared shape of translation, insurance, consultation,
// legal and general service-request rows.
type ServiceRecord struct {
	ID          string
	Title       string
	Description string
	UserName    string
	UserEmail   string
	UserPhone   string
	Country     string
	ServiceType string
	Priority    Priority
	Status      string
	CreatedAt   time.Time
	Language    string
	FileURL     string
	FileName    string
}

// FromTranslationRequest normalizes a translation request row.
func FromTranslationRequest(r ServiceRecord) (Data, error) {
	return fromServiceRecord(r, TypeTranslation, "طلب ترجمة جديد")
}

// FromInsuranceRequest normalizes an insurance request row.
func FromInsuranceRequest(r ServiceRecord) (Data, error) {
	return fromServiceRecord(r, TypeInsurance, "طلب تأمين جديد")
}

// FromConsultationRequest normalizes a consultation request row.
func FromConsultationRequest(r ServiceRecord) (Data, error) {
	return fromServiceRecord(r, TypeConsultation, "طلب استشارة جديد")
}

// FromLegalRequest normalizes a legal-services request row.
func FromLegalRequest(r ServiceRecord) (Data, error) {
	return fromServiceRecord(r, TypeLegal, "طلب خدمة قانونية جديد")
}

// FromServiceRequest normalizes a general service request row.
func FromServiceRequest(r ServiceRecord) (Data, error) {
	return fromServiceRecord(r, TypeServiceRequest, "طلب خدمة جديد")
}

// FromRecord normalizes a service record under an explicit type. The
// residual transactional types (general, inquiries, residence permits)
// share the generic row shape and route through here.
func FromRecord(r ServiceRecord, t Type) (Data, error) {
	title := "طلب جديد"
	switch t {
	case TypeGeneralInquiry:
		title = "استفسار عام جديد"
	case TypeTouristResidenceRenewal:
		title = "طلب تجديد إقامة سياحية"
	case TypeFirstTimeTouristResidence:
		title = "طلب إقامة سياحية لأول مرة"
	}
	return fromServiceRecord(r, t, title)
}

func fromServiceRecord(r ServiceRecord, t Type, defaultTitle string) (Data, error) {
	if r.ID == "" {
		return Data{}, ErrMissingID
	}
	add := map[string]any{
		"hasFile": r.FileURL != "",
	}
	if r.FileURL != "" {
		add["fileUrl"] = r.FileURL
		add["fileName"] = r.FileName
	}
	if r.ServiceType != "" {
		add["serviceType"] = r.ServiceType
	}
	return Data{
		Type:        t,
		Title:       titleOr(r.Title, defaultTitle),
		Description: r.Description,
		UserInfo: UserInfo{
			Name:    r.UserName,
			Email:   r.UserEmail,
			Phone:   r.UserPhone,
			Country: r.Country,
		},
		RequestID:      r.ID,
		Priority:       priorityOr(r.Priority, PriorityMedium),
		Status:         statusOr(r.Status),
		CreatedAt:      timeOr(r.CreatedAt),
		Language:       langOr(r.Language),
		AdditionalData: add,
	}, nil
}

// VoluntaryReturnForm is the voluntary-return record shape.
type VoluntaryReturnForm struct {
	ID             string
	FullNameTR     string
	GSM            string
	KimlikNo       string
	SinirKapisi    string
	RefakatEntries []string
	CustomDate     string
	CreatedAt      time.Time
	Language       string
}

// FromVoluntaryReturn normalizes a voluntary-return form. These forms are
// always dispatched at high priority.
func FromVoluntaryReturn(f VoluntaryReturnForm) (Data, error) {
	if f.ID == "" {
		return Data{}, ErrMissingID
	}
	add := map[string]any{
		"kimlikNo":     f.KimlikNo,
		"sinirKapisi":  f.SinirKapisi,
		"refakatCount": len(f.RefakatEntries),
	}
	if f.CustomDate != "" {
		add["customDate"] = f.CustomDate
	}
	return Data{
		Type:        TypeVoluntaryReturn,
		Title:       "طلب عودة طوعية جديد",
		Description: "طلب عودة طوعية من " + nameOr(f.FullNameTR),
		UserInfo: UserInfo{
			Name:  f.FullNameTR,
			Phone: f.GSM,
		},
		FormID:         f.ID,
		Priority:       PriorityHigh,
		Status:         "pending",
		CreatedAt:      timeOr(f.CreatedAt),
		Language:       langOr(f.Language),
		AdditionalData: add,
	}, nil
}

// HealthActivationForm is the health-insurance activation record shape.
type HealthActivationForm struct {
	ID        string
	FullName  string
	Phone     string
	KimlikNo  string
	Address   string
	CreatedAt time.Time
	Language  string
}

// FromHealthActivation normalizes a health-insurance activation form.
func FromHealthActivation(f HealthActivationForm) (Data, error) {
	if f.ID == "" {
		return Data{}, ErrMissingID
	}
	return Data{
		Type:        TypeHealthInsuranceActivation,
		Title:       "طلب تفعيل تأمين صحي جديد",
		Description: "طلب تفعيل تأمين صحي من " + nameOr(f.FullName),
		UserInfo: UserInfo{
			Name:  f.FullName,
			Phone: f.Phone,
		},
		FormID:    f.ID,
		Priority:  PriorityHigh,
		Status:    "pending",
		CreatedAt: timeOr(f.CreatedAt),
		Language:  langOr(f.Language),
		AdditionalData: map[string]any{
			"kimlikNo": f.KimlikNo,
			"address":  f.Address,
		},
	}, nil
}

// HealthInsuranceRequest is the foreigners-health-insurance record shape,
// including the values the quote calculator derived.
type HealthInsuranceRequest struct {
	ID               string
	Title            string
	Description      string
	UserName         string
	UserEmail        string
	UserPhone        string
	Priority         Priority
	Status           string
	CreatedAt        time.Time
	Language         string
	CompanyName      string
	AgeGroup         string
	BirthDate        string
	CalculatedAge    int
	DurationMonths   int
	CalculatedPrice  float64
	PassportImageURL string
}

// FromHealthInsurance normalizes a foreigners-health-insurance request.
func FromHealthInsurance(r HealthInsuranceRequest) (Data, error) {
	if r.ID == "" {
		return Data{}, ErrMissingID
	}
	add := map[string]any{
		"companyName":      r.CompanyName,
		"ageGroup":         r.AgeGroup,
		"birthDate":        r.BirthDate,
		"calculatedAge":    r.CalculatedAge,
		"durationMonths":   r.DurationMonths,
		"calculatedPrice":  r.CalculatedPrice,
		"hasPassportImage": r.PassportImageURL != "",
	}
	if r.PassportImageURL != "" {
		add["passportImageUrl"] = r.PassportImageURL
	}
	return Data{
		Type:        TypeHealthInsurance,
		Title:       titleOr(r.Title, "طلب تأمين صحي للأجانب جديد"),
		Description: titleOr(r.Description, "طلب تأمين صحي للأجانب"),
		UserInfo: UserInfo{
			Name:  r.UserName,
			Email: r.UserEmail,
			Phone: r.UserPhone,
		},
		RequestID:      r.ID,
		Priority:       priorityOr(r.Priority, PriorityMedium),
		Status:         statusOr(r.Status),
		CreatedAt:      timeOr(r.CreatedAt),
		Language:       langOr(r.Language),
		AdditionalData: add,
	}, nil
}

func titleOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nameOr(s string) string {
	if s == "" {
		return Unspecified
	}
	return s
}

func priorityOr(p, def Priority) Priority {
	if p == "" {
		return def
	}
	return p
}

func statusOr(s string) string {
	if s == "" {
		return "pending"
	}
	return s
}

func timeOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func langOr(l string) string {
	if l == "en" {
		return "en"
	}
	return "ar"
}
