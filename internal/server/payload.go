package server

import (
	"encoding/json"
	"fmt"
	"time"

	"notibot/internal/request"
)

// notifyPayload is the ingestion envelope. Record's shape depends on Type;
// Message only matters for follow-up chat events.
type notifyPayload struct {
	Type          string          `json:"type" binding:"required"`
	Message       string          `json:"message,omitempty"`
	AttachmentRef string          `json:"attachment_ref,omitempty"`
	Record        json.RawMessage `json:"record" binding:"required"`
}

type userInfoDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

type chatSessionDTO struct {
	SessionID       string      `json:"session_id"`
	LastMessage     string      `json:"last_message"`
	LastMessageTime time.Time   `json:"last_message_time"`
	UserInfo        userInfoDTO `json:"user_info"`
	Priority        string      `json:"priority"`
	Status          string      `json:"status"`
	MessageCount    int         `json:"message_count"`
	Language        string      `json:"language"`
}

func (d chatSessionDTO) toSession() request.ChatSession {
	return request.ChatSession{
		SessionID:       d.SessionID,
		LastMessage:     d.LastMessage,
		LastMessageTime: d.LastMessageTime,
		UserInfo: request.UserInfo{
			Name:    d.UserInfo.Name,
			Email:   d.UserInfo.Email,
			Phone:   d.UserInfo.Phone,
			Country: d.UserInfo.Country,
		},
		Priority:     request.Priority(d.Priority),
		Status:       d.Status,
		MessageCount: d.MessageCount,
		Language:     d.Language,
	}
}

type serviceRecordDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	UserPhone   string    `json:"user_phone"`
	Country     string    `json:"country"`
	ServiceType string    `json:"service_type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Language    string    `json:"language"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
}

func (d serviceRecordDTO) toRecord() request.ServiceRecord {
	return request.ServiceRecord{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		UserName:    d.UserName,
		UserEmail:   d.UserEmail,
		UserPhone:   d.UserPhone,
		Country:     d.Country,
		ServiceType: d.ServiceType,
		Priority:    request.Priority(d.Priority),
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		Language:    d.Language,
		FileURL:     d.FileURL,
		FileName:    d.FileName,
	}
}

type voluntaryReturnDTO struct {
	ID             string    `json:"id"`
	FullNameTR     string    `json:"full_name_tr"`
	GSM            string    `json:"gsm"`
	KimlikNo       string    `json:"kimlik_no"`
	SinirKapisi    string    `json:"sinir_kapisi"`
	RefakatEntries []string  `json:"refakat_entries"`
	CustomDate     string    `json:"custom_date"`
	CreatedAt      time.Time `json:"created_at"`
	Language       string    `json:"language"`
}

type healthActivationDTO struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	KimlikNo  string    `json:"kimlik_no"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	Language  string    `json:"language"`
}

type healthInsuranceDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	UserName         string    `json:"user_name"`
	UserEmail        string    `json:"user_email"`
	UserPhone        string    `json:"user_phone"`
	Priority         string    `json:"priority"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	Language         string    `json:"language"`
	CompanyName      string    `json:"company_name"`
	AgeGroup         string    `json:"age_group"`
	BirthDate        string    `json:"birth_date"`
	CalculatedAge    int       `json:"calculated_age"`
	DurationMonths   int       `json:"duration_months"`
	CalculatedPrice  float64   `json:"calculated_price"`
	PassportImageURL string    `json:"passport_image_url"`
}

// normalize turns the envelope into canonical request data plus the
// attachment reference to resolve (explicit attachment_ref wins over the
// record's file_url).
func normalize(p notifyPayload) (request.Data, string, error) {
	switch p.Type {
	case "support_request", string(request.TypeChatSupport):
		var dto chatSessionDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromSupportRequest(dto.toSession())
		return d, p.AttachmentRef, err

	case "new_message":
		var dto chatSessionDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromNewMessage(dto.toSession(), p.Message)
		return d, p.AttachmentRef, err

	case "urgent_message":
		var dto chatSessionDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromUrgentMessage(dto.toSession(), p.Message)
		return d, p.AttachmentRef, err

	case string(request.TypeVoluntaryReturn):
		var dto voluntaryReturnDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromVoluntaryReturn(request.VoluntaryReturnForm{
			ID:             dto.ID,
			FullNameTR:     dto.FullNameTR,
			GSM:            dto.GSM,
			KimlikNo:       dto.KimlikNo,
			SinirKapisi:    dto.SinirKapisi,
			RefakatEntries: dto.RefakatEntries,
			CustomDate:     dto.CustomDate,
			CreatedAt:      dto.CreatedAt,
			Language:       dto.Language,
		})
		return d, p.AttachmentRef, err

	case string(request.TypeHealthInsuranceActivation):
		var dto healthActivationDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromHealthActivation(request.HealthActivationForm{
			ID:        dto.ID,
			FullName:  dto.FullName,
			Phone:     dto.Phone,
			KimlikNo:  dto.KimlikNo,
			Address:   dto.Address,
			CreatedAt: dto.CreatedAt,
			Language:  dto.Language,
		})
		return d, p.AttachmentRef, err

	case string(request.TypeHealthInsurance):
		var dto healthInsuranceDTO
		if err := json.Unmarshal(p.Record, &dto); err != nil {
			return request.Data{}, "", err
		}
		d, err := request.FromHealthInsurance(request.HealthInsuranceRequest{
			ID:               dto.ID,
			Title:            dto.Title,
			Description:      dto.Description,
			UserName:         dto.UserName,
			UserEmail:        dto.UserEmail,
			UserPhone:        dto.UserPhone,
			Priority:         request.Priority(dto.Priority),
			Status:           dto.Status,
			CreatedAt:        dto.CreatedAt,
			Language:         dto.Language,
			CompanyName:      dto.CompanyName,
			AgeGroup:         dto.AgeGroup,
			BirthDate:        dto.BirthDate,
			CalculatedAge:    dto.CalculatedAge,
			DurationMonths:   dto.DurationMonths,
			CalculatedPrice:  dto.CalculatedPrice,
			PassportImageURL: dto.PassportImageURL,
		})
		return d, p.AttachmentRef, err

	default:
		return normalizeServiceRecord(p)
	}
}

func normalizeServiceRecord(p notifyPayload) (request.Data, string, error) {
	var dto serviceRecordDTO
	if err := json.Unmarshal(p.Record, &dto); err != nil {
		return request.Data{}, "", err
	}
	rec := dto.toRecord()

	ref := p.AttachmentRef
	if ref == "" {
		ref = dto.FileURL
	}

	var (
		d   request.Data
		err error
	)
	switch request.Type(p.Type) {
	case request.TypeTranslation:
		d, err = request.FromTranslationRequest(rec)
	case request.TypeInsurance:
		d, err = request.FromInsuranceRequest(rec)
	case request.TypeConsultation:
		d, err = request.FromConsultationRequest(rec)
	case request.TypeLegal:
		d, err = request.FromLegalRequest(rec)
	case request.TypeServiceRequest:
		d, err = request.FromServiceRequest(rec)
	case request.TypeGeneral, request.TypeGeneralInquiry,
		request.TypeTouristResidenceRenewal, request.TypeFirstTimeTouristResidence:
		d, err = request.FromRecord(rec, request.Type(p.Type))
	default:
		return request.Data{}, "", fmt.Errorf("unknown notification type %q", p.Type)
	}
	return d, ref, err
}
