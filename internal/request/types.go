package request

import (
	"time"
)

// Type is the closed enumeration of business events the dispatch layer
// understands. It drives template selection, reply-markup shape, and
// additional-data rendering. Never extended at runtime.
type Type string

const (
	TypeChatSupport               Type = "chat_support"
	TypeTranslation               Type = "translation"
	TypeInsurance                 Type = "insurance"
	TypeVoluntaryReturn           Type = "voluntary_return"
	TypeHealthInsuranceActivation Type = "health_insurance_activation"
	TypeHealthInsurance           Type = "health_insurance"
	TypeServiceRequest            Type = "service_request"
	TypeConsultation              Type = "consultation"
	TypeLegal                     Type = "legal"
	TypeGeneral                   Type = "general"
	TypeGeneralInquiry            Type = "general_inquiry"
	TypeTouristResidenceRenewal   Type = "tourist_residence_renewal"
	TypeFirstTimeTouristResidence Type = "first_time_tourist_residence"
)

// Types lists every known request type, in a stable order.
func Types() []Type {
	return []Type{
		TypeChatSupport,
		TypeTranslation,
		TypeInsurance,
		TypeVoluntaryReturn,
		TypeHealthInsuranceActivation,
		TypeHealthInsurance,
		TypeServiceRequest,
		TypeConsultation,
		TypeLegal,
		TypeGeneral,
		TypeGeneralInquiry,
		TypeTouristResidenceRenewal,
		TypeFirstTimeTouristResidence,
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type UserInfo struct {
	Name    string
	Email   string
	Phone   string
	Country string
}

// Data is the canonical event shape every domain record is normalized to
// before formatting. It is built once per business event and never mutated
// after construction.
//
// Exactly one of SessionID/FormID/RequestID is meaningful per Type:
// chat sessions correlate by SessionID, submitted forms by FormID,
// everything else by RequestID.
type Data struct {
	Type        Type
	Title       string
	Description string
	UserInfo    UserInfo

	SessionID string
	FormID    string
	RequestID string

	Priority  Priority
	Status    string
	CreatedAt time.Time

	// Language selects the rendered label set: "ar" (default) or "en".
	Language string

	AdditionalData map[string]any
}

// CorrelationID returns whichever correlation key is set.
func (d Data) CorrelationID() string {
	switch {
	case d.SessionID != "":
		return d.SessionID
	case d.FormID != "":
		return d.FormID
	default:
		return d.RequestID
	}
}
