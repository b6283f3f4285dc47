package render

import (
	"notibot/internal/request"
)

// typeInfo carries the fixed per-type presentation attributes.
type typeInfo struct {
	Emoji   string
	LabelAr string
	LabelEn string
}

// Adding a request type means adding one row here, one detail renderer in
// details.go, and one markup row set in internal/markup.
var typeTable = map[request.Type]typeInfo{
	request.TypeChatSupport:               {"💬", "دعم فني / محادثة", "Chat Support"},
	request.TypeTranslation:               {"🌐", "ترجمة", "Translation"},
	request.TypeInsurance:                 {"🛡️", "تأمين", "Insurance"},
	request.TypeVoluntaryReturn:           {"🛂", "عودة طوعية", "Voluntary Return"},
	request.TypeHealthInsuranceActivation: {"🏥", "تفعيل تأمين صحي", "Health Insurance Activation"},
	request.TypeHealthInsurance:           {"🏥", "تأمين صحي للأجانب", "Foreign Health Insurance"},
	request.TypeServiceRequest:            {"📋", "طلب خدمة", "Service Request"},
	request.TypeConsultation:              {"💼", "استشارات", "Consultation"},
	request.TypeLegal:                     {"⚖️", "خدمات قانونية", "Legal Services"},
	request.TypeGeneral:                   {"📌", "طلب عام", "General Request"},
	request.TypeGeneralInquiry:            {"❓", "استفسار عام", "General Inquiry"},
	request.TypeTouristResidenceRenewal:   {"🛃", "تجديد إقامة سياحية", "Tourist Residence Renewal"},
	request.TypeFirstTimeTouristResidence: {"🆕", "إقامة سياحية لأول مرة", "First-Time Tourist Residence"},
}

// Unknown types render with a generic note emoji and fall back to the
// general-inquiry label; formatting never fails on taxonomy gaps.
const defaultTypeEmoji = "📝"

// TypeEmoji returns the header emoji for a request type.
func TypeEmoji(t request.Type) string {
	if info, ok := typeTable[t]; ok {
		return info.Emoji
	}
	return defaultTypeEmoji
}

// TypeLabel returns the localized label for a request type.
func TypeLabel(t request.Type, lang string) string {
	info, ok := typeTable[t]
	if !ok {
		info = typeTable[request.TypeGeneralInquiry]
	}
	if lang == "en" {
		return info.LabelEn
	}
	return info.LabelAr
}

type priorityInfo struct {
	Emoji   string
	LabelAr string
	LabelEn string
}

var priorityTable = map[request.Priority]priorityInfo{
	request.PriorityUrgent: {"🚨", "مستعجل", "Urgent"},
	request.PriorityHigh:   {"🔴", "عالي", "High"},
	request.PriorityMedium: {"🟡", "متوسط", "Medium"},
	request.PriorityLow:    {"🟢", "منخفض", "Low"},
}

// Absent or unrecognized priority maps to a defined neutral marker.
var neutralPriority = priorityInfo{"⚪", "عادي", "Normal"}

// PriorityEmoji returns the marker for a priority, neutral when unknown.
func PriorityEmoji(p request.Priority) string {
	if info, ok := priorityTable[p]; ok {
		return info.Emoji
	}
	return neutralPriority.Emoji
}

// PriorityLabel returns the localized label for a priority.
func PriorityLabel(p request.Priority, lang string) string {
	info, ok := priorityTable[p]
	if !ok {
		info = neutralPriority
	}
	if lang == "en" {
		return info.LabelEn
	}
	return info.LabelAr
}
