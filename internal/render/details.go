package render

import (
	"strconv"

	"notibot/internal/request"
	"notibot/pkg/tgui"
)

// detailRenderer renders the per-type bullet lines from additionalData.
// Renderers are pure and total: missing or oddly-typed values are skipped,
// never an error. Each returned line is Telegram-safe HTML.
type detailRenderer func(lang string, add map[string]any) []tgui.H

// detailTable dispatches on request type. Types without an entry render an
// empty detail block.
var detailTable = map[request.Type]detailRenderer{
	request.TypeChatSupport:               chatSupportDetails,
	request.TypeTranslation:               fileServiceDetails,
	request.TypeInsurance:                 fileServiceDetails,
	request.TypeServiceRequest:            fileServiceDetails,
	request.TypeConsultation:              fileServiceDetails,
	request.TypeLegal:                     fileServiceDetails,
	request.TypeGeneral:                   fileServiceDetails,
	request.TypeGeneralInquiry:            fileServiceDetails,
	request.TypeTouristResidenceRenewal:   fileServiceDetails,
	request.TypeFirstTimeTouristResidence: fileServiceDetails,
	request.TypeVoluntaryReturn:           voluntaryReturnDetails,
	request.TypeHealthInsuranceActivation: healthActivationDetails,
	request.TypeHealthInsurance:           healthInsuranceDetails,
}

func chatSupportDetails(lang string, add map[string]any) []tgui.H {
	var lines []tgui.H
	if n, ok := asInt(add["messageCount"]); ok && n > 0 {
		lines = append(lines, bullet(pick(lang, "عدد الرسائل", "Message count"), strconv.Itoa(n)))
	}
	if l, ok := add["language"].(string); ok && l != "" {
		lines = append(lines, bullet(pick(lang, "اللغة", "Language"), pickLang(l)))
	}
	if b, _ := add["isUrgent"].(bool); b {
		warn := pick(lang, "هذه رسالة مستعجلة تتطلب رداً فورياً!", "This is an urgent message requiring immediate response!")
		lines = append(lines, tgui.Raw("• ⚠️ "+tgui.Esc(warn).String()))
	}
	return lines
}

func fileServiceDetails(lang string, add map[string]any) []tgui.H {
	var lines []tgui.H
	if b, _ := add["hasFile"].(bool); b {
		name, _ := add["fileName"].(string)
		if name == "" {
			name = pick(lang, "ملف مرفق", "Attached file")
		}
		lines = append(lines, bullet("📎 "+pick(lang, "مرفق ملف", "File attached"), name))
	}
	if st, ok := add["serviceType"].(string); ok && st != "" {
		lines = append(lines, bullet(pick(lang, "نوع الخدمة", "Service type"), TypeLabel(request.Type(st), lang)))
	}
	return lines
}

func voluntaryReturnDetails(lang string, add map[string]any) []tgui.H {
	var lines []tgui.H
	if s, ok := add["kimlikNo"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "رقم الهوية", "Identity number"), s))
	}
	if s, ok := add["sinirKapisi"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "نقطة الحدود", "Border crossing"), s))
	}
	if n, ok := asInt(add["refakatCount"]); ok && n > 0 {
		lines = append(lines, bullet(pick(lang, "عدد المرافقين", "Companions"), strconv.Itoa(n)))
	}
	if s, ok := add["customDate"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "تاريخ مخصص", "Custom date"), s))
	}
	return lines
}

func healthActivationDetails(lang string, add map[string]any) []tgui.H {
	var lines []tgui.H
	if s, ok := add["kimlikNo"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "رقم الهوية", "Identity number"), s))
	}
	if s, ok := add["address"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "العنوان", "Address"), s))
	}
	return lines
}

func healthInsuranceDetails(lang string, add map[string]any) []tgui.H {
	var lines []tgui.H
	if s, ok := add["companyName"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "شركة التأمين", "Insurance company"), s))
	}
	if s, ok := add["ageGroup"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "الفئة العمرية", "Age group"), s))
	}
	if n, ok := asInt(add["calculatedAge"]); ok && n > 0 {
		lines = append(lines, bullet(pick(lang, "العمر المحسوب", "Calculated age"), strconv.Itoa(n)+" "+pick(lang, "سنة", "years")))
	}
	if s, ok := add["birthDate"].(string); ok && s != "" {
		lines = append(lines, bullet(pick(lang, "تاريخ الميلاد", "Birth date"), s))
	}
	if n, ok := asInt(add["durationMonths"]); ok && n > 0 {
		lines = append(lines, bullet(pick(lang, "مدة التأمين", "Duration"), strconv.Itoa(n)+" "+pick(lang, "شهر", "months")))
	}
	if f, ok := asFloat(add["calculatedPrice"]); ok && f > 0 {
		lines = append(lines, bullet(pick(lang, "السعر المحسوب", "Calculated price"), strconv.FormatFloat(f, 'f', -1, 64)+" "+pick(lang, "ليرة تركية", "TL")))
	}
	if b, _ := add["hasPassportImage"].(bool); b {
		lines = append(lines, tgui.Raw("• 📎 "+tgui.Esc(pick(lang, "مرفق صورة جواز السفر", "Passport image attached")).String()))
	}
	return lines
}

func bullet(key, value string) tgui.H {
	return tgui.Raw("• " + tgui.B(key).String() + ": " + tgui.Esc(value).String())
}

func pick(lang, ar, en string) string {
	if lang == "en" {
		return en
	}
	return ar
}

func pickLang(code string) string {
	if code == "ar" {
		return "العربية"
	}
	return "English"
}

// asInt accepts the numeric shapes that survive a JSON round trip.
func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
