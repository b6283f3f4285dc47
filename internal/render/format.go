// Package render turns canonical request data into Telegram HTML messages.
//
// Format is pure and deterministic: identical input yields byte-identical
// output, and no clock other than Data.CreatedAt is consulted.
package render

import (
	"strings"

	"notibot/internal/request"
	"notibot/pkg/tgui"
)

// Format renders the notification message for a request.
//
// Section order is fixed: header, customer info, description, request info,
// per-type details, correlation ids, timestamp. Unknown types and priorities
// degrade to generic markers; rendering never fails.
func Format(d request.Data) string {
	lang := d.Language
	var b strings.Builder

	// Header.
	b.WriteString(TypeEmoji(d.Type))
	b.WriteString(" ")
	b.WriteString(tgui.B(titleOr(d.Title, TypeLabel(d.Type, lang))).String())
	b.WriteString("\n\n")

	// Customer info.
	b.WriteString("👤 " + tgui.B(pick(lang, "معلومات العميل:", "Client information:")).String() + "\n")
	writeKV(&b, pick(lang, "الاسم", "Name"), valueOr(d.UserInfo.Name, lang))
	writeKV(&b, pick(lang, "البريد الإلكتروني", "Email"), valueOr(d.UserInfo.Email, lang))
	writeKV(&b, pick(lang, "رقم الهاتف", "Phone"), valueOr(d.UserInfo.Phone, lang))
	if d.UserInfo.Country != "" {
		writeKV(&b, pick(lang, "البلد", "Country"), d.UserInfo.Country)
	}
	b.WriteString("\n")

	// Description.
	b.WriteString("📝 " + tgui.B(pick(lang, "تفاصيل الطلب:", "Request details:")).String() + "\n")
	b.WriteString(tgui.Esc(descriptionOr(d.Description, lang)).String())
	b.WriteString("\n\n")

	// Request info.
	b.WriteString("📊 " + tgui.B(pick(lang, "معلومات إضافية:", "Additional info:")).String() + "\n")
	writeKV(&b, pick(lang, "نوع الطلب", "Request type"), TypeLabel(d.Type, lang))
	writeKV(&b, pick(lang, "الأولوية", "Priority"), PriorityEmoji(d.Priority)+" "+PriorityLabel(d.Priority, lang))
	writeKV(&b, pick(lang, "الحالة", "Status"), statusOr(d.Status, lang))

	// Per-type details.
	if fn, ok := detailTable[d.Type]; ok && len(d.AdditionalData) > 0 {
		for _, line := range fn(lang, d.AdditionalData) {
			b.WriteString(line.String())
			b.WriteString("\n")
		}
	}

	// Correlation ids.
	if d.SessionID != "" {
		b.WriteString("💬 " + tgui.B(pick(lang, "معرف الجلسة:", "Session ID:")).String() + " " + tgui.Code(d.SessionID).String() + "\n")
	}
	if d.FormID != "" {
		b.WriteString("📋 " + tgui.B(pick(lang, "معرف النموذج:", "Form ID:")).String() + " " + tgui.Code(d.FormID).String() + "\n")
	}
	if d.RequestID != "" {
		b.WriteString("🆔 " + tgui.B(pick(lang, "معرف الطلب:", "Request ID:")).String() + " " + tgui.Code(d.RequestID).String() + "\n")
	}

	// Timestamp, fixed DD.MM.YYYY.
	b.WriteString("\n⏰ " + tgui.B(pick(lang, "التوقيت:", "Time:")).String() + "\n")
	b.WriteString(d.CreatedAt.Format("02.01.2006"))

	return strings.TrimSpace(b.String())
}

// AttachmentCaption is the fixed caption used for document sends.
func AttachmentCaption(lang string) string {
	return "📎 " + pick(lang, "ملف مرفق مع الطلب", "File attached with request")
}

func writeKV(b *strings.Builder, key, value string) {
	b.WriteString("• " + tgui.B(key).String() + ": " + tgui.Esc(value).String() + "\n")
}

func titleOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func valueOr(s, lang string) string {
	if strings.TrimSpace(s) == "" {
		return pick(lang, request.Unspecified, "Not specified")
	}
	return s
}

func descriptionOr(s, lang string) string {
	if strings.TrimSpace(s) == "" {
		return pick(lang, "لا يوجد وصف", "No description")
	}
	return s
}

func statusOr(s, lang string) string {
	if strings.TrimSpace(s) == "" || s == "pending" {
		return pick(lang, "معلق", "Pending")
	}
	return s
}
