package render

import (
	"strings"
	"testing"
	"time"

	"notibot/internal/request"
)

func sampleData() request.Data {
	return request.Data{
		Type:        request.TypeTranslation,
		Title:       "طلب ترجمة جديد",
		Description: "ترجمة شهادة ميلاد",
		UserInfo: request.UserInfo{
			Name:  "Sara",
			Email: "sara@example.com",
			Phone: "+90 555 000 0000",
		},
		RequestID: "req-42",
		Priority:  request.PriorityHigh,
		Status:    "pending",
		CreatedAt: time.Date(2024, 3, 7, 14, 30, 0, 0, time.UTC),
		Language:  "ar",
	}
}

func TestFormatDeterministic(t *testing.T) {
	d := sampleData()
	a := Format(d)
	b := Format(d)
	if a != b {
		t.Fatalf("same input produced different output:\n%s\n---\n%s", a, b)
	}
}

func TestFormatHeaderAndPriority(t *testing.T) {
	out := Format(sampleData())

	if !strings.HasPrefix(out, "🌐 ") {
		t.Fatalf("missing type emoji header: %q", out[:20])
	}
	if strings.Count(out, "🌐") != 1 {
		t.Fatalf("type emoji should appear exactly once:\n%s", out)
	}
	if !strings.Contains(out, "🔴 عالي") {
		t.Fatalf("priority marker missing:\n%s", out)
	}
	if !strings.Contains(out, "07.03.2024") {
		t.Fatalf("timestamp not DD.MM.YYYY:\n%s", out)
	}
	if !strings.Contains(out, "<code>req-42</code>") {
		t.Fatalf("request id line missing:\n%s", out)
	}
}

func TestFormatDefaultsMissingFields(t *testing.T) {
	d := request.Data{
		Type:      request.TypeTranslation,
		RequestID: "r",
		CreatedAt: time.Now(),
		Language:  "ar",
	}
	out := Format(d)
	if !strings.Contains(out, request.Unspecified) {
		t.Fatalf("missing user fields should render %q:\n%s", request.Unspecified, out)
	}
	if !strings.Contains(out, "لا يوجد وصف") {
		t.Fatalf("empty description should have placeholder:\n%s", out)
	}
}

func TestFormatUnknownTypeDegrades(t *testing.T) {
	d := sampleData()
	d.Type = request.Type("mystery")
	out := Format(d)
	if !strings.HasPrefix(out, defaultTypeEmoji) {
		t.Fatalf("unknown type should use generic emoji:\n%s", out)
	}
	if !strings.Contains(out, "استفسار عام") {
		t.Fatalf("unknown type should fall back to general inquiry label:\n%s", out)
	}
}

func TestFormatUnknownPriorityNeutral(t *testing.T) {
	d := sampleData()
	d.Priority = request.Priority("frantic")
	out := Format(d)
	if !strings.Contains(out, "⚪") {
		t.Fatalf("unknown priority should use neutral marker:\n%s", out)
	}
}

func TestFormatEscapesUserText(t *testing.T) {
	d := sampleData()
	d.Description = "<script>alert(1)</script>"
	out := Format(d)
	if strings.Contains(out, "<script>") {
		t.Fatalf("description not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected escaped description:\n%s", out)
	}
}

func TestFormatEnglishLabels(t *testing.T) {
	d := sampleData()
	d.Language = "en"
	out := Format(d)
	if !strings.Contains(out, "Client information:") {
		t.Fatalf("english labels not used:\n%s", out)
	}
	if !strings.Contains(out, "Translation") {
		t.Fatalf("english type label missing:\n%s", out)
	}
}

func TestAttachmentCaption(t *testing.T) {
	if got := AttachmentCaption("ar"); got != "📎 ملف مرفق مع الطلب" {
		t.Fatalf("ar caption = %q", got)
	}
	if got := AttachmentCaption("en"); got != "📎 File attached with request" {
		t.Fatalf("en caption = %q", got)
	}
}

func TestVoluntaryReturnDetails(t *testing.T) {
	d := request.Data{
		Type:      request.TypeVoluntaryReturn,
		FormID:    "f-1",
		Priority:  request.PriorityHigh,
		CreatedAt: time.Now(),
		Language:  "ar",
		AdditionalData: map[string]any{
			"kimlikNo":     "99900011122",
			"sinirKapisi":  "Öncüpınar",
			"refakatCount": 3,
		},
	}
	out := Format(d)
	if !strings.Contains(out, "99900011122") {
		t.Fatalf("kimlik missing:\n%s", out)
	}
	if !strings.Contains(out, "Öncüpınar") {
		t.Fatalf("border gate missing:\n%s", out)
	}
}
