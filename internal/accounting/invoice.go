package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notibot/internal/transport"
	logx "notibot/pkg/logx"
	"notibot/pkg/tgui"
)

// Invoice is the data behind one rendered invoice.
type Invoice struct {
	Number       string
	CustomerName string
	Currency     string
	Date         time.Time
	Items        []InvoiceItem
}

type InvoiceItem struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

func (i Invoice) Total() float64 {
	var t float64
	for _, it := range i.Items {
		t += float64(it.Quantity) * it.UnitPrice
	}
	return t
}

// SendInvoice delivers the invoice twice: a text summary, then the rendered
// PDF document. The two steps are independent; a PDF failure does not undo
// the summary and vice versa.
func (s *Service) SendInvoice(ctx context.Context, inv Invoice) (textOK, pdfOK bool) {
	sent, total := s.Broadcast(ctx, invoiceSummary(inv))
	textOK = total > 0 && sent > 0

	// No recipients means no PDF send either; skip the render so a
	// disabled channel never touches the external API.
	ch, rcpts := s.recipients(ctx)
	if len(rcpts) == 0 {
		return textOK, false
	}

	pdf, err := s.renderInvoicePDF(ctx, inv)
	if err != nil {
		s.log.Warn("invoice pdf render failed", logx.String("number", inv.Number), logx.Err(err))
		return textOK, false
	}
	doc := transport.Document{
		Name:    "invoice-" + inv.Number + ".pdf",
		MIME:    "application/pdf",
		Data:    pdf,
		Caption: "🧾 فاتورة رقم " + inv.Number,
	}
	var docSent int
	for _, chatID := range rcpts {
		sctx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := s.client.SendDocument(sctx, transport.Target{Token: ch.BotToken, ChatID: chatID}, doc)
		cancel()
		if err != nil {
			s.log.Warn("invoice document send failed", logx.String("chat_id", chatID), logx.Err(err))
			continue
		}
		docSent++
	}
	s.record("invoice_pdf", docSent, len(rcpts))
	return textOK, docSent > 0
}

func invoiceSummary(inv Invoice) string {
	var b strings.Builder
	b.WriteString("🧾 " + tgui.B("فاتورة جديدة").String() + "\n\n")
	b.WriteString("• " + tgui.B("رقم الفاتورة:").String() + " " + tgui.Code(inv.Number).String() + "\n")
	if inv.CustomerName != "" {
		b.WriteString("• " + tgui.B("العميل:").String() + " " + tgui.Esc(inv.CustomerName).String() + "\n")
	}
	b.WriteString("• " + tgui.B("الإجمالي:").String() + " " + tgui.Esc(fmt.Sprintf("%.2f %s", inv.Total(), inv.Currency)).String() + "\n")
	b.WriteString("• " + tgui.B("التاريخ:").String() + " " + inv.Date.Format("02.01.2006"))
	return b.String()
}

func (s *Service) renderInvoicePDF(ctx context.Context, inv Invoice) ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("pdf renderer not configured")
	}
	return s.pdf.Render(ctx, invoiceHTML(inv))
}

func invoiceHTML(inv Invoice) string {
	var rows strings.Builder
	for _, it := range inv.Items {
		fmt.Fprintf(&rows,
			"<tr><td>%s</td><td>%d</td><td>%.2f</td><td>%.2f</td></tr>",
			htmlEsc(it.Description), it.Quantity, it.UnitPrice, float64(it.Quantity)*it.UnitPrice)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html dir="rtl" lang="ar"><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:40px}
table{width:100%%;border-collapse:collapse}
td,th{border:1px solid #ccc;padding:8px;text-align:right}
.total{font-weight:bold}
</style></head><body>
<h1>فاتورة %s</h1>
<p>العميل: %s</p><p>التاريخ: %s</p>
<table><tr><th>البيان</th><th>الكمية</th><th>سعر الوحدة</th><th>المجموع</th></tr>
%s
<tr class="total"><td colspan="3">الإجمالي</td><td>%.2f %s</td></tr>
</table></body></html>`,
		htmlEsc(inv.Number), htmlEsc(inv.CustomerName), inv.Date.Format("02.01.2006"),
		rows.String(), inv.Total(), htmlEsc(inv.Currency))
}

func htmlEsc(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// PDFRenderer converts HTML to PDF through the html2pdf.app API.
type PDFRenderer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

const defaultPDFEndpoint = "https://api.html2pdf.app/v1/generate"

func NewPDFRenderer(endpoint, apiKey string) *PDFRenderer {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultPDFEndpoint
	}
	return &PDFRenderer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *PDFRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"html":            html,
		"apiKey":          r.apiKey,
		"printBackground": true,
		"format":          "A4",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pdf api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}
