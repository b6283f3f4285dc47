// Package markup builds the per-type inline keyboards attached to dispatched
// notifications. Callback payloads encode "action:type:id" so the admin-side
// callback handler can correlate button presses with the originating record.
package markup

import (
	tele "gopkg.in/telebot.v4"

	"notibot/internal/request"
	"notibot/pkg/tgui"
)

type rowBuilder func(d request.Data, lang string, kb *tgui.Inline)

// rowTable dispatches on request type. Types without an entry get only the
// closing button.
var rowTable = map[request.Type]rowBuilder{
	request.TypeChatSupport:               chatSupportRows,
	request.TypeTranslation:               transactionalRows,
	request.TypeInsurance:                 transactionalRows,
	request.TypeServiceRequest:            transactionalRows,
	request.TypeConsultation:              transactionalRows,
	request.TypeLegal:                     transactionalRows,
	request.TypeGeneral:                   transactionalRows,
	request.TypeGeneralInquiry:            transactionalRows,
	request.TypeHealthInsurance:           transactionalRows,
	request.TypeTouristResidenceRenewal:   transactionalRows,
	request.TypeFirstTimeTouristResidence: transactionalRows,
	request.TypeVoluntaryReturn:           formRows,
	request.TypeHealthInsuranceActivation: formRows,
}

// Build produces the inline keyboard for a request. Deterministic; every
// layout ends with a closing "handled" button regardless of type.
func Build(d request.Data) *tele.ReplyMarkup {
	lang := d.Language
	kb := tgui.NewInline()

	if fn, ok := rowTable[d.Type]; ok {
		fn(d, lang, kb)
	}

	kb.Row(tgui.Btn(
		"✅ "+pick(lang, "تم التعامل معه", "Mark resolved"),
		tgui.Data("handled", string(d.Type), d.CorrelationID()),
	))
	return kb.Markup()
}

func chatSupportRows(d request.Data, lang string, kb *tgui.Inline) {
	kb.Row(tgui.Btn(
		"💬 "+pick(lang, "الرد على العميل", "Reply to customer"),
		tgui.Data("reply", string(d.Type), d.SessionID),
	))
	kb.Row(tgui.Btn(
		"📋 "+pick(lang, "عرض التفاصيل", "View details"),
		tgui.Data("details", string(d.Type), d.SessionID),
	))
}

func transactionalRows(d request.Data, lang string, kb *tgui.Inline) {
	kb.Row(tgui.Btn(
		"📞 "+pick(lang, "التواصل مع العميل", "Contact customer"),
		tgui.Data("contact", string(d.Type), d.RequestID),
	))
	kb.Row(tgui.Btn(
		"📋 "+pick(lang, "عرض الطلب", "View request"),
		tgui.Data("view", string(d.Type), d.RequestID),
	))
}

func formRows(d request.Data, lang string, kb *tgui.Inline) {
	kb.Row(tgui.Btn(
		"📋 "+pick(lang, "عرض النموذج", "View form"),
		tgui.Data("view_form", string(d.Type), d.FormID),
	))
	kb.Row(tgui.Btn(
		"📞 "+pick(lang, "التواصل مع العميل", "Contact customer"),
		tgui.Data("contact_form", string(d.Type), d.FormID),
	))
}

func pick(lang, ar, en string) string {
	if lang == "en" {
		return en
	}
	return ar
}
