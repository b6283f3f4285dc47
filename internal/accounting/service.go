// Package accounting delivers notifications for the accounting channel.
//
// The channel has its own identity (config row 3) and fans out to the
// configured admin chat plus every active, non-expired accounting login
// session. Each recipient gets exactly one attempt; one failure never stops
// the rest of the fan-out.
package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	"notibot/internal/transport"
	logx "notibot/pkg/logx"
	"notibot/pkg/tgui"
)

const sendTimeout = 10 * time.Second

type Service struct {
	channels *tgconfig.Store
	client   transport.Client
	store    storage.Store
	pdf      *PDFRenderer
	log      logx.Logger
}

func New(channels *tgconfig.Store, client transport.Client, store storage.Store, pdf *PDFRenderer, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{channels: channels, client: client, store: store, pdf: pdf, log: log}
}

// recipients returns the fan-out list: the config chat first, then active
// sessions, deduplicated. Empty when the channel is not ready.
func (s *Service) recipients(ctx context.Context) (tgconfig.Channel, []string) {
	ch := s.channels.Get(tgconfig.AccountingID)
	if !ch.Ready() {
		return ch, nil
	}

	seen := map[string]bool{}
	out := []string{}
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	add(ch.AdminChatID)

	sessions, err := s.store.ListAccountingRecipients(ctx, time.Now())
	if err != nil {
		s.log.Warn("accounting session lookup failed, config chat only", logx.Err(err))
	}
	for _, id := range sessions {
		add(id)
	}
	return ch, out
}

// Broadcast sends one HTML text to every accounting recipient and reports
// how many deliveries succeeded out of how many were attempted. A disabled
// channel yields (0, 0) with no transport calls.
func (s *Service) Broadcast(ctx context.Context, text string) (sent, total int) {
	ch, rcpts := s.recipients(ctx)
	if len(rcpts) == 0 {
		s.log.Debug("accounting channel not configured, skipping")
		return 0, 0
	}

	for _, chatID := range rcpts {
		sctx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := s.client.SendMessage(sctx, transport.Target{Token: ch.BotToken, ChatID: chatID}, transport.Message{Text: text})
		cancel()
		if err != nil {
			s.log.Warn("accounting send failed", logx.String("chat_id", chatID), logx.Err(err))
			continue
		}
		sent++
	}
	total = len(rcpts)

	s.record("broadcast", sent, total)
	return sent, total
}

// NotifyTransaction records a transaction and announces it.
func (s *Service) NotifyTransaction(ctx context.Context, tx storage.TransactionRow) (sent, total int) {
	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		s.log.Warn("transaction insert failed", logx.String("id", tx.ID), logx.Err(err))
	}

	var b strings.Builder
	if tx.Type == "income" {
		b.WriteString("💰 " + tgui.B("عملية دخل جديدة").String() + "\n\n")
	} else {
		b.WriteString("💸 " + tgui.B("عملية صرف جديدة").String() + "\n\n")
	}
	b.WriteString("• " + tgui.B("المبلغ:").String() + " " + tgui.Esc(fmt.Sprintf("%.2f", tx.Amount)).String() + "\n")
	if tx.Description != "" {
		b.WriteString("• " + tgui.B("البيان:").String() + " " + tgui.Esc(tx.Description).String() + "\n")
	}
	b.WriteString("• " + tgui.B("التاريخ:").String() + " " + tx.TransactionDate.Format("02.01.2006"))

	return s.Broadcast(ctx, b.String())
}

func (s *Service) record(kind string, sent, total int) {
	entry := storage.NotificationLogEntry{
		At:      time.Now(),
		Channel: "accounting",
		Outcome: fmt.Sprintf("%s:%d/%d", kind, sent, total),
	}
	lctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.AppendNotificationLog(lctx, entry); err != nil {
		s.log.Warn("notification log append failed", logx.Err(err))
	}
}
