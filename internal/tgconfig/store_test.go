package tgconfig

import (
	"context"
	"path/filepath"
	"testing"

	"notibot/internal/storage"
	logx "notibot/pkg/logx"
)

func testStore(t *testing.T) (*Store, storage.Store) {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "t.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, logx.Nop()), db
}

func TestGetAbsentRowIsDisabled(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	ch := s.Get(GeneralID)
	if ch.Ready() {
		t.Fatalf("absent row must not be ready: %+v", ch)
	}
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()

	err := db.UpsertTelegramConfig(ctx, storage.TelegramConfigRow{
		ID: GeneralID, BotToken: "tok", AdminChatID: "42", IsEnabled: true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Not visible before the explicit reload.
	if s.Get(GeneralID).Ready() {
		t.Fatalf("row visible before reload")
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	ch := s.Get(GeneralID)
	if !ch.Ready() || ch.BotToken != "tok" || ch.AdminChatID != "42" {
		t.Fatalf("after reload: %+v", ch)
	}
}

func TestApplyPartialUpdate(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	tok := "secret"
	chat := "777"
	on := true
	if !s.Apply(ctx, AccountingID, Update{BotToken: &tok, AdminChatID: &chat, Enabled: &on}) {
		t.Fatalf("apply failed")
	}
	ch := s.Get(AccountingID)
	if !ch.Ready() {
		t.Fatalf("channel not ready after apply: %+v", ch)
	}

	// Partial: flip enabled only, token must survive.
	off := false
	if !s.Apply(ctx, AccountingID, Update{Enabled: &off}) {
		t.Fatalf("partial apply failed")
	}
	ch = s.Get(AccountingID)
	if ch.Enabled {
		t.Fatalf("enabled not cleared")
	}
	if ch.BotToken != "secret" {
		t.Fatalf("token lost on partial update: %+v", ch)
	}
}

func TestReadyRequiresAllFields(t *testing.T) {
	cases := []Channel{
		{Enabled: true, BotToken: "t"},
		{Enabled: true, AdminChatID: "c"},
		{BotToken: "t", AdminChatID: "c"},
		{Enabled: true, BotToken: " ", AdminChatID: "c"},
	}
	for i, c := range cases {
		if c.Ready() {
			t.Fatalf("case %d should not be ready: %+v", i, c)
		}
	}
	if !(Channel{Enabled: true, BotToken: "t", AdminChatID: "c"}).Ready() {
		t.Fatalf("complete channel should be ready")
	}
}
