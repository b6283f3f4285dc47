package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "notibot/pkg/logx"
)

func openTest(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestTelegramConfigRoundTrip(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	if _, ok, err := st.GetTelegramConfig(ctx, 2); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	row := TelegramConfigRow{ID: 2, BotToken: "tok", AdminChatID: "-100123", IsEnabled: true}
	if err := st.UpsertTelegramConfig(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := st.GetTelegramConfig(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.BotToken != "tok" || got.AdminChatID != "-100123" || !got.IsEnabled {
		t.Fatalf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}

	// Upsert overwrites in place.
	row.IsEnabled = false
	if err := st.UpsertTelegramConfig(ctx, row); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _, _ = st.GetTelegramConfig(ctx, 2)
	if got.IsEnabled {
		t.Fatalf("disable not persisted")
	}
}

func TestRequestFileMissWithoutBlob(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	if err := st.PutRequestFile(ctx, RequestFileRow{ID: "r1", FileName: "f.pdf"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, err := st.GetRequestFile(ctx, "r1"); err != nil || ok {
		t.Fatalf("row without blob must read as a miss, ok=%v err=%v", ok, err)
	}
}

func TestListAccountingRecipientsFilters(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	now := time.Now()

	sessions := []AuthSession{
		{TelegramChatID: "100", IsActive: true},
		{TelegramChatID: "200", IsActive: true, ExpiresAt: now.Add(time.Hour)},
		{TelegramChatID: "300", IsActive: true, ExpiresAt: now.Add(-time.Hour)}, // expired
		{TelegramChatID: "400", IsActive: false},                               // inactive
	}
	for _, s := range sessions {
		if err := st.PutAuthSession(ctx, s); err != nil {
			t.Fatalf("put session %s: %v", s.TelegramChatID, err)
		}
	}

	got, err := st.ListAccountingRecipients(ctx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := map[string]bool{"100": true, "200": true}
	if len(got) != len(want) {
		t.Fatalf("recipients = %v, want exactly %v", got, want)
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("unexpected recipient %s in %v", id, got)
		}
	}
}

func TestSumTransactionsWindow(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	rows := []TransactionRow{
		{ID: "t1", Type: "income", Amount: 100, TransactionDate: day.Add(2 * time.Hour)},
		{ID: "t2", Type: "expense", Amount: 40, TransactionDate: day.Add(5 * time.Hour)},
		{ID: "t3", Type: "income", Amount: 9, TransactionDate: day.Add(-time.Hour)}, // outside
	}
	for _, r := range rows {
		if err := st.InsertTransaction(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}

	sum, err := st.SumTransactions(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.Count != 2 || sum.Income != 100 || sum.Expense != 40 {
		t.Fatalf("sum = %+v", sum)
	}
}

func TestSumTransactionsNonUTCOffset(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	// 23:00 on July 1 at UTC-3 is 02:00 on July 2 UTC. The window filter
	// must bucket by instant, not by the wall clock the caller used.
	loc := time.FixedZone("UTC-3", -3*60*60)
	row := TransactionRow{
		ID: "t-offset", Type: "income", Amount: 75,
		TransactionDate: time.Date(2024, 7, 1, 23, 0, 0, 0, loc),
	}
	if err := st.InsertTransaction(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	july1 := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	july2 := july1.Add(24 * time.Hour)

	sum, err := st.SumTransactions(ctx, july1, july2)
	if err != nil {
		t.Fatalf("sum july 1: %v", err)
	}
	if sum.Count != 0 {
		t.Fatalf("transaction bucketed into july 1: %+v", sum)
	}
	sum, err = st.SumTransactions(ctx, july2, july2.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("sum july 2: %v", err)
	}
	if sum.Count != 1 || sum.Income != 75 {
		t.Fatalf("transaction missing from july 2: %+v", sum)
	}
}

func TestSumTransactionsFractionalBoundary(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	row := TransactionRow{
		ID: "t-frac", Type: "expense", Amount: 10,
		TransactionDate: day.Add(500 * time.Millisecond),
	}
	if err := st.InsertTransaction(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	sum, err := st.SumTransactions(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.Count != 1 || sum.Expense != 10 {
		t.Fatalf("sub-second transaction at window start lost: %+v", sum)
	}
}

func TestNotificationLogAppendPrune(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	old := NotificationLogEntry{At: time.Now().Add(-48 * time.Hour), Channel: "general", Outcome: "sent"}
	fresh := NotificationLogEntry{At: time.Now(), Channel: "general", Outcome: "sent"}
	if err := st.AppendNotificationLog(ctx, old); err != nil {
		t.Fatalf("append old: %v", err)
	}
	if err := st.AppendNotificationLog(ctx, fresh); err != nil {
		t.Fatalf("append fresh: %v", err)
	}

	n, err := st.PruneNotificationLog(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d rows, want 1", n)
	}
}
