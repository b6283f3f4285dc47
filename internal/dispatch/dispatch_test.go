package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"notibot/internal/attachment"
	"notibot/internal/eventbus"
	"notibot/internal/request"
	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	"notibot/internal/transport"
	logx "notibot/pkg/logx"
)

type spyClient struct {
	mu      sync.Mutex
	msgs    []transport.Message
	docs    []transport.Document
	targets []transport.Target
	msgErr  error
	docErr  error
}

func (c *spyClient) SendMessage(_ context.Context, t transport.Target, m transport.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msgErr != nil {
		return c.msgErr
	}
	c.targets = append(c.targets, t)
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *spyClient) SendDocument(_ context.Context, t transport.Target, d transport.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docErr != nil {
		return c.docErr
	}
	c.docs = append(c.docs, d)
	return nil
}

func (c *spyClient) calls() (msgs int, docs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs), len(c.docs)
}

type fixture struct {
	d     *Dispatcher
	spy   *spyClient
	store storage.Store
}

func newFixture(t *testing.T, enabled bool) *fixture {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "d.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	if enabled {
		err := st.UpsertTelegramConfig(ctx, storage.TelegramConfigRow{
			ID: tgconfig.GeneralID, BotToken: "tok", AdminChatID: "-100", IsEnabled: true,
		})
		if err != nil {
			t.Fatalf("seed config: %v", err)
		}
	}
	channels := tgconfig.New(st, logx.Nop())
	if err := channels.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	spy := &spyClient{}
	resolver := attachment.NewResolver(st, logx.Nop())
	d := New(Config{}, channels, spy, resolver, st, eventbus.New(), logx.Nop())
	return &fixture{d: d, spy: spy, store: st}
}

func sampleData() request.Data {
	d, _ := request.FromTranslationRequest(request.ServiceRecord{
		ID:          "req-1",
		Description: "translate this",
		UserName:    "Omar",
	})
	return d
}

func TestSendDisabledConfigNoTransportCalls(t *testing.T) {
	f := newFixture(t, false)
	res := f.d.Deliver(context.Background(), sampleData(), "")
	if res.OK || res.Outcome != OutcomeDisabled {
		t.Fatalf("disabled channel: %+v", res)
	}
	if m, d := f.spy.calls(); m != 0 || d != 0 {
		t.Fatalf("transport touched on disabled config: msgs=%d docs=%d", m, d)
	}
}

func TestSendDeliversMessage(t *testing.T) {
	f := newFixture(t, true)
	if !f.d.Send(context.Background(), sampleData(), "") {
		t.Fatalf("send returned false")
	}
	m, d := f.spy.calls()
	if m != 1 || d != 0 {
		t.Fatalf("msgs=%d docs=%d, want exactly one message", m, d)
	}
	if f.spy.targets[0].Token != "tok" || f.spy.targets[0].ChatID != "-100" {
		t.Fatalf("wrong target %+v", f.spy.targets[0])
	}
	if !strings.Contains(f.spy.msgs[0].Text, "translate this") {
		t.Fatalf("message body missing description: %q", f.spy.msgs[0].Text)
	}
	if f.spy.msgs[0].Markup == nil {
		t.Fatalf("reply markup missing")
	}
}

func TestSendTransportErrorReturnsFalse(t *testing.T) {
	f := newFixture(t, true)
	f.spy.msgErr = errors.New("telegram: 502")
	res := f.d.Deliver(context.Background(), sampleData(), "")
	if res.OK || res.Outcome != OutcomeTransport || res.Err == nil {
		t.Fatalf("transport error: %+v", res)
	}
}

func TestSendWithStoredAttachment(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	// Tier-2 only: exercises the fallback inside a full send.
	err := f.store.PutRequestFile(ctx, storage.RequestFileRow{
		ID:       "req-1",
		FileName: "passport.png",
		FileData: base64.StdEncoding.EncodeToString([]byte("png")),
	})
	if err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if !f.d.Send(ctx, sampleData(), "base64://req-1") {
		t.Fatalf("send returned false")
	}
	m, d := f.spy.calls()
	if m != 1 || d != 1 {
		t.Fatalf("msgs=%d docs=%d, want message plus document", m, d)
	}
	doc := f.spy.docs[0]
	if doc.Name != "passport.png" || doc.MIME != "image/png" {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Caption == "" {
		t.Fatalf("attachment caption missing")
	}
}

func TestSendAttachmentMissStillSucceeds(t *testing.T) {
	f := newFixture(t, true)
	if !f.d.Send(context.Background(), sampleData(), "base64://ghost") {
		t.Fatalf("attachment miss must not fail the message")
	}
	m, d := f.spy.calls()
	if m != 1 || d != 0 {
		t.Fatalf("msgs=%d docs=%d", m, d)
	}
}

func TestSendMalformedReferenceIgnored(t *testing.T) {
	f := newFixture(t, true)
	if !f.d.Send(context.Background(), sampleData(), "not a reference") {
		t.Fatalf("malformed ref must not fail the message")
	}
	if _, d := f.spy.calls(); d != 0 {
		t.Fatalf("no document expected for malformed ref")
	}
}

func TestSendURLAttachmentPassesThrough(t *testing.T) {
	f := newFixture(t, true)
	if !f.d.Send(context.Background(), sampleData(), "https://cdn.example.com/a.pdf") {
		t.Fatalf("send returned false")
	}
	_, d := f.spy.calls()
	if d != 1 {
		t.Fatalf("docs=%d, want URL document", d)
	}
	if f.spy.docs[0].URL != "https://cdn.example.com/a.pdf" {
		t.Fatalf("doc = %+v", f.spy.docs[0])
	}
}

func TestSendAttachmentFailureKeepsSuccess(t *testing.T) {
	f := newFixture(t, true)
	f.spy.docErr = errors.New("too large")
	if !f.d.Send(context.Background(), sampleData(), "https://cdn.example.com/a.pdf") {
		t.Fatalf("document failure must not flip the message result")
	}
}

func TestNotifyWithoutWorkersDropsQuietly(t *testing.T) {
	f := newFixture(t, true)
	// Queue not started: Notify must not block or panic.
	if f.d.Notify(sampleData(), "") {
		t.Fatalf("expected drop before Start")
	}
}

func TestSendWritesNotificationLog(t *testing.T) {
	f := newFixture(t, true)
	f.d.Send(context.Background(), sampleData(), "")

	// Pruning with a far-future cutoff removes exactly the rows this
	// test created.
	n, err := f.store.PruneNotificationLog(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("log rows = %d, want 1", n)
	}
}
