package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notibot/internal/accounting"
	"notibot/internal/attachment"
	"notibot/internal/dispatch"
	"notibot/internal/eventbus"
	"notibot/internal/runtime/supervisor"
	"notibot/internal/storage"
	"notibot/internal/tgconfig"
	"notibot/internal/transport"
	logx "notibot/pkg/logx"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "s.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	channels := tgconfig.New(st, logx.Nop())
	client := &nopClient{}
	resolver := attachment.NewResolver(st, logx.Nop())
	d := dispatch.New(dispatch.Config{}, channels, client, resolver, st, eventbus.New(), logx.Nop())

	sup := supervisor.New(context.Background())
	d.Start(sup)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sup.Stop(ctx)
	})

	acct := accounting.New(channels, client, st, nil, logx.Nop())
	return New(Config{}, d, acct, channels, logx.Nop())
}

type nopClient struct{}

func (nopClient) SendMessage(context.Context, transport.Target, transport.Message) error {
	return nil
}

func (nopClient) SendDocument(context.Context, transport.Target, transport.Document) error {
	return nil
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if w := do(s, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNotifyAccepted(t *testing.T) {
	s := newTestServer(t)
	body := `{"type":"translation","record":{"id":"r-1","description":"x"}}`
	w := do(s, http.MethodPost, "/v1/notify", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "r-1") {
		t.Fatalf("correlation id missing: %s", w.Body.String())
	}
}

func TestNotifyBadJSON(t *testing.T) {
	s := newTestServer(t)
	if w := do(s, http.MethodPost, "/v1/notify", "{nope"); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNotifyMissingIDRejected(t *testing.T) {
	s := newTestServer(t)
	body := `{"type":"translation","record":{"description":"x"}}`
	if w := do(s, http.MethodPost, "/v1/notify", body); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNotifyUnknownType(t *testing.T) {
	s := newTestServer(t)
	body := `{"type":"teleportation","record":{"id":"r"}}`
	if w := do(s, http.MethodPost, "/v1/notify", body); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestConfigReload(t *testing.T) {
	s := newTestServer(t)
	if w := do(s, http.MethodPost, "/v1/config/reload", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAccountingNotifyValidation(t *testing.T) {
	s := newTestServer(t)
	// type must be income or expense
	body := `{"id":"t1","type":"loan","amount":5}`
	if w := do(s, http.MethodPost, "/v1/accounting/notify", body); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAccountingNotifyDisabledChannel(t *testing.T) {
	s := newTestServer(t)
	body := `{"id":"t2","type":"income","amount":10}`
	w := do(s, http.MethodPost, "/v1/accounting/notify", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"recipients":0`) {
		t.Fatalf("expected zero recipients: %s", w.Body.String())
	}
}

func TestInvoiceRequiresItems(t *testing.T) {
	s := newTestServer(t)
	body := `{"number":"INV-1","items":[]}`
	if w := do(s, http.MethodPost, "/v1/accounting/invoice", body); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
