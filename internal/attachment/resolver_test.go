package attachment

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"

	"notibot/internal/storage"
	logx "notibot/pkg/logx"
)

func testStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestResolveTierOne(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	err := st.PutAttachment(ctx, storage.AttachmentRow{
		ID:       "a1",
		FileName: "contract.pdf",
		FileType: "application/pdf",
		FileData: b64("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("PutAttachment: %v", err)
	}

	r := NewResolver(st, logx.Nop())
	f := r.Resolve(ctx, Parse("base64://a1"))
	if f == nil {
		t.Fatalf("expected tier-1 hit")
	}
	if f.Name != "contract.pdf" || f.MIME != "application/pdf" || string(f.Data) != "pdf-bytes" {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestResolveFallsBackToTierTwo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	err := st.PutRequestFile(ctx, storage.RequestFileRow{
		ID:       "r7",
		FileName: "photo.jpg",
		FileData: b64("jpg-bytes"),
	})
	if err != nil {
		t.Fatalf("PutRequestFile: %v", err)
	}

	r := NewResolver(st, logx.Nop())
	f := r.Resolve(ctx, Parse("base64://r7"))
	if f == nil {
		t.Fatalf("expected tier-2 hit")
	}
	// Tier 2 has no declared type; MIME comes from the extension.
	if f.MIME != "image/jpeg" {
		t.Fatalf("mime = %q, want inferred image/jpeg", f.MIME)
	}
	if string(f.Data) != "jpg-bytes" {
		t.Fatalf("data = %q", f.Data)
	}
}

func TestResolveDoubleMissReturnsNil(t *testing.T) {
	st := testStore(t)
	r := NewResolver(st, logx.Nop())
	if f := r.Resolve(context.Background(), Parse("base64://nope")); f != nil {
		t.Fatalf("expected nil on double miss, got %+v", f)
	}
}

func TestResolveBadBase64FallsThrough(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	// Corrupt tier-1 payload, valid tier-2 payload under the same id.
	if err := st.PutAttachment(ctx, storage.AttachmentRow{ID: "x", FileName: "f.bin", FileData: "!!not-base64!!"}); err != nil {
		t.Fatalf("PutAttachment: %v", err)
	}
	if err := st.PutRequestFile(ctx, storage.RequestFileRow{ID: "x", FileName: "f.bin", FileData: b64("ok")}); err != nil {
		t.Fatalf("PutRequestFile: %v", err)
	}

	r := NewResolver(st, logx.Nop())
	f := r.Resolve(ctx, Parse("base64://x"))
	if f == nil || string(f.Data) != "ok" {
		t.Fatalf("expected tier-2 rescue, got %+v", f)
	}
}

func TestResolveURLAndNoneKinds(t *testing.T) {
	st := testStore(t)
	r := NewResolver(st, logx.Nop())
	if f := r.Resolve(context.Background(), Parse("https://example.com/a.pdf")); f != nil {
		t.Fatalf("URL references are not loaded locally")
	}
	if f := r.Resolve(context.Background(), Reference{}); f != nil {
		t.Fatalf("empty reference should be nil")
	}
}
