package attachment

import (
	"context"
	"encoding/base64"
	"time"

	"notibot/internal/storage"
	logx "notibot/pkg/logx"
)

// lookupTimeout bounds each storage tier individually so a slow tier-1
// query cannot eat the whole dispatch budget.
const lookupTimeout = 5 * time.Second

// File is a resolved, sendable attachment.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Resolver turns by-id references into files using the two storage tiers:
// the dedicated attachment table first, then the blob embedded in the
// owning request record.
type Resolver struct {
	store storage.Store
	log   logx.Logger
}

func NewResolver(store storage.Store, log logx.Logger) *Resolver {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Resolver{store: store, log: log}
}

// Resolve returns the file for a reference, or nil when the reference is
// absent, malformed, or found in neither tier. Storage errors are logged
// and reported as misses; the caller sends the text message regardless.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) *File {
	switch ref.Kind {
	case KindByID:
		return r.resolveByID(ctx, ref.ID)
	default:
		// URLs pass through to the transport untouched; nothing to load.
		return nil
	}
}

func (r *Resolver) resolveByID(ctx context.Context, id string) *File {
	tctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	row, ok, err := r.store.GetAttachment(tctx, id)
	cancel()
	if err != nil {
		r.log.Warn("attachment tier-1 lookup failed", logx.String("id", id), logx.Err(err))
	}
	if ok {
		if f := decodeFile(row.FileName, row.FileType, row.FileData); f != nil {
			return f
		}
		r.log.Warn("attachment payload undecodable", logx.String("id", id))
	}

	tctx, cancel = context.WithTimeout(ctx, lookupTimeout)
	fallback, ok, err := r.store.GetRequestFile(tctx, id)
	cancel()
	if err != nil {
		r.log.Warn("attachment tier-2 lookup failed", logx.String("id", id), logx.Err(err))
	}
	if !ok {
		r.log.Debug("attachment not found in either tier", logx.String("id", id))
		return nil
	}
	if f := decodeFile(fallback.FileName, "", fallback.FileData); f != nil {
		return f
	}
	r.log.Warn("attachment fallback payload undecodable", logx.String("id", id))
	return nil
}

func decodeFile(name, declaredMIME, b64 string) *File {
	if b64 == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil
	}
	if name == "" {
		name = "attachment"
	}
	m := declaredMIME
	if m == "" {
		m = MIMEFromName(name)
	}
	return &File{Name: name, MIME: m, Data: data}
}
