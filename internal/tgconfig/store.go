// Package tgconfig holds the per-channel Telegram delivery settings.
//
// Settings live in two fixed storage rows: id 2 for the general channel and
// id 3 for the accounting channel. The store caches a snapshot and refreshes
// it only on explicit Reload or Apply, so a row edited out-of-band is picked
// up when the operator asks for it, not mid-send.
package tgconfig

import (
	"context"
	"strings"
	"sync"
	"time"

	"notibot/internal/storage"
	logx "notibot/pkg/logx"
)

// Fixed row ids. Row 1 was retired before this subsystem existed.
const (
	GeneralID    int64 = 2
	AccountingID int64 = 3
)

// Channel is one delivery identity. The zero value means "not configured":
// disabled, and every send against it is a quiet no-op.
type Channel struct {
	BotToken    string
	AdminChatID string
	Enabled     bool
	UpdatedAt   time.Time
}

// Ready reports whether the channel can actually deliver.
func (c Channel) Ready() bool {
	return c.Enabled && strings.TrimSpace(c.BotToken) != "" && strings.TrimSpace(c.AdminChatID) != ""
}

// Update is a partial change; nil fields keep the stored value.
type Update struct {
	BotToken    *string
	AdminChatID *string
	Enabled     *bool
}

// Store caches the channel rows.
type Store struct {
	mu    sync.RWMutex
	cache map[int64]Channel

	db  storage.Store
	log logx.Logger
}

func New(db storage.Store, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		cache: make(map[int64]Channel),
		db:    db,
		log:   log,
	}
}

// Get returns the cached snapshot for a channel id. Unknown ids return the
// zero (disabled) channel.
func (s *Store) Get(id int64) Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[id]
}

// Reload re-reads both channel rows from storage. A missing row clears the
// cached entry; a storage error keeps the previous snapshot and is logged,
// never surfaced to senders.
func (s *Store) Reload(ctx context.Context) error {
	var firstErr error
	for _, id := range []int64{GeneralID, AccountingID} {
		if err := s.reloadOne(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) reloadOne(ctx context.Context, id int64) error {
	row, ok, err := s.db.GetTelegramConfig(ctx, id)
	if err != nil {
		s.log.Warn("telegram config reload failed", logx.Int64("id", id), logx.Err(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		delete(s.cache, id)
		return nil
	}
	s.cache[id] = Channel{
		BotToken:    row.BotToken,
		AdminChatID: row.AdminChatID,
		Enabled:     row.IsEnabled,
		UpdatedAt:   row.UpdatedAt,
	}
	return nil
}

// Apply merges a partial update into the stored row and refreshes the
// cache. It reports success; failures are logged, not returned, so admin
// command handlers can reply with a plain yes/no.
func (s *Store) Apply(ctx context.Context, id int64, u Update) bool {
	row, _, err := s.db.GetTelegramConfig(ctx, id)
	if err != nil {
		s.log.Error("telegram config read failed", logx.Int64("id", id), logx.Err(err))
		return false
	}
	row.ID = id
	if u.BotToken != nil {
		row.BotToken = *u.BotToken
	}
	if u.AdminChatID != nil {
		row.AdminChatID = *u.AdminChatID
	}
	if u.Enabled != nil {
		row.IsEnabled = *u.Enabled
	}
	row.UpdatedAt = time.Now()

	if err := s.db.UpsertTelegramConfig(ctx, row); err != nil {
		s.log.Error("telegram config write failed", logx.Int64("id", id), logx.Err(err))
		return false
	}
	_ = s.reloadOne(ctx, id)
	return true
}
