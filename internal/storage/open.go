package storage

import (
	"context"
	"time"

	logx "notibot/pkg/logx"
)

// Store is the persistence API used by the dispatch and accounting layers.
type Store interface {
	GetTelegramConfig(ctx context.Context, id int64) (TelegramConfigRow, bool, error)
	UpsertTelegramConfig(ctx context.Context, row TelegramConfigRow) error

	GetAttachment(ctx context.Context, id string) (AttachmentRow, bool, error)
	PutAttachment(ctx context.Context, row AttachmentRow) error
	GetRequestFile(ctx context.Context, id string) (RequestFileRow, bool, error)
	PutRequestFile(ctx context.Context, row RequestFileRow) error

	ListAccountingRecipients(ctx context.Context, now time.Time) ([]string, error)
	PutAuthSession(ctx context.Context, s AuthSession) error

	InsertTransaction(ctx context.Context, row TransactionRow) error
	SumTransactions(ctx context.Context, from, to time.Time) (TransactionSummary, error)

	AppendNotificationLog(ctx context.Context, e NotificationLogEntry) error
	PruneNotificationLog(ctx context.Context, before time.Time) (int64, error)

	Close() error
}

// Open initializes the SQLite store at cfg.Path, creating the schema
// when missing.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	return openSQLite(cfg, log)
}
