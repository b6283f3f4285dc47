package storage

import (
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// TelegramConfigRow mirrors one row of telegram_config. Fixed row ids:
// 2 = general notification channel, 3 = accounting channel.
type TelegramConfigRow struct {
	ID          int64
	BotToken    string
	AdminChatID string
	IsEnabled   bool
	UpdatedAt   time.Time
}

// AttachmentRow is a tier-1 attachment record. FileData is base64.
type AttachmentRow struct {
	ID       string
	FileName string
	FileType string
	FileSize int64
	FileData string
}

// RequestFileRow is the tier-2 fallback: the blob embedded in the owning
// service-request record. The file type is not stored and must be inferred.
type RequestFileRow struct {
	ID       string
	FileName string
	FileData string
}

// AuthSession is one accounting bot login session. Only active, non-expired
// sessions receive accounting notifications.
type AuthSession struct {
	TelegramChatID string
	Email          string
	IsActive       bool
	ExpiresAt      time.Time // zero means no expiry
}

// TransactionSummary aggregates accounting transactions over a window.
type TransactionSummary struct {
	Income  float64
	Expense float64
	Count   int
}

// TransactionRow is one accounting transaction.
type TransactionRow struct {
	ID              string
	Type            string // "income" | "expense"
	Amount          float64
	Description     string
	TransactionDate time.Time
	CreatedAt       time.Time
}

// NotificationLogEntry records one dispatch outcome.
// Keep it compact and schema-stable.
type NotificationLogEntry struct {
	At            time.Time
	Channel       string
	RequestType   string
	CorrelationID string
	Outcome       string
	Error         string
	TookMS        int64
}
