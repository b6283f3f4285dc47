package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "notibot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const timeLayout = time.RFC3339Nano

// fmtTime normalizes to UTC before formatting. Timestamp columns are TEXT
// and SQLite compares them bytewise, so mixed offsets would break range
// filters and pruning.
func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- telegram config ----

func (s *sqliteStore) GetTelegramConfig(ctx context.Context, id int64) (TelegramConfigRow, bool, error) {
	if s == nil || s.db == nil {
		return TelegramConfigRow{}, false, ErrClosed
	}
	var (
		row     TelegramConfigRow
		enabled int64
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, bot_token, admin_chat_id, is_enabled, updated_at
		 FROM telegram_config WHERE id = ?`, id,
	).Scan(&row.ID, &row.BotToken, &row.AdminChatID, &enabled, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return TelegramConfigRow{}, false, nil
	}
	if err != nil {
		return TelegramConfigRow{}, false, err
	}
	row.IsEnabled = enabled != 0
	row.UpdatedAt = parseTime(updated)
	return row, true, nil
}

func (s *sqliteStore) UpsertTelegramConfig(ctx context.Context, row TelegramConfigRow) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO telegram_config(id, bot_token, admin_chat_id, is_enabled, updated_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   bot_token=excluded.bot_token,
		   admin_chat_id=excluded.admin_chat_id,
		   is_enabled=excluded.is_enabled,
		   updated_at=excluded.updated_at`,
		row.ID, row.BotToken, row.AdminChatID, boolInt(row.IsEnabled), fmtTime(row.UpdatedAt),
	)
	return err
}

// ---- attachments ----

func (s *sqliteStore) GetAttachment(ctx context.Context, id string) (AttachmentRow, bool, error) {
	if s == nil || s.db == nil {
		return AttachmentRow{}, false, ErrClosed
	}
	var (
		row      AttachmentRow
		fileType sql.NullString
		fileSize sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_type, file_size, file_data
		 FROM file_attachments WHERE id = ?`, id,
	).Scan(&row.ID, &row.FileName, &fileType, &fileSize, &row.FileData)
	if errors.Is(err, sql.ErrNoRows) {
		return AttachmentRow{}, false, nil
	}
	if err != nil {
		return AttachmentRow{}, false, err
	}
	row.FileType = fileType.String
	row.FileSize = fileSize.Int64
	return row, true, nil
}

func (s *sqliteStore) PutAttachment(ctx context.Context, row AttachmentRow) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_attachments(id, file_name, file_type, file_size, file_data)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   file_name=excluded.file_name,
		   file_type=excluded.file_type,
		   file_size=excluded.file_size,
		   file_data=excluded.file_data`,
		row.ID, row.FileName, nullStr(row.FileType), row.FileSize, row.FileData,
	)
	return err
}

func (s *sqliteStore) GetRequestFile(ctx context.Context, id string) (RequestFileRow, bool, error) {
	if s == nil || s.db == nil {
		return RequestFileRow{}, false, ErrClosed
	}
	var (
		row      RequestFileRow
		fileName sql.NullString
		fileData sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_data FROM service_requests WHERE id = ?`, id,
	).Scan(&row.ID, &fileName, &fileData)
	if errors.Is(err, sql.ErrNoRows) {
		return RequestFileRow{}, false, nil
	}
	if err != nil {
		return RequestFileRow{}, false, err
	}
	row.FileName = fileName.String
	row.FileData = fileData.String
	// A request row without a blob is a miss for the resolver.
	if row.FileData == "" {
		return RequestFileRow{}, false, nil
	}
	return row, true, nil
}

func (s *sqliteStore) PutRequestFile(ctx context.Context, row RequestFileRow) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO service_requests(id, file_name, file_data)
		 VALUES(?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   file_name=excluded.file_name,
		   file_data=excluded.file_data`,
		row.ID, nullStr(row.FileName), nullStr(row.FileData),
	)
	return err
}

// ---- accounting ----

func (s *sqliteStore) ListAccountingRecipients(ctx context.Context, now time.Time) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT telegram_chat_id, expires_at FROM accounting_telegram_auth
		 WHERE is_active = 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var (
			chatID  string
			expires sql.NullString
		)
		if err := rows.Scan(&chatID, &expires); err != nil {
			return nil, err
		}
		if expires.Valid && expires.String != "" {
			if exp := parseTime(expires.String); !exp.IsZero() && !exp.After(now) {
				continue
			}
		}
		out = append(out, chatID)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PutAuthSession(ctx context.Context, sess AuthSession) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	var expires any
	if !sess.ExpiresAt.IsZero() {
		expires = fmtTime(sess.ExpiresAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounting_telegram_auth(telegram_chat_id, email, is_active, expires_at)
		 VALUES(?,?,?,?)
		 ON CONFLICT(telegram_chat_id) DO UPDATE SET
		   email=excluded.email,
		   is_active=excluded.is_active,
		   expires_at=excluded.expires_at`,
		sess.TelegramChatID, nullStr(sess.Email), boolInt(sess.IsActive), expires,
	)
	return err
}

func (s *sqliteStore) InsertTransaction(ctx context.Context, row TransactionRow) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	// transaction_date is Unix millis so date-window queries compare
	// instants, not strings.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounting_transactions(id, type, amount, description, transaction_date, created_at)
		 VALUES(?,?,?,?,?,?)`,
		row.ID, row.Type, row.Amount, nullStr(row.Description),
		row.TransactionDate.UnixMilli(), fmtTime(row.CreatedAt),
	)
	return err
}

func (s *sqliteStore) SumTransactions(ctx context.Context, from, to time.Time) (TransactionSummary, error) {
	if s == nil || s.db == nil {
		return TransactionSummary{}, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, amount FROM accounting_transactions
		 WHERE transaction_date >= ? AND transaction_date < ?`,
		from.UnixMilli(), to.UnixMilli(),
	)
	if err != nil {
		return TransactionSummary{}, err
	}
	defer rows.Close()

	var sum TransactionSummary
	for rows.Next() {
		var (
			typ    string
			amount float64
		)
		if err := rows.Scan(&typ, &amount); err != nil {
			return TransactionSummary{}, err
		}
		sum.Count++
		switch typ {
		case "income":
			sum.Income += amount
		case "expense":
			sum.Expense += amount
		}
	}
	return sum, rows.Err()
}

// ---- notification log ----

func (s *sqliteStore) AppendNotificationLog(ctx context.Context, e NotificationLogEntry) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_log(at, channel, request_type, correlation_id, outcome, err, took_ms)
		 VALUES(?,?,?,?,?,?,?)`,
		fmtTime(e.At), e.Channel, nullStr(e.RequestType), nullStr(e.CorrelationID),
		e.Outcome, nullStr(e.Error), e.TookMS,
	)
	return err
}

func (s *sqliteStore) PruneNotificationLog(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notification_log WHERE at < ?`, fmtTime(before),
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
