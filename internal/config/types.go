// Package config loads and watches the process configuration file.
//
// The file is YAML or JSON; YAML is coerced to JSON so both formats go
// through the same strict decoder and unknown keys fail loudly. Runtime
// delivery settings (tokens, chat ids) are NOT here — they live in the
// database and have their own reload path.
package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Storage    StorageConfig    `json:"storage"`
	Dispatch   DispatchConfig   `json:"dispatch"`
	Accounting AccountingConfig `json:"accounting,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// DispatchConfig tunes the async notification queue.
// All durations are Go duration strings (e.g. "500ms", "10s").
type DispatchConfig struct {
	Workers    int     `json:"workers"`
	QueueSize  int     `json:"queue_size"`
	RatePerSec float64 `json:"rate_per_sec"`
	Burst      int     `json:"burst,omitempty"`
}

type AccountingConfig struct {
	// DailyReportCron is a standard 5-field cron expression; empty disables
	// the scheduled report.
	DailyReportCron string `json:"daily_report_cron,omitempty"`
	// MonthlyReportCron works the same way; the job reports the previous
	// calendar month, so schedule it on the first of the month.
	MonthlyReportCron string `json:"monthly_report_cron,omitempty"`
	PDFEndpoint     string `json:"pdf_endpoint,omitempty"`
	PDFAPIKey       string `json:"pdf_api_key,omitempty"`
	// LogRetention bounds the notification log; entries older than this are
	// pruned nightly. Empty keeps the default of 720h.
	LogRetention string `json:"log_retention,omitempty"`
}

// Validate checks cross-field constraints that the decoder cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("accounting.log_retention", c.Accounting.LogRetention); err != nil {
		return err
	}
	if c.Dispatch.Workers < 0 || c.Dispatch.QueueSize < 0 {
		return fmt.Errorf("dispatch: workers and queue_size must be >= 0")
	}
	return nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
