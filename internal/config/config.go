package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	SQLiteDBPath string

	// Report artifacts
	ExportDir     string
	ReportBackend string // "xlsx" or "gsheet"
	ChartFontPath string // optional TTF with Cyrillic glyphs
	MaxReportDays int
	MaxReportRows int

	// Google Sheets (gsheet backend)
	GoogleSpreadsheetID string

	// AMQP; empty URL means reports render inline in the bot process
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dialog
	PageSize     int
	UndoWindow   time.Duration
	SessionTTL   time.Duration
	SessionLimit int
}

func Load() *Config {
	return &Config{
		BotToken: getEnv("BOT_TOKEN", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kopilka.db"),

		ExportDir:     getEnv("EXPORT_DIR", "./exports"),
		ReportBackend: getEnv("REPORT_BACKEND", "xlsx"),
		ChartFontPath: getEnv("CHART_FONT_PATH", ""),
		MaxReportDays: getEnvInt("MAX_REPORT_DAYS", 365),
		MaxReportRows: getEnvInt("MAX_REPORT_ROWS", 10000),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kopilka"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_requests"),

		PageSize:     getEnvInt("PAGE_SIZE", 10),
		UndoWindow:   getEnvDuration("UNDO_WINDOW", 5*time.Minute),
		SessionTTL:   getEnvDuration("SESSION_TTL", time.Hour),
		SessionLimit: getEnvInt("SESSION_LIMIT", 10000),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.BotToken == "" {
		errs = append(errs, "BOT_TOKEN is required")
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	switch c.ReportBackend {
	case "xlsx":
	case "gsheet":
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "GOOGLE_SPREADSHEET_ID is required for the gsheet report backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid report backend '%s': must be one of [xlsx gsheet]", c.ReportBackend))
	}

	if c.ExportDir == "" {
		errs = append(errs, "export directory cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MaxReportDays < 1 || c.MaxReportDays > 3650 {
		errs = append(errs, fmt.Sprintf("invalid max report days %d: must be between 1 and 3650", c.MaxReportDays))
	}
	if c.MaxReportRows < 1 {
		errs = append(errs, fmt.Sprintf("invalid max report rows %d: must be at least 1", c.MaxReportRows))
	}
	if c.PageSize < 1 || c.PageSize > 50 {
		errs = append(errs, fmt.Sprintf("invalid page size %d: must be between 1 and 50", c.PageSize))
	}
	if c.UndoWindow < time.Second {
		errs = append(errs, fmt.Sprintf("invalid undo window %v: must be at least 1 second", c.UndoWindow))
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid session limit %d: must be at least 1", c.SessionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
