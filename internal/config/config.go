// Package config loads the expense tracker settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Storage
	DataDir     string `env:"EXPENSES_DATA_DIR" envDefault:"./data"`
	DBPath      string `env:"EXPENSES_DB_PATH"`
	ReceiptsDir string `env:"EXPENSES_RECEIPTS_DIR" envDefault:"receipts"`

	// Logging
	LogLevel string `env:"EXPENSES_LOG_LEVEL" envDefault:"info"`

	// Project list cache
	ProjectCacheTTL  time.Duration `env:"EXPENSES_PROJECT_CACHE_TTL" envDefault:"30s"`
	ProjectCacheSize int           `env:"EXPENSES_PROJECT_CACHE_SIZE" envDefault:"16"`

	// AMQP (optional)
	AMQPURL         string `env:"AMQP_URL"`
	AMQPExchange    string `env:"AMQP_EXCHANGE" envDefault:"expenses"`
	AMQPQueue       string `env:"AMQP_QUEUE" envDefault:"ocr_requests"`
	AMQPResultQueue string `env:"AMQP_RESULT_QUEUE" envDefault:"ocr_results"`

	// Google Sheets export (optional)
	SpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	SheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Expenses"`
	ServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	ServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

// Load reads the configuration from the process environment. An unset
// EXPENSES_DB_PATH resolves to <data dir>/expenses.db.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFrom is Load over an explicit environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DBPath) == "" && c.DataDir != "" {
		c.DBPath = filepath.Join(c.DataDir, "expenses.db")
	}
}

// AMQPEnabled reports whether an OCR broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != ""
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "data directory cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "database path cannot be empty")
	}

	receipts := filepath.Clean(filepath.FromSlash(c.ReceiptsDir))
	if c.ReceiptsDir == "" || receipts == "." || !filepath.IsLocal(receipts) {
		errors = append(errors, fmt.Sprintf("invalid receipts directory '%s': must be a relative path inside the data directory", c.ReceiptsDir))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.ProjectCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid project cache TTL %v: must not be negative", c.ProjectCacheTTL))
	} else if c.ProjectCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid project cache TTL %v: must be at most 24 hours", c.ProjectCacheTTL))
	}
	if c.ProjectCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid project cache size %d: must be at least 1", c.ProjectCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue != "" && c.AMQPQueue == c.AMQPResultQueue {
			errors = append(errors, "AMQP request and result queues must differ")
		}
	}

	if c.SheetsEnabled() && strings.TrimSpace(c.SheetName) == "" {
		errors = append(errors, "sheet name cannot be empty when a spreadsheet is configured")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
