package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/engine"
)

type Config struct {
	// HTTP server
	Port      string
	LogLevel  string
	LogFormat string

	// Auth
	JWTSecret string

	// Database
	SQLiteDBPath string

	// AMQP (backup event bus)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets backup export
	BackupSpreadsheetID string
	BackupSheetName     string

	// Workers
	RecurringInterval time.Duration
	BackupBatchSize   int
	BackupInterval    time.Duration

	// Engine policy
	TrendLowCents         int64
	TrendHighCents        int64
	HighSpendCents        int64
	MinRecordsForAnalysis int

	// Rate limiting (requests per second, burst)
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() *Config {
	cfg := &Config{
		Port:      getEnv("PORT", "8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "backup_transactions"),

		BackupSpreadsheetID: getEnv("BACKUP_SPREADSHEET_ID", ""),
		BackupSheetName:     getEnv("BACKUP_SHEET_NAME", "Transactions"),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),
		BackupBatchSize:   getEnvInt("BACKUP_BATCH_SIZE", 10),
		BackupInterval:    getEnvDuration("BACKUP_INTERVAL", 30*time.Second),

		TrendLowCents:         getEnvInt64("TREND_LOW_CENTS", 10_000),
		TrendHighCents:        getEnvInt64("TREND_HIGH_CENTS", 50_000),
		HighSpendCents:        getEnvInt64("HIGH_SPEND_CENTS", 100_000),
		MinRecordsForAnalysis: getEnvInt("MIN_RECORDS_FOR_ANALYSIS", 5),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),
	}

	return cfg
}

// Thresholds returns the trend classifier configuration. The classifier
// itself owns no constants; they all come from here.
func (c *Config) Thresholds() engine.Thresholds {
	return engine.Thresholds{
		Low:  core.Money{Cents: c.TrendLowCents},
		High: core.Money{Cents: c.TrendHighCents},
	}
}

// RulePolicy returns the suggestion rule configuration.
func (c *Config) RulePolicy() engine.RulePolicy {
	return engine.RulePolicy{
		HighSpend:  core.Money{Cents: c.HighSpendCents},
		MinRecords: c.MinRecordsForAnalysis,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT secret is required")
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT secret too short: must be at least 32 bytes")
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BackupSpreadsheetID != "" && c.BackupSheetName == "" {
		errs = append(errs, "backup sheet name cannot be empty when a spreadsheet ID is provided")
	}

	if c.RecurringInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	}
	if c.BackupBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid backup batch size %d: must be at least 1", c.BackupBatchSize))
	} else if c.BackupBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid backup batch size %d: must be at most 1000", c.BackupBatchSize))
	}
	if c.BackupInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid backup interval %v: must be at least 1 second", c.BackupInterval))
	}

	if c.TrendLowCents < 0 || c.TrendHighCents < 0 {
		errs = append(errs, "trend thresholds must be non-negative")
	}
	if c.TrendLowCents > c.TrendHighCents {
		errs = append(errs, fmt.Sprintf("trend low threshold %d exceeds high threshold %d", c.TrendLowCents, c.TrendHighCents))
	}
	if c.HighSpendCents < 0 {
		errs = append(errs, "high-spend threshold must be non-negative")
	}
	if c.MinRecordsForAnalysis < 0 {
		errs = append(errs, "minimum record count must be non-negative")
	}

	if c.RateLimitRPS <= 0 {
		errs = append(errs, "rate limit must be positive")
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, "rate limit burst must be at least 1")
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
