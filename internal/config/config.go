package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/log"
)

const minSessionSecretLen = 32

type Config struct {
	// HTTP Server
	Port string

	// Database
	DatabaseDriver string
	SQLiteDBPath   string
	DatabaseURL    string
	MaxOpenConns   int

	// Sessions
	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool
	RedisAddr           string

	// AMQP; empty URL disables ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror; empty spreadsheet id disables it
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	SyncSchedule             string

	LoginRateLimit int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/budget.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 10),

		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionTTL:          getEnvDuration("SESSION_TTL", 14*24*time.Hour),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		RedisAddr:           getEnv("REDIS_ADDR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		SyncSchedule:             getEnv("SYNC_SCHEDULE", "@every 15m"),

		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// EventsEnabled reports whether ledger changes are published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// MirrorEnabled reports whether the worker has somewhere to write.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks the settings every binary shares and returns all problems
// at once.
func (c *Config) Validate() error {
	var errors []string

	switch c.DatabaseDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH cannot be empty when using the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DatabaseDriver))
	}
	if c.MaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid DB_MAX_OPEN_CONNS %d: must be at least 1", c.MaxOpenConns))
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
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided with GOOGLE_SPREADSHEET_ID")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
				errors = append(errors, fmt.Sprintf("Google service account file is not readable: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid SYNC_SCHEDULE '%s': %v", c.SyncSchedule, err))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	var errors []string
	if err := c.Validate(); err != nil {
		errors = append(errors, strings.TrimPrefix(err.Error(), "configuration validation failed:\n- "))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.SessionSecret) < minSessionSecretLen {
		errors = append(errors, fmt.Sprintf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid SESSION_TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid LOGIN_RATE_LIMIT %d: must be at least 1", c.LoginRateLimit))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
