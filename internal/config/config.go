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
	// HTTP server
	Port string

	// Session auth
	AuthEmail    string
	AuthPassword string
	SessionTTL   time.Duration

	// Local projection
	SQLiteDBPath string

	// AMQP sync queue
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets remote store
	GoogleSpreadsheetID string
	GoogleEntriesSheet  string
	GoogleOptionsSheet  string

	// Sync processor / worker
	SyncBatchSize   int
	SyncInterval    time.Duration
	SyncMaxRetries  int
	CleanupInterval time.Duration

	// Remote backend selection: "memory" or "sheets"
	RemoteBackend string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		AuthEmail:    getEnv("AUTH_EMAIL", ""),
		AuthPassword: getEnv("AUTH_PASSWORD", ""),
		SessionTTL:   getEnvDuration("SESSION_TTL", 12*time.Hour),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tracking.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tracking"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_entries"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleEntriesSheet:  getEnv("GOOGLE_ENTRIES_SHEET", "Entries"),
		GoogleOptionsSheet:  getEnv("GOOGLE_OPTIONS_SHEET", "Options"),

		SyncBatchSize:   getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		SyncMaxRetries:  getEnvInt("SYNC_MAX_RETRIES", 3),
		CleanupInterval: getEnvDuration("SYNC_CLEANUP_INTERVAL", time.Hour),

		RemoteBackend: getEnv("REMOTE_BACKEND", "memory"),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.RemoteBackend {
	case "memory", "sheets":
	default:
		problems = append(problems, fmt.Sprintf("invalid remote backend '%s': must be one of [memory sheets]", c.RemoteBackend))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RemoteBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "Google Spreadsheet ID is required when using the sheets backend")
		}
		if c.GoogleEntriesSheet == "" {
			problems = append(problems, "Google entries sheet name is required when using the sheets backend")
		}
	}

	if c.AuthEmail != "" && !strings.Contains(c.AuthEmail, "@") {
		problems = append(problems, fmt.Sprintf("invalid auth email '%s'", c.AuthEmail))
	}
	if (c.AuthEmail == "") != (c.AuthPassword == "") {
		problems = append(problems, "AUTH_EMAIL and AUTH_PASSWORD must be set together")
	}
	if c.SessionTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.SyncBatchSize < 1 || c.SyncBatchSize > 1000 {
		problems = append(problems, fmt.Sprintf("invalid sync batch size %d: must be between 1 and 1000", c.SyncBatchSize))
	}
	if c.SyncInterval < time.Second || c.SyncInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be between 1s and 24h", c.SyncInterval))
	}
	if c.SyncMaxRetries < 1 {
		problems = append(problems, fmt.Sprintf("invalid sync max retries %d: must be at least 1", c.SyncMaxRetries))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// AuthEnabled reports whether login credentials were configured. Without
// them the API runs open, which is only meant for local development.
func (c *Config) AuthEnabled() bool {
	return c.AuthEmail != "" && c.AuthPassword != ""
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
