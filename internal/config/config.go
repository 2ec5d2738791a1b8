package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Which order source backs the service: hungerrush, file or memory.
	SourceBackend string

	// HungerRush portal
	HungerRushBaseURL  string
	HungerRushUsername string
	HungerRushPassword string
	StoreID            string

	// File backend
	SourceFile string

	// Fetch behaviour
	FetchTimeout time.Duration
	PollInterval time.Duration

	// Result cache
	CacheSize int

	// Report history (SQLite)
	SQLiteDBPath string

	// AMQP (optional; empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional; empty spreadsheet ID disables it)
	ExportSpreadsheetID string
	ExportSheetName     string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		SourceBackend: getEnv("SOURCE_BACKEND", "hungerrush"),

		HungerRushBaseURL:  getEnv("HUNGERRUSH_BASE_URL", "https://hub.hungerrush.com"),
		HungerRushUsername: getEnv("HUNGERRUSH_USERNAME", ""),
		HungerRushPassword: getEnv("HUNGERRUSH_PASSWORD", ""),
		StoreID:            getEnv("HUNGERRUSH_STORE_ID", ""),

		SourceFile: getEnv("SOURCE_FILE", ""),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 90*time.Second),
		PollInterval: getEnvDuration("POLL_INTERVAL", 2*time.Second),

		CacheSize: getEnvInt("CACHE_SIZE", 20),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/reports.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "reports"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_completed"),

		ExportSpreadsheetID: getEnv("EXPORT_SPREADSHEET_ID", ""),
		ExportSheetName:     getEnv("EXPORT_SHEET_NAME", "Daily Reports"),
	}
}

// Validate checks the configuration, collecting every problem into one
// error. Missing credentials for the selected backend are configuration
// errors: the request cannot even start without them.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.SourceBackend {
	case "hungerrush":
		if c.HungerRushBaseURL == "" {
			errs = append(errs, "HUNGERRUSH_BASE_URL cannot be empty for the hungerrush backend")
		}
		if c.HungerRushUsername == "" {
			errs = append(errs, "HUNGERRUSH_USERNAME is required for the hungerrush backend")
		}
		if c.HungerRushPassword == "" {
			errs = append(errs, "HUNGERRUSH_PASSWORD is required for the hungerrush backend")
		}
		if c.StoreID == "" {
			errs = append(errs, "HUNGERRUSH_STORE_ID is required for the hungerrush backend")
		}
	case "file":
		if c.SourceFile == "" {
			errs = append(errs, "SOURCE_FILE is required for the file backend")
		} else if _, err := os.Stat(c.SourceFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("source file does not exist: %s", c.SourceFile))
		}
	case "memory":
		// test/dev backend, nothing to check
	default:
		errs = append(errs, fmt.Sprintf("invalid source backend '%s': must be one of [hungerrush file memory]", c.SourceBackend))
	}

	if c.FetchTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	}
	if c.PollInterval < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid poll interval %v: must be at least 100ms", c.PollInterval))
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
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

	if c.ExportSpreadsheetID != "" && c.ExportSheetName == "" {
		errs = append(errs, "EXPORT_SHEET_NAME cannot be empty when a spreadsheet is configured")
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
