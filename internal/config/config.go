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
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Billing provider
	BillingBaseURL string
	BillingAPIKey  string // process-wide default; per-operator overrides live in the credential store

	// Revalidation cache
	CacheWindow     time.Duration
	CacheMaxEntries int

	// Reconciliation
	DefaultOperatorID string
	DefaultMRRCents   int64

	// AMQP (optional monitoring events)
	AMQPURL      string
	AMQPExchange string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/revpulse.db"),

		BillingBaseURL: getEnv("BILLING_BASE_URL", "https://api.stripe.com/v1"),
		BillingAPIKey:  getEnv("BILLING_API_KEY", ""),

		CacheWindow:     getEnvDuration("CACHE_WINDOW", 30*time.Minute),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 64),

		DefaultOperatorID: getEnv("DEFAULT_OPERATOR_ID", "default"),
		DefaultMRRCents:   getEnvInt64("DEFAULT_MRR_CENTS", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "revpulse"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite path and make sure its directory exists
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate billing base URL
	if parsed, err := url.Parse(c.BillingBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid billing base URL '%s'", c.BillingBaseURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid billing base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	// Validate revalidation window: too short defeats the point of the
	// cache, too long means a whole day of stale figures
	if c.CacheWindow < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid cache window %v: must be at least 1 minute", c.CacheWindow))
	} else if c.CacheWindow > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache window %v: must be at most 24 hours", c.CacheWindow))
	}

	if c.CacheMaxEntries < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache max entries %d: must be at least 1", c.CacheMaxEntries))
	}

	if c.DefaultMRRCents < 0 {
		errors = append(errors, fmt.Sprintf("invalid default MRR %d: must not be negative", c.DefaultMRRCents))
	}

	if strings.TrimSpace(c.DefaultOperatorID) == "" {
		errors = append(errors, "default operator id cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
