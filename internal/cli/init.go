// Package cli provides common initialization for the revpulse binaries.
// It consolidates the startup steps shared by cmd/revpulse,
// cmd/revpulse-snapshot, and cmd/revpulse-key.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"revpulse/internal/config"
	"revpulse/internal/events"
	applog "revpulse/internal/log"
	"revpulse/internal/storage"
)

// SetupLogger initializes structured logging for the named component and
// sets it as the process default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{Component: component})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStorage opens the SQLite repository at the given path and runs
// pending migrations. Exits the process on failure.
func InitStorage(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitPublisher connects to the AMQP broker when one is configured.
// Returns nil when no broker is configured or the connection fails;
// callers treat a nil publisher as "events disabled".
func InitPublisher(logger *applog.Logger, cfg *config.Config) *events.Publisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without monitoring events", "error", err)
		return nil
	}
	return publisher
}
