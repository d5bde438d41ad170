// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDatabaseURI      = "URI_DB"
	EnvDatabaseName     = "DB_NAME"
	EnvCollection       = "BOOKS_COLLECTION"
	EnvSelectionTimeout = "DB_SELECTION_TIMEOUT"
	EnvEventsURL        = "BOOK_EVENTS_URL"
	EnvEventsExchange   = "BOOK_EVENTS_EXCHANGE"
	EnvLogLevel         = "LOG_LEVEL"
)

type Config struct {
	// DatabaseURI selects the backend by scheme. Empty means unconfigured;
	// the bootstrap treats that as fatal.
	DatabaseURI string
	// DatabaseName is used when DatabaseURI has no database path.
	DatabaseName     string
	Collection       string
	SelectionTimeout time.Duration
	EventsURL        string
	EventsExchange   string
	LogLevel         string
}

// LoadEnvFiles loads .env and .env.local. Values already present in the
// environment are kept.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURI:    os.Getenv(EnvDatabaseURI),
		DatabaseName:   getEnv(EnvDatabaseName, "library"),
		Collection:     getEnv(EnvCollection, "books"),
		EventsURL:      os.Getenv(EnvEventsURL),
		EventsExchange: getEnv(EnvEventsExchange, "catalog.events"),
		LogLevel:       getEnv(EnvLogLevel, "info"),
	}

	timeout, err := time.ParseDuration(getEnv(EnvSelectionTimeout, "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", EnvSelectionTimeout, err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("invalid %s: must be positive", EnvSelectionTimeout)
	}
	cfg.SelectionTimeout = timeout

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
