// Package config loads the engine's runtime configuration: store
// selection, poll interval, and logging. Tournament format configuration
// is separate and lives with the application layer.
package config

import (
	"errors"
	"time"
)

// Config is the runtime configuration.
type Config struct {
	// Store selects and configures the persistence backend.
	Store StoreConfig `koanf:"store"`

	// PollInterval is the period between automatic refresh cycles.
	PollInterval time.Duration `koanf:"poll_interval"`

	// MaxRefreshPerSecond caps the refresh cycle rate.
	MaxRefreshPerSecond float64 `koanf:"max_refresh_per_second"`

	// FormatPath optionally points at a tournament format YAML document.
	// Empty means the built-in standard format.
	FormatPath string `koanf:"format_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "memory" or "mongo".
	Driver string `koanf:"driver"`

	// URI is the MongoDB connection string when Driver is "mongo".
	URI string `koanf:"uri"`

	// Database is the MongoDB database name when Driver is "mongo".
	Database string `koanf:"database"`
}

// New returns the default runtime configuration.
func New() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:   "memory",
			URI:      "mongodb://localhost:27017",
			Database: "shiai",
		},
		PollInterval:        5 * time.Second,
		MaxRefreshPerSecond: 1,
		LogLevel:            "info",
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "mongo":
		if c.Store.URI == "" || c.Store.Database == "" {
			return errors.New("mongo store requires uri and database")
		}
	default:
		return errors.New("store driver must be memory or mongo")
	}
	if c.PollInterval < time.Second {
		return errors.New("poll_interval must be at least 1s")
	}
	if c.MaxRefreshPerSecond <= 0 {
		return errors.New("max_refresh_per_second must be positive")
	}
	return nil
}
