package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "mongo with uri and database",
			mutate: func(c *Config) {
				c.Store.Driver = "mongo"
			},
		},
		{
			name: "mongo without uri",
			mutate: func(c *Config) {
				c.Store.Driver = "mongo"
				c.Store.URI = ""
			},
			wantErr: "requires uri",
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
			},
			wantErr: "memory or mongo",
		},
		{
			name: "poll interval too short",
			mutate: func(c *Config) {
				c.PollInterval = 100 * time.Millisecond
			},
			wantErr: "at least 1s",
		},
		{
			name: "non-positive refresh rate",
			mutate: func(c *Config) {
				c.MaxRefreshPerSecond = 0
			},
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 1.0, cfg.MaxRefreshPerSecond)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: mongo
  uri: mongodb://db.internal:27017
  database: tournaments
poll_interval: 10s
log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Store.URI)
	assert.Equal(t, "tournaments", cfg.Store.Database)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unspecified keys keep their defaults.
	assert.Equal(t, 1.0, cfg.MaxRefreshPerSecond)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	t.Setenv("SHIAI_LOG_LEVEL", "error")
	t.Setenv("SHIAI_POLL_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
