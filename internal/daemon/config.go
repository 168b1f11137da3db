// Package daemon manages the squadxp daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/squadplanner/squadxp/internal/domain"
)

// Config holds all daemon configuration. Every field can be set in
// config.toml and overridden by its environment variable.
type Config struct {
	Profile   ProfileConfig   `toml:"profile"`
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Remote    RemoteConfig    `toml:"remote"`
	Persist   PersistConfig   `toml:"persist"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ProfileConfig identifies the profile this engine tracks.
type ProfileConfig struct {
	ID        string `toml:"id" env:"SQUADXP_PROFILE_ID"`
	Namespace string `toml:"namespace" env:"SQUADXP_NAMESPACE"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host" env:"SQUADXP_API_HOST"`
	Port        int      `toml:"port" env:"SQUADXP_API_PORT"`
	CORSOrigins []string `toml:"cors_origins" env:"SQUADXP_CORS_ORIGINS" envSeparator:","`
}

// StorageConfig controls the local snapshot store.
type StorageConfig struct {
	Dir string `toml:"dir" env:"SQUADXP_STORAGE_DIR"`
}

// RemoteConfig controls the authoritative profile database.
type RemoteConfig struct {
	Enabled      bool   `toml:"enabled" env:"SQUADXP_REMOTE_ENABLED"`
	DSN          string `toml:"dsn" env:"SQUADXP_REMOTE_DSN"`
	SyncInterval string `toml:"sync_interval" env:"SQUADXP_REMOTE_SYNC_INTERVAL"`
}

// PersistConfig controls retries of failed snapshot writes.
type PersistConfig struct {
	MaxRetries    int    `toml:"max_retries" env:"SQUADXP_PERSIST_MAX_RETRIES"`
	BaseDelay     string `toml:"base_delay" env:"SQUADXP_PERSIST_BASE_DELAY"`
	MaxDelay      string `toml:"max_delay" env:"SQUADXP_PERSIST_MAX_DELAY"`
	RetryInterval string `toml:"retry_interval" env:"SQUADXP_PERSIST_RETRY_INTERVAL"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" env:"SQUADXP_PROMETHEUS"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level" env:"SQUADXP_LOG_LEVEL"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Profile: ProfileConfig{
			Namespace: domain.SnapshotNamespace,
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir: squadxpHome(),
		},
		Remote: RemoteConfig{
			Enabled:      false,
			SyncInterval: "5m",
		},
		Persist: PersistConfig{
			MaxRetries:    5,
			BaseDelay:     "1s",
			MaxDelay:      "1m",
			RetryInterval: "1s",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from $SQUADXP_HOME/config.toml over the defaults,
// loads .env files, then applies environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Existing environment variables win over .env entries.
	for _, f := range []string{".env", filepath.Join(squadxpHome(), ".env")} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Storage.Dir == "" {
		return errors.New("storage.dir must be set")
	}
	if c.Remote.Enabled && c.Remote.DSN == "" {
		return fmt.Errorf("remote.enabled requires remote.dsn: %w", domain.ErrRemoteDisabled)
	}
	for name, v := range map[string]string{
		"remote.sync_interval":   c.Remote.SyncInterval,
		"persist.base_delay":     c.Persist.BaseDelay,
		"persist.max_delay":      c.Persist.MaxDelay,
		"persist.retry_interval": c.Persist.RetryInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// SaveConfig writes the config to $SQUADXP_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(squadxpHome(), "config.toml")
}

// squadxpHome returns the squadxp data directory.
func squadxpHome() string {
	if env := os.Getenv("SQUADXP_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".squadxp")
}

// Home is exported for use by other packages.
func Home() string {
	return squadxpHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
