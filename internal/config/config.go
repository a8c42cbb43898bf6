package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
	Scripts ScriptsConfig `toml:"scripts"`
	Editor  EditorConfig  `toml:"editor"`
}

type StoreConfig struct {
	Backend         string        `toml:"backend" env:"STATENGINE_STORE_BACKEND"` // "sqlite" or "postgres"
	DSN             string        `toml:"dsn" env:"STATENGINE_STORE_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"STATENGINE_STORE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"STATENGINE_STORE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"STATENGINE_STORE_CONN_MAX_LIFETIME"`
}

type LoggingConfig struct {
	Level      string `toml:"level" env:"STATENGINE_LOG_LEVEL"`
	Format     string `toml:"format" env:"STATENGINE_LOG_FORMAT"` // "json" or "console"
	File       string `toml:"file" env:"STATENGINE_LOG_FILE"`     // empty = console only
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type ScriptsConfig struct {
	Dir     string `toml:"dir" env:"STATENGINE_SCRIPTS_DIR"`
	Enabled bool   `toml:"enabled" env:"STATENGINE_SCRIPTS_ENABLED"`
}

type EditorConfig struct {
	EditRetries    int `toml:"edit_retries" env:"STATENGINE_EDIT_RETRIES"`
	MigrateWorkers int `toml:"migrate_workers" env:"STATENGINE_MIGRATE_WORKERS"`
}

// Load reads the TOML file at path over the defaults, then applies
// STATENGINE_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables. Unset variables
// leave the target untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store backend %q: want sqlite or postgres", c.Store.Backend)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store dsn is empty")
	}
	if c.Editor.EditRetries < 1 {
		return fmt.Errorf("editor edit_retries must be at least 1")
	}
	if c.Editor.MigrateWorkers < 1 {
		return fmt.Errorf("editor migrate_workers must be at least 1")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:         "sqlite",
			DSN:             "statengine.db",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Scripts: ScriptsConfig{
			Dir:     "scripts",
			Enabled: true,
		},
		Editor: EditorConfig{
			EditRetries:    3,
			MigrateWorkers: 4,
		},
	}
}
