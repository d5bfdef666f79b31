// Package config loads the bridge's runtime configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration. Everything has a workable
// default except the at-rest secret, which is deliberately optional: a
// missing or malformed AVB_SECRET means sessions persist unencrypted.
type Config struct {
	Host          string `env:"AVB_HOST" envDefault:"127.0.0.1"`
	Port          int    `env:"AVB_PORT" envDefault:"3100"`
	DataDir       string `env:"AVB_DATA_DIR" envDefault:"./data"`
	SessionFile   string `env:"AVB_SESSION_FILE"`
	SettingsFile  string `env:"AVB_SETTINGS_FILE"`
	SecretHex     string `env:"AVB_SECRET"`
	UpstreamURL   string `env:"AVB_UPSTREAM_URL"`
	UserAgent     string `env:"AVB_USER_AGENT"`
	AllowedOrigin string `env:"AVB_ALLOWED_ORIGIN"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in first when present; real environment
// variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = filepath.Join(cfg.DataDir, "sessions.json")
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = filepath.Join(cfg.DataDir, "settings.db")
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
