// Package config loads reelreviews settings from RR_* environment variables
// layered over the CLI config file.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/evcraddock/reelreviews/internal/localstore"
)

// DefaultServerURL is used when neither the environment nor the config file
// names a review server.
const DefaultServerURL = "http://localhost:8080"

// Config holds runtime configuration for both the CLI and the server.
type Config struct {
	// Review server, layered over the config file.
	ServerURL string `env:"RR_SERVER_URL"`
	APIKey    string `env:"RR_API_KEY"`

	ReadTimeout  time.Duration `env:"RR_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"RR_WRITE_TIMEOUT" envDefault:"15s"`

	RetryBase time.Duration `env:"RR_RETRY_BASE" envDefault:"5s"`
	RetryMax  int           `env:"RR_RETRY_MAX" envDefault:"3"`

	ProbeInterval time.Duration `env:"RR_PROBE_INTERVAL" envDefault:"5s"`
	ProbeTimeout  time.Duration `env:"RR_PROBE_TIMEOUT" envDefault:"3s"`
	ProbeFailures uint32        `env:"RR_PROBE_FAILURES" envDefault:"2"`

	// Local cache
	CacheBackend string `env:"RR_CACHE_BACKEND" envDefault:"sqlite"`
	CachePath    string `env:"RR_CACHE_PATH"`
	RedisAddr    string `env:"RR_REDIS_ADDR" envDefault:"localhost:6379"`

	CatalogURL string `env:"RR_CATALOG_URL" envDefault:"https://yts.mx/api/v2"`

	// Review server (rr serve)
	Port         int    `env:"RR_PORT" envDefault:"8080"`
	ServerDBPath string `env:"RR_SERVER_DB"`

	LogLevel string `env:"RR_LOG_LEVEL" envDefault:"info"`
	DevMode  bool   `env:"RR_DEV_MODE"`
}

// Load reads the config file, then the environment. Environment values win
// over file values, which win over defaults.
func Load() (*Config, error) {
	file, err := LoadFile()
	if err != nil {
		return nil, err
	}
	return load(file)
}

func load(file File) (*Config, error) {
	cfg := &Config{
		ServerURL: file.ServerURL,
		APIKey:    file.APIKey,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server URL: %q", c.ServerURL)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive: read=%s write=%s", c.ReadTimeout, c.WriteTimeout)
	}
	if c.RetryBase <= 0 {
		return fmt.Errorf("RR_RETRY_BASE must be positive: %s", c.RetryBase)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RR_RETRY_MAX must not be negative: %d", c.RetryMax)
	}
	if c.ProbeInterval <= 0 || c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe interval and timeout must be positive")
	}
	if c.ProbeFailures == 0 {
		return fmt.Errorf("RR_PROBE_FAILURES must be at least 1")
	}
	switch c.CacheBackend {
	case localstore.BackendSQLite, localstore.BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend: %q", c.CacheBackend)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Port)
	}
	return nil
}
