// Package config loads runtime settings for the avada binary.
//
// Environment variables supply defaults; command-line flags bound by the CLI
// override them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting.
type Config struct {
	DB           string        `env:"AVADA_DB"            envDefault:"avada.db"`
	Catalog      string        `env:"AVADA_CATALOG"`
	Addr         string        `env:"AVADA_ADDR"          envDefault:"localhost:8080"`
	SessionTTL   time.Duration `env:"AVADA_SESSION_TTL"   envDefault:"5m"`
	LogLevel     string        `env:"AVADA_LOG_LEVEL"     envDefault:"info"`
	LogFormat    string        `env:"AVADA_LOG_FORMAT"    envDefault:"text"`
	Seed         uint64        `env:"AVADA_SEED"`
	OTelEndpoint string        `env:"AVADA_OTEL_ENDPOINT"`
	OTelEnabled  bool          `env:"AVADA_OTEL_ENABLED"  envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseEnvWith loads configuration from the given variables instead of the
// process environment.
func ParseEnvWith(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks enum values and durations.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q: want debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want text or json", c.LogFormat))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl %s: must be positive", c.SessionTTL))
	}
	return errors.Join(errs...)
}

// TracingEnabled reports whether spans should be exported.
func (c Config) TracingEnabled() bool {
	return c.OTelEnabled && strings.TrimSpace(c.OTelEndpoint) != ""
}
