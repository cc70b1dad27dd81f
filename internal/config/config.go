// Package config loads the process-wide configuration, once, at startup.
//
// Everything auth-sensitive (signing secret, token TTL, strategy choice) is
// read here and passed down explicitly — no package reads an environment
// variable ad hoc, so the running process has exactly one, immutable view
// of its configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Auth strategies selectable per deployment. Exactly one is active; the
// code paths never mix.
const (
	StrategyJWT     = "jwt"
	StrategySession = "session"
)

// Config is the full server configuration, populated from TASKBOARD_*
// environment variables by envconfig.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	DBPath      string `envconfig:"DB_PATH" default:"data/taskboard.db"`
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:"web/templates"`
	StaticDir   string `envconfig:"STATIC_DIR" default:"web/static"`

	// AuthStrategy picks the token implementation: "jwt" (stateless,
	// unrevocable) or "session" (Redis-backed, revocable).
	AuthStrategy string `envconfig:"AUTH_STRATEGY" default:"jwt"`

	// AuthSecret signs JWTs. Required for the jwt strategy; at least 16
	// characters, ideally $(openssl rand -hex 32).
	AuthSecret string `envconfig:"AUTH_SECRET"`

	// TokenTTL is the assertion validity window. 24h keeps a browser
	// session alive for a working day; shorten it for stricter setups.
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// RedisAddr is the session store address. Required for the session
	// strategy, ignored by the jwt strategy.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
}

// Load reads the configuration from the environment and validates the
// parts whose absence would otherwise only surface at the first login.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("taskboard", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.AuthStrategy {
	case StrategyJWT:
		if cfg.AuthSecret == "" {
			return nil, errors.New("config: TASKBOARD_AUTH_SECRET is required for the jwt strategy")
		}
	case StrategySession:
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: TASKBOARD_REDIS_ADDR is required for the session strategy")
		}
	default:
		return nil, fmt.Errorf("config: unknown auth strategy %q (want %q or %q)",
			cfg.AuthStrategy, StrategyJWT, StrategySession)
	}

	if cfg.TokenTTL <= 0 {
		return nil, errors.New("config: TASKBOARD_TOKEN_TTL must be positive")
	}

	return &cfg, nil
}
