package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is read from the environment. API_KEYS is a list of key:role pairs, e.g.
// `API_KEYS=demo-key-67890:demo,ops-key:admin`; with no keys the API is left open.
type Config struct {
	HTTPAddr   string            `env:"HTTP_ADDR" envDefault:":8000"`
	APIKeys    map[string]string `env:"API_KEYS"`
	CORSOrigin string            `env:"CORS_ORIGIN" envDefault:"*"`

	AnalyzerURL     string        `env:"ANALYZER_URL"`
	AnalyzerAPIKey  string        `env:"ANALYZER_API_KEY"`
	AnalyzerTimeout time.Duration `env:"ANALYZER_TIMEOUT" envDefault:"30s"`

	Store         string        `env:"STORE" envDefault:"memory"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SeedFile      string        `env:"SEED_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG"`
}

// Load parses the environment and validates the result
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE %q; want %s or %s", c.Store, StoreMemory, StorePostgres)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Level is the parsed LOG_LEVEL; DEBUG=true forces debug
func (c *Config) Level() logrus.Level {
	if c.Debug {
		return logrus.DebugLevel
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
