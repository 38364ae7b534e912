// Package config loads the profile service configuration from the
// environment, with an optional .env file for development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/carthy/go-auth"
	"github.com/joho/godotenv"
)

const (
	DefaultHTTPAddr    = ":8080"
	DefaultDSN         = "file::memory:?cache=shared"
	DefaultRedisStream = "auth:activity"
	DefaultLogLevel    = "info"
)

type AppConfig struct {
	HTTP         HTTPConfig              `envPrefix:"HTTP_"`
	DB           DBConfig                `envPrefix:"DB_"`
	Redis        RedisConfig             `envPrefix:"REDIS_"`
	Security     auth.SecurityProperties `envPrefix:"SECURITY_JWT_"`
	LogLevel     string                  `env:"LOG_LEVEL"      envDefault:"info"`
	// SeedUser creates the well known development admin at startup.
	SeedUser     bool                    `env:"SEED_USER"      envDefault:"false"`
	UseHashidIDs bool                    `env:"USE_HASHID_IDS" envDefault:"false"`
}

type HTTPConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
	// PublicPaths are extra ant patterns reachable without a token.
	PublicPaths []string `env:"PUBLIC_PATHS" envSeparator:","`
}

type DBConfig struct {
	DSN string `env:"DSN" envDefault:"file::memory:?cache=shared"`
}

// RedisConfig enables the activity stream when URL is set.
type RedisConfig struct {
	URL    string `env:"URL"`
	Stream string `env:"STREAM" envDefault:"auth:activity"`
}

// Load reads the given .env files, then parses the environment. Without
// files it tries ".env" and tolerates its absence; files passed explicitly
// must exist.
func Load(files ...string) (AppConfig, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if len(files) > 0 || !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize trims values and restores defaults for blank ones.
func (c *AppConfig) Sanitize() {
	c.HTTP.Addr = strings.TrimSpace(c.HTTP.Addr)
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}

	paths := make([]string, 0, len(c.HTTP.PublicPaths))
	for _, p := range c.HTTP.PublicPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	c.HTTP.PublicPaths = paths

	c.DB.DSN = strings.TrimSpace(c.DB.DSN)
	if c.DB.DSN == "" {
		c.DB.DSN = DefaultDSN
	}

	c.Redis.URL = strings.TrimSpace(c.Redis.URL)
	c.Redis.Stream = strings.TrimSpace(c.Redis.Stream)
	if c.Redis.Stream == "" {
		c.Redis.Stream = DefaultRedisStream
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the signing key contract and the log level.
func (c AppConfig) Validate() error {
	var errs []error
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c AppConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// RedisEnabled reports whether activity events go to a redis stream.
func (c AppConfig) RedisEnabled() bool {
	return c.Redis.URL != ""
}
