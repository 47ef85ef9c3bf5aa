// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL wins over the discrete POSTGRES_* / PG_* keys when set.
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PGHost           string `env:"PG_HOST" envDefault:"localhost"`
	PGPort           string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase       string `env:"PG_DATABASE" envDefault:"mafia"`
	MigrateOnStart   bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// RedisAddr empty disables score event publishing.
	RedisAddr        string `env:"REDIS_ADDR"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	ScoreEventsQueue string `env:"SCORE_EVENTS_QUEUE" envDefault:"mafia_score_events"`
	LeaderboardKey   string `env:"LEADERBOARD_KEY" envDefault:"mafia_leaderboard"`

	// TokenExpireTime is "never", "0" or a Go duration.
	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
	JWTSecret       string `env:"JWT_SECRET"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.TokenTTL(); err != nil {
		return nil, err
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PostgresDSN returns the connection string for the database.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// TokenTTL returns the session lifetime; zero means tokens never expire.
func (c *Config) TokenTTL() (time.Duration, error) {
	switch strings.TrimSpace(c.TokenExpireTime) {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(c.TokenExpireTime)
	if err != nil {
		return 0, fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// Level returns the logrus level for LOG_LEVEL.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
