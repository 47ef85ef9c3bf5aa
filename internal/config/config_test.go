package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "PG_PORT", "PG_DATABASE", "MIGRATE_ON_START", "SCORE_EVENTS_QUEUE", "LEADERBOARD_KEY", "TOKEN_EXPIRE_TIME"} {
		t.Setenv(k, "")
	}
	t.Setenv("PG_HOST", "db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "postgres://postgres:@db:5432/mafia", cfg.PostgresDSN())
	assert.Equal(t, "mafia_score_events", cfg.ScoreEventsQueue)
	assert.Equal(t, "mafia_leaderboard", cfg.LeaderboardKey)
	assert.True(t, cfg.MigrateOnStart)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, lvl)
}

func TestDatabaseURLWins(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@h/db", PGHost: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", cfg.PostgresDSN())
}

func TestTokenTTL(t *testing.T) {
	cases := map[string]time.Duration{
		"":      0,
		"0":     0,
		"never": 0,
		"90m":   90 * time.Minute,
	}
	for in, want := range cases {
		got, err := (&Config{TokenExpireTime: in}).TokenTTL()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := (&Config{TokenExpireTime: "soon"}).TokenTTL()
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	_, err = Load()
	assert.Error(t, err)
}
