package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CREDENTIAL_TOKEN_LENGTH", "")
	t.Setenv("CREDENTIAL_TIMEZONE", "")
	t.Setenv("CREDENTIAL_SWEEP_INTERVAL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Credential.TokenLength)
	assert.Equal(t, 5, cfg.Credential.MaxTokenAttempts)
	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Credential.CacheTTL())
	assert.Zero(t, cfg.Credential.SweepInterval())
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)

	loc, err := cfg.Credential.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsShortTokens(t *testing.T) {
	t.Setenv("CREDENTIAL_TOKEN_LENGTH", "8")

	_, err := Load()
	assert.ErrorContains(t, err, "CREDENTIAL_TOKEN_LENGTH")
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("CREDENTIAL_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.ErrorContains(t, err, "CREDENTIAL_TIMEZONE")
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("CREDENTIAL_TIMEZONE", "Asia/Kolkata")
	t.Setenv("CREDENTIAL_SWEEP_INTERVAL_SECONDS", "60")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Credential.SweepInterval())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
}
