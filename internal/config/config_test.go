package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALERT_DEDUP", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.False(t, cfg.Inventory.AlertDedup)
	assert.Empty(t, cfg.Credit.Policy)
	assert.Empty(t, cfg.Notify.WebhookURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stockroom")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("ALERT_DEDUP", "true")
	t.Setenv("CREDIT_POLICY", "  current + amount <= limit ")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int32(40), cfg.Database.MaxConns)
	assert.True(t, cfg.Inventory.AlertDedup)
	assert.Equal(t, "current + amount <= limit", cfg.Credit.Policy)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("WORKER_POLL_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{MaxConns: 2, MinConns: 5}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_MIN_CONNS")

	cfg.JWT.Secret = "x"
	assert.NoError(t, cfg.ValidateAuth())
}
