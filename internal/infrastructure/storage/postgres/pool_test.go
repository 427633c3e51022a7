package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolConfig_SessionSettings(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/stockroom")
	cfg.ApplicationName = "stockroom-worker"
	cfg.LockTimeout = 1500 * time.Millisecond

	assert.Equal(t, [][2]string{
		{"application_name", "stockroom-worker"},
		{"lock_timeout", "1500ms"},
		{"statement_timeout", "30000ms"},
	}, cfg.sessionSettings())
}

func TestPoolConfig_SessionSettingsSkipZeroTimeouts(t *testing.T) {
	cfg := PoolConfig{DSN: "postgres://localhost/stockroom"}

	assert.Equal(t, [][2]string{{"application_name", "stockroom"}}, cfg.sessionSettings())
}
