// Package postgres holds the pgx pool, the transaction manager and the
// cross-cutting tables (outbox, history, idempotency keys).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockroom/pkg/logger"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	DSN               string
	ApplicationName   string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// LockTimeout bounds how long a session waits for a row lock, so a
	// stuck SELECT ... FOR UPDATE on a stock entry or credit row fails
	// instead of queueing every writer behind it. Zero leaves the server
	// default.
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultPoolConfig returns defaults sized for a single API instance.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:               dsn,
		ApplicationName:   "stockroom",
		MaxConns:          20,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		LockTimeout:       5 * time.Second,
		StatementTimeout:  30 * time.Second,
	}
}

// sessionSettings returns the set_config pairs applied to every new
// connection.
func (c PoolConfig) sessionSettings() [][2]string {
	settings := [][2]string{{"application_name", c.ApplicationName}}
	if c.ApplicationName == "" {
		settings[0][1] = "stockroom"
	}
	if c.LockTimeout > 0 {
		settings = append(settings, [2]string{"lock_timeout", fmt.Sprintf("%dms", c.LockTimeout.Milliseconds())})
	}
	if c.StatementTimeout > 0 {
		settings = append(settings, [2]string{"statement_timeout", fmt.Sprintf("%dms", c.StatementTimeout.Milliseconds())})
	}
	return settings
}

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// Close closes all connections in the pool.
func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// NewPool connects and pings the database.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	settings := cfg.sessionSettings()
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for _, kv := range settings {
			if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", kv[0], kv[1]); err != nil {
				return fmt.Errorf("set %s: %w", kv[0], err)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// PoolStats is a snapshot of pool usage.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	IdleConns       int32  `json:"idleConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	stat := p.Stat()
	return PoolStats{
		TotalConns:      stat.TotalConns(),
		AcquiredConns:   stat.AcquiredConns(),
		IdleConns:       stat.IdleConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// LogStats logs pool statistics at debug level, or warn when every
// connection is acquired.
func (p *Pool) LogStats(ctx context.Context) {
	stats := p.Stats()
	kv := []any{
		"total", stats.TotalConns,
		"acquired", stats.AcquiredConns,
		"idle", stats.IdleConns,
		"max", stats.MaxConns,
		"acquire_count", stats.AcquireCount,
		"acquire_duration", stats.AcquireDuration,
	}
	if stats.MaxConns > 0 && stats.AcquiredConns >= stats.MaxConns {
		logger.Warn(ctx, "database pool exhausted", kv...)
		return
	}
	logger.Debug(ctx, "database pool stats", kv...)
}
