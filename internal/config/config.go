// Package config loads process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Credit    CreditConfig
	Inventory InventoryConfig
	Worker    WorkerConfig
	Notify    NotifyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	IdempotencyTTL  time.Duration
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// CreditConfig holds the optional credit-limit rule. An empty Policy
// leaves limits advisory.
type CreditConfig struct {
	Policy string
}

// InventoryConfig holds alert settings.
type InventoryConfig struct {
	AlertDedup bool
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	CleanupInterval time.Duration
	RetainProcessed time.Duration
}

// NotifyConfig holds event delivery settings. An empty WebhookURL
// delivers to the log only.
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Load reads the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("APP_PORT", "8080"),
			Environment:     getEnv("APP_ENV", "development"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			IdempotencyTTL:  getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns:         int32(getEnvInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:  getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime:  getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			LockTimeout:      getEnvDuration("DB_LOCK_TIMEOUT", 5*time.Second),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Credit: CreditConfig{
			Policy: strings.TrimSpace(getEnv("CREDIT_POLICY", "")),
		},
		Inventory: InventoryConfig{
			AlertDedup: getEnvBool("ALERT_DEDUP", false),
		},
		Worker: WorkerConfig{
			PollInterval:    getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
			BatchSize:       getEnvInt("WORKER_BATCH_SIZE", 100),
			MaxAttempts:     getEnvInt("WORKER_MAX_ATTEMPTS", 10),
			CleanupInterval: getEnvDuration("WORKER_CLEANUP_INTERVAL", time.Hour),
			RetainProcessed: getEnvDuration("WORKER_RETAIN_PROCESSED", 7*24*time.Hour),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
	}
	return cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate checks the settings a PostgreSQL-backed process needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if err := c.ValidateAuth(); err != nil {
		errs = append(errs, err)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

// ValidateAuth checks the token settings alone, for the in-memory mode.
func (c *Config) ValidateAuth() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
