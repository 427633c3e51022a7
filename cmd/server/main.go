// Package main is the entry point for the stockroom API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockroom/internal/config"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/storage/memstore"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

var version = "dev"

func main() {
	memory := flag.Bool("memory", false, "run on the in-memory store instead of PostgreSQL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Service:     "stockroom-server",
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting stockroom server", "version", version, "memory", *memory)

	var (
		b           backend
		db          *postgres.Pool
		idempotency *postgres.IdempotencyStore
	)
	if *memory {
		if err := cfg.ValidateAuth(); err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}
		b = memoryBackend(memstore.New())
	} else {
		if err := cfg.Validate(); err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns
		poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
		poolCfg.LockTimeout = cfg.Database.LockTimeout
		poolCfg.StatementTimeout = cfg.Database.StatementTimeout

		db, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer db.Close()
		log.Info("database connection established")

		txManager := postgres.NewTxManager(db)
		if b, err = postgresBackend(txManager); err != nil {
			log.Fatalw("failed to build storage", "error", err)
		}
		idempotency = postgres.NewIdempotencyStore(txManager, cfg.Server.IdempotencyTTL)
	}

	routerCfg, err := services(b, cfg)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}
	routerCfg.Logger = log
	routerCfg.Version = version
	// Interface fields stay nil in memory mode.
	if db != nil {
		routerCfg.DB = db
		routerCfg.Idempotency = idempotency
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
