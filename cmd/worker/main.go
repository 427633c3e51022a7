// Package main is the entry point for the stockroom background worker:
// it relays outbox events to the notifier and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockroom/internal/config"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/infrastructure/notify"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Service:     "stockroom-worker",
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting stockroom worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.ApplicationName = "stockroom-worker"
	poolCfg.MaxConns = 4
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	w := &Worker{
		pool: pool,
		relay: postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize, cfg.Worker.MaxAttempts,
			notify.New(log, cfg.Notify.WebhookURL, cfg.Notify.Timeout)),
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.Server.IdempotencyTTL),
		cfg:         cfg.Worker,
		log:         log.WithComponent("worker"),
	}

	if err := w.Run(ctx); err != nil {
		log.Errorw("worker stopped with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("worker stopped")
}

// Worker runs the background loops until its context ends.
type Worker struct {
	pool        *postgres.Pool
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	cfg         config.WorkerConfig
	log         *logger.Logger
}

// Run starts the outbox and cleanup loops and waits for both.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.every(ctx, w.cfg.PollInterval, w.drainOutbox)
		return nil
	})
	g.Go(func() error {
		w.every(ctx, w.cfg.CleanupInterval, w.cleanup)
		return nil
	})
	return g.Wait()
}

func (w *Worker) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// drainOutbox processes full batches back to back until one comes
// back short.
func (w *Worker) drainOutbox(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewTrace(appctx.OriginOutbox))
	log := w.log.WithContext(ctx)
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			log.Errorw("outbox batch failed", logger.Err(err))
			return
		}
		if n > 0 {
			log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	w.pool.LogStats(ctx)

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", logger.Err(err))
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	if n, err := w.relay.PurgeProcessed(ctx, w.cfg.RetainProcessed); err != nil {
		w.log.Errorw("outbox purge failed", logger.Err(err))
	} else if n > 0 {
		w.log.Infow("purged processed outbox messages", "count", n)
	}
}
