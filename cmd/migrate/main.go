// Package main applies the embedded schema migrations.
//
//	migrate            apply every pending migration
//	migrate -down      roll back the latest applied migration
//	migrate -status    list migrations and whether they are applied
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/config"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/migrations"
	"stockroom/pkg/logger"
)

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
	status := flag.Bool("status", false, "print migration status and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{
		Service:     "stockroom-migrate",
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

	ctx := logger.WithLogger(context.Background(), log)

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.ApplicationName = "stockroom-migrate"
	poolCfg.MaxConns = 1
	poolCfg.MinConns = 0
	poolCfg.StatementTimeout = 0
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", logger.Err(err))
	}
	defer pool.Close()

	m := &migrator{txManager: postgres.NewTxManager(pool), log: log}
	switch {
	case *status:
		err = m.status(ctx)
	case *down:
		err = m.down(ctx)
	default:
		err = m.up(ctx)
	}
	if err != nil {
		log.Fatalw("migration failed", logger.Err(err))
	}
}

type migrator struct {
	txManager *postgres.TxManager
	log       *logger.Logger
}

func (m *migrator) applied(ctx context.Context) ([]int, error) {
	q := m.txManager.GetQuerier(ctx)
	if _, err := q.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	var versions []int
	if err := pgxscan.Select(ctx, q, &versions, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// up applies each pending migration in its own transaction.
func (m *migrator) up(ctx context.Context) error {
	all, err := migrations.All()
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	pending := migrations.Pending(all, applied)
	for _, mig := range pending {
		err := m.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			q := m.txManager.GetQuerier(ctx)
			if _, err := q.Exec(ctx, mig.Up); err != nil {
				return err
			}
			_, err := q.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %04d_%s: %w", mig.Version, mig.Name, err)
		}
		m.log.Infow("migration applied", "version", mig.Version, "name", mig.Name)
	}
	if len(pending) == 0 {
		m.log.Info("schema is up to date")
	}
	return nil
}

// down rolls back the latest applied migration.
func (m *migrator) down(ctx context.Context) error {
	all, err := migrations.All()
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		m.log.Info("nothing to roll back")
		return nil
	}

	latest := applied[len(applied)-1]
	idx := slices.IndexFunc(all, func(mig migrations.Migration) bool { return mig.Version == latest })
	if idx < 0 {
		return fmt.Errorf("applied migration %04d is not embedded in this binary", latest)
	}
	mig := all[idx]
	if mig.Down == "" {
		return fmt.Errorf("migration %04d_%s has no down file", mig.Version, mig.Name)
	}

	err = m.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := m.txManager.GetQuerier(ctx)
		if _, err := q.Exec(ctx, mig.Down); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
		return err
	})
	if err != nil {
		return fmt.Errorf("roll back %04d_%s: %w", mig.Version, mig.Name, err)
	}
	m.log.Infow("migration rolled back", "version", mig.Version, "name", mig.Name)
	return nil
}

func (m *migrator) status(ctx context.Context) error {
	all, err := migrations.All()
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	for _, mig := range all {
		state := "pending"
		if slices.Contains(applied, mig.Version) {
			state = "applied"
		}
		fmt.Printf("%04d_%-30s %s\n", mig.Version, mig.Name, state)
	}
	return nil
}
