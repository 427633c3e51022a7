package main

import (
	"context"
	"fmt"

	"stockroom/internal/config"
	"stockroom/internal/core/history"
	corenumerator "stockroom/internal/core/numerator"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/domain/reports"
	"stockroom/internal/domain/ticket"
	v1 "stockroom/internal/infrastructure/http/v1"
	"stockroom/internal/infrastructure/storage/memstore"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/auth_repo"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/internal/infrastructure/storage/postgres/document_repo"
	"stockroom/internal/infrastructure/storage/postgres/register_repo"
	"stockroom/internal/infrastructure/storage/postgres/report_repo"
	"stockroom/pkg/numerator"
)

// backend is the storage a server instance runs on.
type backend struct {
	txManager    tx.Manager
	users        auth.UserRepository
	catalog      catalog.Repository
	inventory    inventory.Repository
	credit       credit.Repository
	invoices     invoice.Repository
	tickets      ticket.Repository
	expenditures expenditure.Repository
	reports      reports.Repository
	events       outbox.Publisher
	history      history.Recorder
	numerator    corenumerator.Generator
}

func memoryBackend(db *memstore.DB) backend {
	return backend{
		txManager:    db,
		users:        db.Users(),
		catalog:      db.Catalog(),
		inventory:    db.Inventory(),
		credit:       db.Credit(),
		invoices:     db.Invoices(),
		tickets:      db.Tickets(),
		expenditures: db.Expenditures(),
		reports:      db.Reports(),
		events:       db.Outbox(),
		history:      db.History(),
		numerator:    &corenumerator.MockGenerator{},
	}
}

func postgresBackend(txManager *postgres.TxManager) (backend, error) {
	recorder, err := postgres.NewHistoryRecorder(txManager)
	if err != nil {
		return backend{}, fmt.Errorf("history recorder: %w", err)
	}
	return backend{
		txManager:    txManager,
		users:        auth_repo.NewUserRepo(txManager),
		catalog:      catalog_repo.NewCatalogRepo(txManager),
		inventory:    register_repo.NewInventoryRepo(txManager),
		credit:       catalog_repo.NewCreditRepo(txManager),
		invoices:     document_repo.NewInvoiceRepo(txManager),
		tickets:      document_repo.NewTicketRepo(txManager),
		expenditures: document_repo.NewExpenditureRepo(txManager),
		reports:      report_repo.NewReportRepo(txManager),
		events:       postgres.NewOutboxPublisher(txManager),
		history:      recorder,
		numerator: numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
			return txManager.GetQuerier(ctx)
		}),
	}, nil
}

// creditPolicy compiles CREDIT_POLICY. Empty keeps limits advisory.
func creditPolicy(cfg config.CreditConfig) (credit.Policy, error) {
	if cfg.Policy == "" {
		return nil, nil
	}
	policy, err := credit.NewCELPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// services builds the domain services over b.
func services(b backend, cfg *config.Config) (v1.RouterConfig, error) {
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	jwtService := auth.NewJWTService(jwtConfig)

	policy, err := creditPolicy(cfg.Credit)
	if err != nil {
		return v1.RouterConfig{}, err
	}

	authService := auth.NewService(b.users, b.txManager, jwtService, auth.DefaultServiceConfig())
	catalogService := catalog.NewService(b.catalog, b.users, b.txManager, b.history)
	inventoryService := inventory.NewService(b.inventory, b.catalog, b.txManager, b.events,
		inventory.AlertPolicy{Deduplicate: cfg.Inventory.AlertDedup})
	ledger := credit.NewLedger(b.credit, b.txManager, policy)

	return v1.RouterConfig{
		JWTValidator: jwtService,
		Auth:         authService,
		Catalog:      catalogService,
		Inventory:    inventoryService,
		Invoices: invoice.NewService(invoice.Deps{
			Repo:      b.invoices,
			Catalog:   b.catalog,
			Stock:     inventoryService,
			Ledger:    ledger,
			Numerator: b.numerator,
			TxManager: b.txManager,
			Events:    b.events,
			History:   b.history,
		}),
		Tickets:      ticket.NewService(b.tickets, b.catalog, b.numerator, b.txManager, b.events, b.history),
		Expenditures: expenditure.NewService(b.expenditures, b.txManager, b.history),
		Reports:      reports.NewService(b.reports, b.catalog),
	}, nil
}
