// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"stockroom/internal/config"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/internal/infrastructure/storage/postgres/auth_repo"
	"stockroom/internal/infrastructure/storage/postgres/catalog_repo"
	"stockroom/internal/infrastructure/storage/postgres/register_repo"
	"stockroom/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Service:     "stockroom-seed",
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := appctx.WithTrace(context.Background(), appctx.NewTrace(appctx.OriginSeed))
	ctx = logger.WithLogger(ctx, log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	users := auth_repo.NewUserRepo(txManager)
	authService := auth.NewService(users, txManager, auth.NewJWTService(auth.DefaultJWTConfig("seed")), auth.DefaultServiceConfig())

	email := getEnv("SUPERADMIN_EMAIL", "superadmin@stockroom.local")
	created, err := authService.EnsureSuperadmin(ctx,
		getEnv("SUPERADMIN_NAME", "Super Admin"),
		email,
		getEnv("SUPERADMIN_PASSWORD", "ChangeMe123!"),
	)
	if err != nil {
		log.Fatalw("failed to seed superadmin", "error", err)
	}
	if !created {
		log.Infow("superadmin already exists", "email", email)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		superadmin, err := users.GetByEmail(ctx, email)
		if err != nil {
			log.Fatalw("failed to load superadmin", "error", err)
		}
		if err := seedDemoData(ctx, txManager, authService, superadmin, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDemoData creates an admin with one stocked store. It acts through
// the services so every row carries its history and ownership.
func seedDemoData(ctx context.Context, txManager *postgres.TxManager, authService *auth.Service, superadmin *auth.User, log *logger.Logger) error {
	log.Info("seeding demo data...")

	admin, err := authService.CreateUser(appctx.WithUser(ctx, superadmin.Context()), auth.CreateUserRequest{
		Name:     "Demo Admin",
		Email:    getEnv("DEMO_ADMIN_EMAIL", "admin@stockroom.local"),
		Password: getEnv("DEMO_ADMIN_PASSWORD", "Admin123!"),
		Role:     appctx.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create demo admin: %w", err)
	}
	ctx = appctx.WithUser(ctx, admin.Context())

	recorder, err := postgres.NewHistoryRecorder(txManager)
	if err != nil {
		return err
	}
	catalogRepo := catalog_repo.NewCatalogRepo(txManager)
	catalogService := catalog.NewService(catalogRepo, auth_repo.NewUserRepo(txManager), txManager, recorder)
	stock := inventory.NewService(register_repo.NewInventoryRepo(txManager), catalogRepo, txManager,
		postgres.NewOutboxPublisher(txManager), inventory.AlertPolicy{})

	store, err := catalogService.CreateStore(ctx, catalog.CreateStoreRequest{
		Name:        "Central Store",
		Address:     "1 Market Street",
		CreditLimit: types.MustMoney("50000"),
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	room, err := catalogService.CreateLocation(ctx, catalog.CreateLocationRequest{
		Kind:     entity.LocationRoom,
		StoreID:  store.ID,
		Name:     "Main Room",
		Number:   "R-1",
		Capacity: 1000,
	})
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	category, err := catalogService.CreateCategory(ctx, "Beverages", "Soft drinks and water")
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	products := []struct {
		name, sku, price string
		quantity         int64
	}{
		{"Still Water 1L", "BEV-001", "0.80", 240},
		{"Orange Juice 1L", "BEV-002", "2.40", 60},
		{"Cola 0.5L", "BEV-003", "1.20", 8},
	}
	for _, p := range products {
		product, err := catalogService.CreateProduct(ctx, catalog.CreateProductRequest{
			Name:       p.name,
			SKU:        p.sku,
			CategoryID: &category.ID,
			UnitPrice:  types.MustMoney(p.price),
		})
		if err != nil {
			return fmt.Errorf("create product %s: %w", p.sku, err)
		}
		if _, err := stock.Receive(ctx, inventory.ReceiveRequest{
			StoreID:      store.ID,
			ProductID:    product.ID,
			Location:     room.Location(),
			Quantity:     p.quantity,
			ReorderLevel: product.ThresholdQuantity,
			Reason:       "initial stock",
		}); err != nil {
			return fmt.Errorf("receive %s: %w", p.sku, err)
		}
	}

	log.Infow("demo data seeded", "admin", admin.Email, "store_id", store.ID, "products", len(products))
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
