package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/memstore"
)

type fixture struct {
	db      *memstore.DB
	svc     *inventory.Service
	ctx     context.Context
	adminID id.ID
	store   *catalog.Store
	room    entity.Location
	rack    entity.Location
	product *catalog.Product
}

func newFixture(t *testing.T, policy inventory.AlertPolicy) *fixture {
	t.Helper()
	db := memstore.New()
	f := &fixture{db: db, adminID: id.New()}
	f.ctx = appctx.WithUser(context.Background(), &appctx.UserContext{UserID: f.adminID, Role: appctx.RoleAdmin})

	cat := db.Catalog()
	f.store = &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: f.adminID, IsActive: true}
	require.NoError(t, cat.CreateStore(f.ctx, f.store))

	room := &catalog.StorageLocation{BaseEntity: entity.NewBaseEntity(), Kind: entity.LocationRoom, StoreID: f.store.ID, Name: "Back room"}
	require.NoError(t, cat.CreateLocation(f.ctx, room))
	rack := &catalog.StorageLocation{BaseEntity: entity.NewBaseEntity(), Kind: entity.LocationRack, StoreID: f.store.ID, RoomID: &room.ID, Name: "Rack A"}
	require.NoError(t, cat.CreateLocation(f.ctx, rack))
	f.room, f.rack = room.Location(), rack.Location()

	f.product = f.newProduct(t, "SKU-1")
	f.svc = inventory.NewService(db.Inventory(), cat, db, db.Outbox(), policy)
	return f
}

func (f *fixture) newProduct(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		BaseEntity:        entity.NewBaseEntity(),
		Name:              "Milk " + sku,
		SKU:               sku,
		AdminID:           f.adminID,
		UnitPrice:         types.MustMoney("2.50"),
		ThresholdQuantity: catalog.DefaultThresholdQuantity,
		IsActive:          true,
	}
	require.NoError(t, f.db.Catalog().CreateProduct(f.ctx, p))
	return p
}

// seedEntry stores an entry with quantity directly, bypassing the log.
func (f *fixture) seedEntry(t *testing.T, product *catalog.Product, loc entity.Location, qty, reorder int64) *inventory.StockEntry {
	t.Helper()
	e := inventory.NewStockEntry(inventory.EntryKey{ProductID: product.ID, StoreID: f.store.ID, Location: loc}, reorder)
	e.Quantity = qty
	got, err := f.db.Inventory().EnsureEntryForUpdate(f.ctx, e)
	require.NoError(t, err)
	return got
}

func (f *fixture) quantity(t *testing.T, entryID id.ID) int64 {
	t.Helper()
	e, err := f.db.Inventory().GetEntry(f.ctx, entryID)
	require.NoError(t, err)
	return e.Quantity
}

func (f *fixture) as(role appctx.Role, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}
