package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
)

type fakeRepo struct {
	totals   InventoryTotals
	credit   []CreditRow
	sales    []SalesRow
	location []LocationStock
	scope    security.AccessScope
}

func (f *fakeRepo) InventoryTotals(_ context.Context, scope security.AccessScope) (InventoryTotals, error) {
	f.scope = scope
	return f.totals, nil
}

func (f *fakeRepo) CategoryBreakdown(context.Context, security.AccessScope) ([]Breakdown, error) {
	return []Breakdown{{ID: id.New(), Name: "Dairy", ItemCount: 2}}, nil
}

func (f *fakeRepo) StoreBreakdown(context.Context, security.AccessScope) ([]Breakdown, error) {
	return nil, nil
}

func (f *fakeRepo) CreditRows(_ context.Context, scope security.AccessScope) ([]CreditRow, error) {
	f.scope = scope
	return f.credit, nil
}

func (f *fakeRepo) SalesByDay(_ context.Context, filter SalesFilter) ([]SalesRow, error) {
	f.scope = filter.Scope
	return f.sales, nil
}

func (f *fakeRepo) LocationStock(context.Context, id.ID) ([]LocationStock, error) {
	return f.location, nil
}

type fakeStores struct {
	store *catalog.Store
}

func (f fakeStores) GetStore(_ context.Context, storeID id.ID) (*catalog.Store, error) {
	if f.store == nil || f.store.ID != storeID {
		return nil, apperror.NewNotFound("store", storeID)
	}
	return f.store, nil
}

func (fakeStores) GetOutlet(_ context.Context, outletID id.ID) (*catalog.Outlet, error) {
	return nil, apperror.NewNotFound("outlet", outletID)
}

func (fakeStores) GetProduct(_ context.Context, productID id.ID) (*catalog.Product, error) {
	return nil, apperror.NewNotFound("product", productID)
}

func (fakeStores) GetLocation(_ context.Context, locationID id.ID) (*catalog.StorageLocation, error) {
	return nil, apperror.NewNotFound("location", locationID)
}

func asUser(role appctx.Role) (context.Context, id.ID) {
	uid := id.New()
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: uid, Role: role}), uid
}

func TestInventorySummary_HealthPercentage(t *testing.T) {
	repo := &fakeRepo{totals: InventoryTotals{
		TotalItems:      8,
		TotalQuantity:   120,
		TotalValue:      types.MustMoney("340.50"),
		LowStockItems:   1,
		OutOfStockItems: 1,
	}}
	svc := NewService(repo, fakeStores{})
	ctx, uid := asUser(appctx.RoleAdmin)

	summary, err := svc.InventorySummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 75.0, summary.HealthPercentage)
	assert.Len(t, summary.CategoryBreakdown, 1)
	require.NotNil(t, repo.scope.AdminID)
	assert.Equal(t, uid, *repo.scope.AdminID)
}

func TestInventorySummary_Empty(t *testing.T) {
	svc := NewService(&fakeRepo{}, fakeStores{})
	ctx, _ := asUser(appctx.RoleSuperadmin)

	summary, err := svc.InventorySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.HealthPercentage)
}

func TestCreditReport(t *testing.T) {
	storeA, storeB := id.New(), id.New()
	repo := &fakeRepo{credit: []CreditRow{
		{Kind: credit.AccountStore, ID: storeA, StoreID: storeA, CreditLimit: types.MustMoney("1000"), CurrentCredit: types.MustMoney("250")},
		{Kind: credit.AccountStore, ID: storeB, StoreID: storeB, CreditLimit: types.Zero(), CurrentCredit: types.MustMoney("40")},
		{Kind: credit.AccountOutlet, ID: id.New(), StoreID: storeA, CreditLimit: types.MustMoney("100"), CurrentCredit: types.MustMoney("50")},
	}}
	svc := NewService(repo, fakeStores{})
	ctx, _ := asUser(appctx.RoleSuperadmin)

	report, err := svc.CreditReport(ctx)
	require.NoError(t, err)

	require.Len(t, report.Stores, 2)
	require.Len(t, report.Outlets, 1)
	assert.Equal(t, 0.25, report.Stores[0].Utilization)
	assert.True(t, report.Stores[0].AvailableCredit.Equal(types.MustMoney("750")))
	assert.Equal(t, 0.0, report.Stores[1].Utilization)
	assert.True(t, report.Stores[1].AvailableCredit.IsZero())
	assert.Equal(t, 0.5, report.Outlets[0].Utilization)

	assert.True(t, report.TotalLimit.Equal(types.MustMoney("1000")))
	assert.True(t, report.TotalCurrent.Equal(types.MustMoney("290")))
	assert.True(t, report.TotalAvailable.Equal(types.MustMoney("750")))
	assert.Equal(t, 0.29, report.Utilization)
}

func TestSalesReport(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{sales: []SalesRow{
		{Day: day, PaymentMethod: "credit", InvoiceCount: 2, TotalAmount: types.MustMoney("200"), CreditAmount: types.MustMoney("200"), PaidAmount: types.Zero()},
		{Day: day, PaymentMethod: "paid", InvoiceCount: 1, TotalAmount: types.MustMoney("50"), CreditAmount: types.Zero(), PaidAmount: types.MustMoney("50")},
	}}
	svc := NewService(repo, fakeStores{})
	ctx, uid := asUser(appctx.RoleStoreManager)

	report, err := svc.SalesReport(ctx, SalesFilter{From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.InvoiceCount)
	assert.True(t, report.TotalAmount.Equal(types.MustMoney("250")))
	assert.True(t, report.CreditAmount.Equal(types.MustMoney("200")))
	assert.True(t, report.PaidAmount.Equal(types.MustMoney("50")))
	require.NotNil(t, repo.scope.ManagerID)
	assert.Equal(t, uid, *repo.scope.ManagerID)
}

func TestSalesReport_InvalidRange(t *testing.T) {
	svc := NewService(&fakeRepo{}, fakeStores{})
	ctx, _ := asUser(appctx.RoleAdmin)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to time.Time
	}{
		{"missing", time.Time{}, day},
		{"reversed", day, day.Add(-time.Hour)},
		{"too long", day, day.AddDate(2, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SalesReport(ctx, SalesFilter{From: tt.from, To: tt.to})
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestLocationOccupancy(t *testing.T) {
	ctx, uid := asUser(appctx.RoleAdmin)
	store := &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: uid}
	capacity := int64(50)
	zero := int64(0)
	repo := &fakeRepo{location: []LocationStock{
		{Kind: entity.LocationRoom, ID: id.New(), Name: "Back room", Capacity: &capacity, Stored: 60},
		{Kind: entity.LocationFreezer, ID: id.New(), Name: "F1", Capacity: &zero, Stored: 5},
		{Kind: entity.LocationRack, ID: id.New(), Name: "R1", Stored: 0},
	}}
	svc := NewService(repo, fakeStores{store: store})

	rows, err := svc.LocationOccupancy(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 120.0, rows[0].UsedPercentage)
	assert.True(t, rows[0].OverCapacity)
	assert.False(t, rows[1].OverCapacity)
	assert.Equal(t, 0.0, rows[2].UsedPercentage)

	otherCtx, _ := asUser(appctx.RoleAdmin)
	_, err = svc.LocationOccupancy(otherCtx, store.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))
}
