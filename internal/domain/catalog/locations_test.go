package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/infrastructure/storage/memstore"
)

type fixture struct {
	db     *memstore.DB
	svc    *catalog.Service
	ctx    context.Context
	store  *catalog.Store
	outlet *catalog.Outlet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	adminID := id.New()
	f := &fixture{
		db:  db,
		svc: catalog.NewService(db.Catalog(), db.Users(), db, db.History()),
		ctx: as(appctx.RoleAdmin, adminID),
	}
	f.store = &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: adminID, IsActive: true}
	require.NoError(t, db.Catalog().CreateStore(f.ctx, f.store))

	outlet, err := f.svc.CreateOutlet(f.ctx, catalog.CreateOutletRequest{
		StoreID:     f.store.ID,
		Name:        "Kiosk",
		CreditLimit: types.MustMoney("100"),
	})
	require.NoError(t, err)
	f.outlet = outlet
	return f
}

func as(role appctx.Role, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}

func ptr[T any](v T) *T { return &v }

func TestUpdateOutlet(t *testing.T) {
	f := newFixture(t)

	updated, err := f.svc.UpdateOutlet(f.ctx, f.outlet.ID, catalog.UpdateOutletRequest{
		ContactPerson: ptr("Dana"),
		CreditLimit:   ptr(types.MustMoney("250")),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", updated.Name)
	assert.Equal(t, "Dana", updated.ContactPerson)
	assert.True(t, updated.CreditLimit.Equal(types.MustMoney("250")))

	stored, err := f.db.Catalog().GetOutlet(f.ctx, f.outlet.ID)
	require.NoError(t, err)
	assert.True(t, stored.CreditLimit.Equal(types.MustMoney("250")))
	assert.True(t, stored.CurrentCredit.IsZero())
	assert.Len(t, f.db.History().Entries(f.outlet.ID), 1)
}

func TestUpdateOutlet_Rejects(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOutlet(f.ctx, catalog.CreateOutletRequest{StoreID: f.store.ID, Name: "Cafe"})
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		req  catalog.UpdateOutletRequest
		code string
	}{
		{"duplicate name ignoring case", f.ctx, catalog.UpdateOutletRequest{Name: ptr("CAFE")}, apperror.CodeDuplicate},
		{"negative credit limit", f.ctx, catalog.UpdateOutletRequest{CreditLimit: ptr(types.MustMoney("-1"))}, apperror.CodeValidation},
		{"blank name", f.ctx, catalog.UpdateOutletRequest{Name: ptr(" ")}, apperror.CodeValidation},
		{"foreign admin", as(appctx.RoleAdmin, id.New()), catalog.UpdateOutletRequest{Phone: ptr("1")}, apperror.CodeAccessDenied},
		{"store manager", as(appctx.RoleStoreManager, id.New()), catalog.UpdateOutletRequest{Phone: ptr("1")}, apperror.CodeAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateOutlet(tt.ctx, f.outlet.ID, tt.req)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	stored, err := f.db.Catalog().GetOutlet(f.ctx, f.outlet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", stored.Name)
	assert.Empty(t, f.db.History().Entries(f.outlet.ID))
}

func TestSetOutletActive(t *testing.T) {
	f := newFixture(t)

	outlet, err := f.svc.SetOutletActive(f.ctx, f.outlet.ID, false)
	require.NoError(t, err)
	assert.False(t, outlet.IsActive)

	// Repeating the same status records nothing.
	_, err = f.svc.SetOutletActive(f.ctx, f.outlet.ID, false)
	require.NoError(t, err)
	assert.Len(t, f.db.History().Entries(f.outlet.ID), 1)

	_, err = f.svc.SetOutletActive(as(appctx.RoleAdmin, id.New()), f.outlet.ID, true)
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	outlet, err = f.svc.SetOutletActive(f.ctx, f.outlet.ID, true)
	require.NoError(t, err)
	assert.True(t, outlet.IsActive)
}
