package expenditure_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/infrastructure/storage/memstore"
)

func as(role appctx.Role, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}

func newService() (*expenditure.Service, *memstore.DB) {
	db := memstore.New()
	return expenditure.NewService(db.Expenditures(), db, db.History()), db
}

func record(t *testing.T, svc *expenditure.Service, ctx context.Context, category, amount string) *expenditure.Expenditure {
	t.Helper()
	e, err := svc.Create(ctx, expenditure.CreateRequest{
		Category:    category,
		Description: category + " expense",
		Amount:      types.MustMoney(amount),
	})
	require.NoError(t, err)
	return e
}

func TestCreate(t *testing.T) {
	svc, db := newService()
	adminID := id.New()
	admin := as(appctx.RoleAdmin, adminID)

	e := record(t, svc, admin, "fuel", "120.50")
	assert.Equal(t, adminID, e.AdminID)
	assert.False(t, e.Verified)
	assert.Len(t, db.History().Entries(e.ID), 1)

	_, err := svc.Create(admin, expenditure.CreateRequest{Category: "fuel", Description: "x", Amount: types.Zero()})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Create(as(appctx.RoleStoreManager, id.New()), expenditure.CreateRequest{
		Category: "fuel", Description: "x", Amount: types.MustMoney("1"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))
}

func TestCreate_ExplicitDate(t *testing.T) {
	svc, _ := newService()
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.FixedZone("EAT", 3*3600))

	e, err := svc.Create(as(appctx.RoleAdmin, id.New()), expenditure.CreateRequest{
		Category: "rent", Description: "March", Amount: types.MustMoney("900"), Date: &day,
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, e.Date.Location())
	assert.True(t, e.Date.Equal(day))
}

func TestListScopesAdmins(t *testing.T) {
	svc, _ := newService()
	first, second := as(appctx.RoleAdmin, id.New()), as(appctx.RoleAdmin, id.New())
	super := as(appctx.RoleSuperadmin, id.New())

	a := record(t, svc, first, "fuel", "100")
	record(t, svc, first, "rent", "50")
	b := record(t, svc, second, "fuel", "30")

	own, err := svc.List(first, expenditure.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), own.TotalCount)
	assert.Equal(t, int64(2), own.Summary.Count)
	assert.True(t, own.Summary.TotalAmount.Equal(types.MustMoney("150")))

	_, err = svc.Get(first, b.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	_, err = svc.Verify(super, a.ID)
	require.NoError(t, err)

	all, err := svc.List(super, expenditure.Filter{Category: "fuel"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
	assert.True(t, all.Summary.TotalAmount.Equal(types.MustMoney("130")))
	assert.True(t, all.Summary.VerifiedAmount.Equal(types.MustMoney("100")))
	assert.True(t, all.Summary.PendingAmount.Equal(types.MustMoney("30")))

	verified := false
	pending, err := svc.List(super, expenditure.Filter{Verified: &verified})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending.TotalCount)
}

func TestList_InvalidRange(t *testing.T) {
	svc, _ := newService()
	from := time.Now()
	to := from.Add(-time.Hour)

	_, err := svc.List(as(appctx.RoleAdmin, id.New()), expenditure.Filter{From: &from, To: &to})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestVerify(t *testing.T) {
	svc, _ := newService()
	admin := as(appctx.RoleAdmin, id.New())
	superID := id.New()
	super := as(appctx.RoleSuperadmin, superID)
	e := record(t, svc, admin, "office", "12")

	_, err := svc.Verify(admin, e.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	v, err := svc.Verify(super, e.ID)
	require.NoError(t, err)
	assert.True(t, v.Verified)
	require.NotNil(t, v.VerifiedBy)
	assert.Equal(t, superID, *v.VerifiedBy)

	_, err = svc.Verify(super, e.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = svc.Verify(super, id.New())
	assert.True(t, apperror.IsNotFound(err))
}
