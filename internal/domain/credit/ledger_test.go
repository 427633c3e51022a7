package credit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
	"stockroom/internal/infrastructure/storage/memstore"
)

func setup(t *testing.T, limit string, policy credit.Policy) (*credit.Ledger, credit.Account, credit.Account) {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	store := &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: id.New(), CreditLimit: types.MustMoney(limit)}
	require.NoError(t, db.Catalog().CreateStore(ctx, store))
	outlet := &catalog.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Kiosk", Type: catalog.OutletCustom, StoreID: store.ID}
	require.NoError(t, db.Catalog().CreateOutlet(ctx, outlet))

	return credit.NewLedger(db.Credit(), db, policy), credit.StoreAccount(store.ID), credit.OutletAccount(outlet.ID)
}

func TestLedger_AccrueSettleRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := setup(t, "1000", nil)

	b, err := ledger.Accrue(ctx, store, types.MustMoney("250.50"))
	require.NoError(t, err)
	assert.True(t, b.Current.Equal(types.MustMoney("250.50")))

	b, err = ledger.Settle(ctx, store, types.MustMoney("250.50"))
	require.NoError(t, err)
	assert.True(t, b.Current.IsZero())

	u, err := ledger.Utilization(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0.0, u)
}

func TestLedger_OverSettlement(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := setup(t, "1000", nil)

	_, err := ledger.Accrue(ctx, store, types.MustMoney("100"))
	require.NoError(t, err)

	_, err = ledger.Settle(ctx, store, types.MustMoney("100.01"))
	assert.True(t, apperror.HasCode(err, apperror.CodeOverSettlement))

	b, err := ledger.Balance(ctx, store)
	require.NoError(t, err)
	assert.True(t, b.Current.Equal(types.MustMoney("100")))
}

func TestLedger_LimitIsAdvisoryWithoutPolicy(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := setup(t, "100", nil)

	b, err := ledger.Accrue(ctx, store, types.MustMoney("150"))
	require.NoError(t, err)
	assert.True(t, b.Current.Equal(types.MustMoney("150")))
	assert.True(t, b.Available().IsZero())
	assert.Equal(t, 1.5, b.Utilization())
}

func TestLedger_CELPolicyRejects(t *testing.T) {
	ctx := context.Background()
	policy, err := credit.NewCELPolicy("limit == 0.0 || current + amount <= limit")
	require.NoError(t, err)
	ledger, store, outlet := setup(t, "100", policy)

	_, err = ledger.Accrue(ctx, store, types.MustMoney("60"))
	require.NoError(t, err)

	_, err = ledger.Accrue(ctx, store, types.MustMoney("41"))
	assert.True(t, apperror.HasCode(err, credit.CodeCreditLimitExceeded))

	b, err := ledger.Balance(ctx, store)
	require.NoError(t, err)
	assert.True(t, b.Current.Equal(types.MustMoney("60")))

	// The outlet has no limit, which the expression allows.
	_, err = ledger.Accrue(ctx, outlet, types.MustMoney("500"))
	require.NoError(t, err)
}

func TestLedger_RejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := setup(t, "100", nil)

	_, err := ledger.Accrue(ctx, store, types.Zero())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	_, err = ledger.Settle(ctx, store, types.MustMoney("-1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	_, err = ledger.Accrue(ctx, credit.StoreAccount(id.New()), types.MustMoney("1"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestNewCELPolicy(t *testing.T) {
	_, err := credit.NewCELPolicy("current + amount")
	assert.Error(t, err)

	_, err = credit.NewCELPolicy("current +")
	assert.Error(t, err)

	p, err := credit.NewCELPolicy("current + amount <= limit * 1.1")
	require.NoError(t, err)
	ok, err := p.Allow(types.MustMoney("100"), types.MustMoney("9"), types.MustMoney("100"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Allow(types.MustMoney("100"), types.MustMoney("11"), types.MustMoney("100"))
	require.NoError(t, err)
	assert.False(t, ok)
}
