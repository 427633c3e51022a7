package invoice_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/infrastructure/storage/memstore"
)

type fixture struct {
	db       *memstore.DB
	svc      *invoice.Service
	ledger   *credit.Ledger
	ctx      context.Context
	adminID  id.ID
	store    *catalog.Store
	outlet   *catalog.Outlet
	room     entity.Location
	rack     entity.Location
	products []*catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	f := &fixture{db: db, adminID: id.New()}
	f.ctx = appctx.WithUser(context.Background(), &appctx.UserContext{UserID: f.adminID, Role: appctx.RoleAdmin})
	cat := db.Catalog()

	f.store = &catalog.Store{BaseEntity: entity.NewBaseEntity(), Name: "Main", AdminID: f.adminID, CreditLimit: types.MustMoney("10000"), IsActive: true}
	require.NoError(t, cat.CreateStore(f.ctx, f.store))
	f.outlet = &catalog.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Kiosk", Type: catalog.OutletCustom, StoreID: f.store.ID, IsActive: true}
	require.NoError(t, cat.CreateOutlet(f.ctx, f.outlet))

	room := &catalog.StorageLocation{BaseEntity: entity.NewBaseEntity(), Kind: entity.LocationRoom, StoreID: f.store.ID, Name: "Back room"}
	require.NoError(t, cat.CreateLocation(f.ctx, room))
	rack := &catalog.StorageLocation{BaseEntity: entity.NewBaseEntity(), Kind: entity.LocationRack, StoreID: f.store.ID, RoomID: &room.ID, Name: "Rack A"}
	require.NoError(t, cat.CreateLocation(f.ctx, rack))
	f.room, f.rack = room.Location(), rack.Location()

	for i, price := range []string{"2.50", "10.00", "4.25"} {
		p := &catalog.Product{
			BaseEntity:        entity.NewBaseEntity(),
			Name:              fmt.Sprintf("Product %d", i),
			SKU:               fmt.Sprintf("SKU-%d", i),
			AdminID:           f.adminID,
			UnitPrice:         types.MustMoney(price),
			ThresholdQuantity: 5,
			IsActive:          true,
		}
		require.NoError(t, cat.CreateProduct(f.ctx, p))
		f.products = append(f.products, p)
	}

	stock := inventory.NewService(db.Inventory(), cat, db, db.Outbox(), inventory.AlertPolicy{})
	f.ledger = credit.NewLedger(db.Credit(), db, nil)
	f.svc = invoice.NewService(invoice.Deps{
		Repo:      db.Invoices(),
		Catalog:   cat,
		Stock:     stock,
		Ledger:    f.ledger,
		Numerator: &numerator.MockGenerator{},
		TxManager: db,
		Events:    db.Outbox(),
		History:   db.History(),
	})
	return f
}

func (f *fixture) item(i int, qty int64, loc *entity.Location) invoice.ItemRequest {
	return invoice.ItemRequest{ProductID: f.products[i].ID, Quantity: qty, Location: loc}
}

func (f *fixture) quantityAt(t *testing.T, productIdx int, loc entity.Location) int64 {
	t.Helper()
	e, err := f.db.Inventory().FindEntryForUpdate(f.ctx, inventory.EntryKey{ProductID: f.products[productIdx].ID, StoreID: f.store.ID, Location: loc})
	if apperror.IsNotFound(err) {
		return 0
	}
	require.NoError(t, err)
	return e.Quantity
}

func (f *fixture) balance(t *testing.T, account credit.Account) types.Money {
	t.Helper()
	b, err := f.ledger.Balance(f.ctx, account)
	require.NoError(t, err)
	return b.Current
}

func (f *fixture) distribute(t *testing.T, method invoice.PaymentMethod) *invoice.Invoice {
	t.Helper()
	inv, err := f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items: []invoice.ItemRequest{
			f.item(0, 10, &f.room),
			f.item(1, 4, &f.rack),
			f.item(2, 8, &f.room),
		},
		Payment: invoice.PaymentRequest{Method: method},
	})
	require.NoError(t, err)
	return inv
}

func TestCreateDistribution(t *testing.T) {
	f := newFixture(t)
	inv := f.distribute(t, invoice.PaymentCredit)

	// 10*2.50 + 4*10.00 + 8*4.25
	total := types.MustMoney("99")
	assert.Equal(t, fmt.Sprintf("DIST-%d-00001", time.Now().UTC().Year()), inv.InvoiceNumber)
	assert.Equal(t, invoice.StatusPending, inv.Status)
	assert.True(t, inv.TotalAmount.Equal(total))
	assert.True(t, inv.CreditAmount.Equal(total))
	assert.True(t, inv.PaidAmount.IsZero())
	require.Len(t, inv.Items, 3)

	assert.Equal(t, int64(10), f.quantityAt(t, 0, f.room))
	assert.Equal(t, int64(4), f.quantityAt(t, 1, f.rack))
	assert.Equal(t, int64(8), f.quantityAt(t, 2, f.room))
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).Equal(total))

	e, err := f.db.Inventory().FindEntryForUpdate(f.ctx, inventory.EntryKey{ProductID: f.products[1].ID, StoreID: f.store.ID, Location: f.rack})
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.ReorderLevel)

	log := f.db.Inventory().Log()
	require.Len(t, log, 3)
	for _, l := range log {
		assert.Equal(t, inventory.ActionAdd, l.Action)
		assert.Equal(t, "invoice", l.ReferenceType)
		assert.Equal(t, inv.ID, *l.ReferenceID)
	}
	assert.Len(t, f.db.Outbox().Events(outbox.EventInvoiceCreated), 1)
	assert.Len(t, f.db.History().Entries(inv.ID), 1)

	got, err := f.svc.Get(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 3)
}

func TestCreateDistribution_IsAtomic(t *testing.T) {
	f := newFixture(t)
	foreign := &catalog.Product{BaseEntity: entity.NewBaseEntity(), Name: "Other", SKU: "X", AdminID: id.New(), UnitPrice: types.MustMoney("1"), IsActive: true}
	require.NoError(t, f.db.Catalog().CreateProduct(f.ctx, foreign))

	_, err := f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items: []invoice.ItemRequest{
			f.item(0, 10, &f.room),
			f.item(1, 4, &f.rack),
			{ProductID: foreign.ID, Quantity: 1, Location: &f.room},
		},
		Payment: invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, int64(0), f.quantityAt(t, 0, f.room))
	assert.Empty(t, f.db.Inventory().Log())
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).IsZero())
	assert.Empty(t, f.db.Outbox().Events(""))

	list, err := f.svc.List(f.ctx, invoice.Filter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestCreateDistribution_FailureAfterStockRollsBack(t *testing.T) {
	f := newFixture(t)
	// A rack id from no store passes request validation and fails once
	// the first two items have already been received.
	bogus := entity.Location{Kind: entity.LocationRack, ID: id.New()}

	_, err := f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items: []invoice.ItemRequest{
			f.item(0, 10, &f.room),
			f.item(1, 4, &f.rack),
			f.item(2, 8, &bogus),
		},
		Payment: invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Equal(t, int64(0), f.quantityAt(t, 0, f.room))
	assert.Equal(t, int64(0), f.quantityAt(t, 1, f.rack))
	assert.Empty(t, f.db.Inventory().Log())
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).IsZero())

	// The failed attempt did not consume a persisted invoice.
	inv := f.distribute(t, invoice.PaymentPaid)
	assert.True(t, inv.CreditAmount.IsZero())
}

func TestCreateDistribution_Rejects(t *testing.T) {
	f := newFixture(t)

	manager := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id.New(), Role: appctx.RoleStoreManager})
	_, err := f.svc.CreateDistribution(manager, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items:   []invoice.ItemRequest{f.item(0, 1, &f.room)},
		Payment: invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	_, err = f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items:   []invoice.ItemRequest{f.item(0, 1, nil)},
		Payment: invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items:   []invoice.ItemRequest{f.item(0, 2, &f.room)},
		Payment: invoice.PaymentRequest{
			Method:       invoice.PaymentMixed,
			CreditAmount: types.MustMoney("3"),
			PaidAmount:   types.MustMoney("1"),
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreateDistribution_MixedSplit(t *testing.T) {
	f := newFixture(t)
	price := types.MustMoney("3.00")
	item := f.item(0, 2, &f.room)
	item.UnitPrice = &price

	inv, err := f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items:   []invoice.ItemRequest{item},
		Payment: invoice.PaymentRequest{
			Method:       invoice.PaymentMixed,
			CreditAmount: types.MustMoney("4"),
			PaidAmount:   types.MustMoney("2"),
		},
	})
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("6")))
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).Equal(types.MustMoney("4")))
}

func TestCreateOutletSale(t *testing.T) {
	f := newFixture(t)
	f.distribute(t, invoice.PaymentPaid)

	sale, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
		StoreID:  f.store.ID,
		OutletID: f.outlet.ID,
		Items:    []invoice.ItemRequest{f.item(0, 6, nil), f.item(1, 4, &f.rack)},
		Payment:  invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	require.NoError(t, err)

	assert.Equal(t, invoice.StatusCompleted, sale.Status)
	assert.Contains(t, sale.InvoiceNumber, "SALE-")
	assert.Equal(t, int64(4), f.quantityAt(t, 0, f.room))
	assert.Equal(t, int64(0), f.quantityAt(t, 1, f.rack))
	require.Len(t, sale.Items, 2)
	assert.Equal(t, f.room, sale.Items[0].Location())

	// 6*2.50 + 4*10.00
	assert.True(t, f.balance(t, credit.OutletAccount(f.outlet.ID)).Equal(types.MustMoney("55")))
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).IsZero())
}

func TestCreateOutletSale_InsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.distribute(t, invoice.PaymentPaid)
	logBefore := len(f.db.Inventory().Log())

	_, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
		StoreID:  f.store.ID,
		OutletID: f.outlet.ID,
		Items: []invoice.ItemRequest{
			f.item(0, 5, nil),
			f.item(2, 3, nil),
			f.item(1, 5, nil),
		},
		Payment: invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(4), appErr.Details["available"])

	assert.Equal(t, int64(10), f.quantityAt(t, 0, f.room))
	assert.Equal(t, int64(8), f.quantityAt(t, 2, f.room))
	assert.Equal(t, int64(4), f.quantityAt(t, 1, f.rack))
	assert.Len(t, f.db.Inventory().Log(), logBefore)
	assert.True(t, f.balance(t, credit.OutletAccount(f.outlet.ID)).IsZero())
}

func TestCreateOutletSale_OutletOfAnotherStore(t *testing.T) {
	f := newFixture(t)
	other := &catalog.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Elsewhere", Type: catalog.OutletCustom, StoreID: id.New()}
	require.NoError(t, f.db.Catalog().CreateOutlet(f.ctx, other))

	_, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
		StoreID:  f.store.ID,
		OutletID: other.ID,
		Items:    []invoice.ItemRequest{f.item(0, 1, nil)},
		Payment:  invoice.PaymentRequest{Method: invoice.PaymentPaid},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateOutletSale_RejectsInactive(t *testing.T) {
	f := newFixture(t)
	f.distribute(t, invoice.PaymentPaid)
	sell := func() error {
		_, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
			StoreID:  f.store.ID,
			OutletID: f.outlet.ID,
			Items:    []invoice.ItemRequest{f.item(0, 1, nil)},
			Payment:  invoice.PaymentRequest{Method: invoice.PaymentCredit},
		})
		return err
	}

	f.outlet.IsActive = false
	require.NoError(t, f.db.Catalog().UpdateOutlet(f.ctx, f.outlet))
	assert.True(t, apperror.HasCode(sell(), apperror.CodeValidation))

	f.outlet.IsActive = true
	require.NoError(t, f.db.Catalog().UpdateOutlet(f.ctx, f.outlet))
	f.store.IsActive = false
	require.NoError(t, f.db.Catalog().UpdateStore(f.ctx, f.store))
	assert.True(t, apperror.HasCode(sell(), apperror.CodeValidation))

	assert.Equal(t, int64(10), f.quantityAt(t, 0, f.room))
	assert.True(t, f.balance(t, credit.OutletAccount(f.outlet.ID)).IsZero())
}

func TestUpdateStatus_PaidSettlesCredit(t *testing.T) {
	f := newFixture(t)
	f.distribute(t, invoice.PaymentPaid)
	sale, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
		StoreID:  f.store.ID,
		OutletID: f.outlet.ID,
		Items:    []invoice.ItemRequest{f.item(0, 2, nil)},
		Payment:  invoice.PaymentRequest{Method: invoice.PaymentCredit},
	})
	require.NoError(t, err)
	outletAccount := credit.OutletAccount(f.outlet.ID)
	require.True(t, f.balance(t, outletAccount).Equal(types.MustMoney("5")))

	paid, err := f.svc.UpdateStatus(f.ctx, sale.ID, invoice.StatusUpdate{
		Status:  invoice.StatusPaid,
		Payment: &invoice.PaymentDetails{Method: "bank_transfer", TransactionRef: "TX-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, invoice.StatusCompleted, paid.Status)
	assert.True(t, paid.CreditAmount.IsZero())
	assert.True(t, paid.PaidAmount.Equal(paid.TotalAmount))
	assert.True(t, f.balance(t, outletAccount).IsZero())
	assert.Len(t, f.db.Outbox().Events(outbox.EventInvoiceSettled), 1)

	got, err := f.svc.Get(f.ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "TX-1", got.Payments[0].TransactionRef)
	assert.True(t, got.Payments[0].Amount.Equal(types.MustMoney("5")))

	_, err = f.svc.UpdateStatus(f.ctx, sale.ID, invoice.StatusUpdate{Status: invoice.StatusPaid})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.True(t, f.balance(t, outletAccount).IsZero())
}

func TestUpdateStatus_MixedSettlesOnlyCreditPart(t *testing.T) {
	f := newFixture(t)
	price := types.MustMoney("3.00")
	item := f.item(0, 2, &f.room)
	item.UnitPrice = &price
	inv, err := f.svc.CreateDistribution(f.ctx, invoice.DistributionRequest{
		StoreID: f.store.ID,
		Items:   []invoice.ItemRequest{item},
		Payment: invoice.PaymentRequest{
			Method:       invoice.PaymentMixed,
			CreditAmount: types.MustMoney("4"),
			PaidAmount:   types.MustMoney("2"),
		},
	})
	require.NoError(t, err)

	paid, err := f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: invoice.StatusPaid})
	require.NoError(t, err)
	assert.True(t, paid.CreditAmount.IsZero())
	assert.True(t, paid.PaidAmount.Equal(types.MustMoney("6")))
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).IsZero())

	got, err := f.svc.Get(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 1)
	assert.True(t, got.Payments[0].Amount.Equal(types.MustMoney("4")))
}

func TestUpdateStatus_CancelReversesDistribution(t *testing.T) {
	f := newFixture(t)
	inv := f.distribute(t, invoice.PaymentCredit)
	storeAccount := credit.StoreAccount(f.store.ID)

	// Part of the stock has already left the room.
	_, err := f.svc.CreateOutletSale(f.ctx, invoice.OutletSaleRequest{
		StoreID:  f.store.ID,
		OutletID: f.outlet.ID,
		Items:    []invoice.ItemRequest{f.item(2, 6, &f.room)},
		Payment:  invoice.PaymentRequest{Method: invoice.PaymentPaid},
	})
	require.NoError(t, err)

	cancelled, err := f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: invoice.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusCancelled, cancelled.Status)

	assert.Equal(t, int64(0), f.quantityAt(t, 0, f.room))
	assert.Equal(t, int64(0), f.quantityAt(t, 1, f.rack))
	assert.Equal(t, int64(0), f.quantityAt(t, 2, f.room), "withdrawal clamps at zero")
	assert.True(t, f.balance(t, storeAccount).IsZero())
	assert.Len(t, f.db.Outbox().Events(outbox.EventInvoiceCanceled), 1)

	for _, to := range []invoice.Status{invoice.StatusCompleted, invoice.StatusCancelled, invoice.StatusPaid} {
		_, err = f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: to})
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition), to)
	}
}

func TestUpdateStatus_Complete(t *testing.T) {
	f := newFixture(t)
	inv := f.distribute(t, invoice.PaymentCredit)

	done, err := f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: invoice.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusCompleted, done.Status)
	assert.True(t, done.CreditAmount.Equal(inv.CreditAmount))

	_, err = f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: invoice.StatusCancelled})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: "archived"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	settled, err := f.svc.UpdateStatus(f.ctx, inv.ID, invoice.StatusUpdate{Status: invoice.StatusPaid})
	require.NoError(t, err)
	assert.True(t, settled.CreditAmount.IsZero())
	assert.True(t, f.balance(t, credit.StoreAccount(f.store.ID)).IsZero())
}
