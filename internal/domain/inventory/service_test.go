package inventory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/inventory"
)

func TestAdjustQuantity_Actions(t *testing.T) {
	tests := []struct {
		name   string
		start  int64
		action string
		amount int64
		want   int64
	}{
		{"add", 5, "add", 3, 8},
		{"subtract", 5, "subtract", 2, 3},
		{"subtract clamps at zero", 5, "subtract", 8, 0},
		{"adjust sets absolute", 5, "adjust", 42, 42},
		{"adjust to zero", 5, "adjust", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, inventory.AlertPolicy{})
			entry := f.seedEntry(t, f.product, f.room, tt.start, 1)

			change, err := f.svc.AdjustQuantity(f.ctx, entry.ID, tt.action, tt.amount, "count")
			require.NoError(t, err)

			assert.Equal(t, tt.start, change.OldQuantity)
			assert.Equal(t, tt.want, change.NewQuantity)
			assert.Equal(t, tt.want, f.quantity(t, entry.ID))

			log := f.db.Inventory().Log()
			require.Len(t, log, 1)
			assert.Equal(t, tt.want-tt.start, log[0].QuantityChanged)
			assert.Equal(t, inventory.Action(tt.action), log[0].Action)
			assert.Equal(t, f.adminID, log[0].PerformedBy)
		})
	}
}

func TestAdjustQuantity_Rejects(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	entry := f.seedEntry(t, f.product, f.room, 5, 1)

	_, err := f.svc.AdjustQuantity(f.ctx, entry.ID, "multiply", 2, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAction))

	_, err = f.svc.AdjustQuantity(f.ctx, entry.ID, "add", -1, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.AdjustQuantity(f.ctx, id.New(), "add", 1, "")
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.AdjustQuantity(f.as(appctx.RoleAdmin, id.New()), entry.ID, "add", 1, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))

	assert.Equal(t, int64(5), f.quantity(t, entry.ID))
	assert.Empty(t, f.db.Inventory().Log())
}

func TestAdjustQuantity_StoreManagerOfStore(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	managerID := id.New()
	f.store.ManagerID = &managerID
	require.NoError(t, f.db.Catalog().UpdateStore(f.ctx, f.store))
	entry := f.seedEntry(t, f.product, f.room, 5, 1)

	_, err := f.svc.AdjustQuantity(f.as(appctx.RoleStoreManager, managerID), entry.ID, "add", 1, "")
	require.NoError(t, err)

	_, err = f.svc.AdjustQuantity(f.as(appctx.RoleStoreManager, id.New()), entry.ID, "add", 1, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))
	assert.Equal(t, int64(6), f.quantity(t, entry.ID))
}

func TestAlerts_RaisedOnEveryLowWrite(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	entry := f.seedEntry(t, f.product, f.room, 12, 10)

	_, err := f.svc.AdjustQuantity(f.ctx, entry.ID, "subtract", 3, "")
	require.NoError(t, err)
	alerts := f.db.Inventory().Alerts(entry.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, inventory.AlertLowStock, alerts[0].Type)
	assert.Equal(t, int64(9), alerts[0].CurrentQuantity)

	_, err = f.svc.AdjustQuantity(f.ctx, entry.ID, "subtract", 4, "")
	require.NoError(t, err)
	alerts = f.db.Inventory().Alerts(entry.ID)
	require.Len(t, alerts, 2)
	assert.Equal(t, int64(5), alerts[1].CurrentQuantity)

	_, err = f.svc.AdjustQuantity(f.ctx, entry.ID, "subtract", 100, "")
	require.NoError(t, err)
	alerts = f.db.Inventory().Alerts(entry.ID)
	require.Len(t, alerts, 3)
	assert.Equal(t, inventory.AlertOutOfStock, alerts[2].Type)

	assert.Len(t, f.db.Outbox().Events(outbox.EventAlertRaised), 3)

	_, err = f.svc.AdjustQuantity(f.ctx, entry.ID, "add", 20, "restock")
	require.NoError(t, err)
	for _, a := range f.db.Inventory().Alerts(entry.ID) {
		assert.Equal(t, inventory.AlertResolved, a.Status)
	}
}

func TestAlerts_Deduplicated(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{Deduplicate: true})
	entry := f.seedEntry(t, f.product, f.room, 12, 10)

	for _, amount := range []int64{3, 4} {
		_, err := f.svc.AdjustQuantity(f.ctx, entry.ID, "subtract", amount, "")
		require.NoError(t, err)
	}

	alerts := f.db.Inventory().Alerts(entry.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(5), alerts[0].CurrentQuantity)
	assert.Equal(t, inventory.AlertActive, alerts[0].Status)
}

func TestAlerts_NotRaisedAboveThreshold(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	entry := f.seedEntry(t, f.product, f.room, 30, 10)

	_, err := f.svc.AdjustQuantity(f.ctx, entry.ID, "subtract", 5, "")
	require.NoError(t, err)
	assert.Empty(t, f.db.Inventory().Alerts(entry.ID))
}

func TestMoveQuantity_ConservesTotal(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	src := f.seedEntry(t, f.product, f.room, 20, 2)

	result, err := f.svc.MoveQuantity(f.ctx, src.ID, f.rack, 7, "reshelve")
	require.NoError(t, err)

	assert.Equal(t, int64(13), result.From.NewQuantity)
	assert.Equal(t, int64(7), result.To.NewQuantity)
	assert.Equal(t, int64(20), f.quantity(t, src.ID)+f.quantity(t, result.To.StockEntryID))

	dst, err := f.db.Inventory().GetEntry(f.ctx, result.To.StockEntryID)
	require.NoError(t, err)
	assert.Equal(t, f.rack, dst.Location())
	assert.Equal(t, src.ReorderLevel, dst.ReorderLevel)

	log := f.db.Inventory().Log()
	require.Len(t, log, 1)
	assert.Equal(t, inventory.ActionMove, log[0].Action)
	assert.Equal(t, src.ID, log[0].StockEntryID)
	require.NotNil(t, log[0].TargetStockEntryID)
	assert.Equal(t, dst.ID, *log[0].TargetStockEntryID)
	assert.Equal(t, f.room.ID, *log[0].FromLocationID)
	assert.Equal(t, f.rack.ID, *log[0].ToLocationID)

	// Moving back reuses the existing entry.
	back, err := f.svc.MoveQuantity(f.ctx, dst.ID, f.room, 7, "")
	require.NoError(t, err)
	assert.Equal(t, src.ID, back.To.StockEntryID)
	assert.Equal(t, int64(20), f.quantity(t, src.ID))
	assert.Equal(t, int64(0), f.quantity(t, dst.ID))
}

func TestMoveQuantity_Insufficient(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	src := f.seedEntry(t, f.product, f.room, 5, 2)

	_, err := f.svc.MoveQuantity(f.ctx, src.ID, f.rack, 6, "")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(5), appErr.Details["available"])

	assert.Equal(t, int64(5), f.quantity(t, src.ID))
	assert.Empty(t, f.db.Inventory().Log())
	_, err = f.db.Inventory().FindEntryForUpdate(f.ctx, inventory.EntryKey{ProductID: f.product.ID, StoreID: f.store.ID, Location: f.rack})
	assert.True(t, apperror.IsNotFound(err))
}

func TestMoveQuantity_DestinationMustBelongToStore(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	src := f.seedEntry(t, f.product, f.room, 5, 2)

	foreign := f.rack
	foreign.ID = id.New()
	_, err := f.svc.MoveQuantity(f.ctx, src.ID, foreign, 1, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.MoveQuantity(f.ctx, src.ID, f.room, 1, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestPerformAudit(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	counted := f.seedEntry(t, f.product, f.room, 10, 2)
	other := f.newProduct(t, "SKU-2")
	exact := f.seedEntry(t, other, f.room, 4, 2)
	stray := f.newProduct(t, "SKU-3")

	result, err := f.svc.PerformAudit(f.ctx, inventory.AuditRequest{
		StoreID:  f.store.ID,
		Location: f.room,
		Items: []inventory.CountedItem{
			{ProductID: f.product.ID, CountedQuantity: 13},
			{ProductID: other.ID, CountedQuantity: 4},
			{ProductID: stray.ID, CountedQuantity: 2},
		},
		Notes: "quarterly",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(13), f.quantity(t, counted.ID))
	assert.Equal(t, int64(4), f.quantity(t, exact.ID))
	require.Len(t, result.Lines, 3)
	assert.Equal(t, int64(3), result.Lines[0].Discrepancy)
	assert.Equal(t, int64(0), result.Lines[1].Discrepancy)
	assert.Equal(t, int64(0), result.Lines[2].ExpectedQuantity)
	assert.Equal(t, "Item not in expected location", result.Lines[2].Notes)

	assert.Equal(t, 2, result.Audit.DiscrepanciesFound)
	assert.Len(t, f.db.Inventory().Discrepancies(result.Audit.ID), 2)
	assert.InDelta(t, 33.33, result.AccuracyRate, 0.001)

	_, err = f.db.Inventory().FindEntryForUpdate(f.ctx, inventory.EntryKey{ProductID: stray.ID, StoreID: f.store.ID, Location: f.room})
	assert.True(t, apperror.IsNotFound(err))

	log := f.db.Inventory().Log()
	require.Len(t, log, 1)
	assert.Equal(t, inventory.ActionAuditAdjust, log[0].Action)
	assert.Equal(t, int64(3), log[0].QuantityChanged)
	assert.Equal(t, "Audit: Inventory count discrepancy", log[0].Reason)
}

func TestPerformAudit_RejectsDuplicates(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	_, err := f.svc.PerformAudit(f.ctx, inventory.AuditRequest{
		StoreID:  f.store.ID,
		Location: f.room,
		Items: []inventory.CountedItem{
			{ProductID: f.product.ID, CountedQuantity: 1},
			{ProductID: f.product.ID, CountedQuantity: 2},
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBulkAdjust_SkipsFailingItems(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	a := f.seedEntry(t, f.product, f.room, 5, 1)
	b := f.seedEntry(t, f.product, f.rack, 5, 1)
	missing := id.New()

	result, err := f.svc.BulkAdjust(f.ctx, []inventory.BulkUpdate{
		{StockEntryID: a.ID, Action: "add", Amount: 2},
		{StockEntryID: b.ID, Action: "teleport", Amount: 2},
		{StockEntryID: missing, Action: "add", Amount: 1},
		{StockEntryID: b.ID, Action: "subtract", Amount: 1, Reason: "damaged"},
	}, "")
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, apperror.CodeInvalidAction, result.Errors[0].Code)
	assert.Equal(t, apperror.CodeNotFound, result.Errors[1].Code)
	assert.Equal(t, missing, result.Errors[1].StockEntryID)

	assert.Equal(t, int64(7), f.quantity(t, a.ID))
	assert.Equal(t, int64(4), f.quantity(t, b.ID))

	log := f.db.Inventory().Log()
	require.Len(t, log, 2)
	assert.Equal(t, "Bulk update", log[0].Reason)
	assert.Equal(t, "damaged", log[1].Reason)
}

func TestAdjustQuantity_ConcurrentAddsAreNotLost(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	entry := f.seedEntry(t, f.product, f.room, 0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AdjustQuantity(f.ctx, entry.ID, "add", 1, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), f.quantity(t, entry.ID))
	assert.Len(t, f.db.Inventory().Log(), 10)
}

func TestReceive_ForeignAdminDenied(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})

	_, err := f.svc.Receive(f.as(appctx.RoleAdmin, id.New()), inventory.ReceiveRequest{
		StoreID: f.store.ID, ProductID: f.product.ID, Location: f.rack, Quantity: 50,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeAccessDenied))
	assert.Empty(t, f.db.Inventory().Log())
}

func TestReceive_ChecksProduct(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})

	foreign := &catalog.Product{
		BaseEntity: entity.NewBaseEntity(), Name: "Foreign", SKU: "F-1",
		AdminID: id.New(), UnitPrice: types.MustMoney("1"), IsActive: true,
	}
	require.NoError(t, f.db.Catalog().CreateProduct(f.ctx, foreign))
	_, err := f.svc.Receive(f.ctx, inventory.ReceiveRequest{
		StoreID: f.store.ID, ProductID: foreign.ID, Location: f.rack, Quantity: 5,
	})
	assert.True(t, apperror.IsNotFound(err))

	inactive := f.newProduct(t, "SKU-OFF")
	inactive.IsActive = false
	require.NoError(t, f.db.Catalog().UpdateProduct(f.ctx, inactive))
	_, err = f.svc.Receive(f.ctx, inventory.ReceiveRequest{
		StoreID: f.store.ID, ProductID: inactive.ID, Location: f.rack, Quantity: 5,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, f.db.Inventory().Log())
}

func TestReceive_DefaultsReorderLevelToThreshold(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})

	change, err := f.svc.Receive(f.ctx, inventory.ReceiveRequest{
		StoreID: f.store.ID, ProductID: f.product.ID, Location: f.rack, Quantity: 50, Reason: "delivery",
	})
	require.NoError(t, err)

	entry, err := f.db.Inventory().GetEntry(f.ctx, change.StockEntryID)
	require.NoError(t, err)
	assert.Equal(t, f.product.ThresholdQuantity, entry.ReorderLevel)

	log := f.db.Inventory().Log()
	require.Len(t, log, 1)
	assert.Nil(t, log[0].ReferenceID)
}

func TestReceiveAndDispatch(t *testing.T) {
	f := newFixture(t, inventory.AlertPolicy{})
	ref := inventory.Reference{Type: "invoice", ID: id.New()}

	change, err := f.svc.Receive(f.ctx, inventory.ReceiveRequest{
		StoreID: f.store.ID, ProductID: f.product.ID, Location: f.rack,
		Quantity: 15, ReorderLevel: 10, Reason: "delivery", Reference: ref,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), change.NewQuantity)

	_, err = f.svc.Dispatch(f.ctx, inventory.DispatchRequest{
		StoreID: f.store.ID, ProductID: f.product.ID, Quantity: 16, Reference: ref,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	out, err := f.svc.Dispatch(f.ctx, inventory.DispatchRequest{
		StoreID: f.store.ID, ProductID: f.product.ID, Quantity: 6, Reference: ref,
	})
	require.NoError(t, err)
	assert.Equal(t, f.rack, out.Location)
	assert.Equal(t, int64(9), out.NewQuantity)

	log := f.db.Inventory().Log()
	require.Len(t, log, 2)
	require.NotNil(t, log[1].ReferenceID)
	assert.Equal(t, ref.ID, *log[1].ReferenceID)
	assert.Len(t, f.db.Inventory().Alerts(change.StockEntryID), 1)
}
