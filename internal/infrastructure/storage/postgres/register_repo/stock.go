// Package register_repo provides the PostgreSQL stock ledger: stock
// entries, the transaction log, alerts and audits.
package register_repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/storage/postgres"
)

const (
	stockEntriesTable  = "stock_entries"
	discrepanciesTable = "audit_discrepancies"
)

var discrepancyColumns = postgres.ExtractDBColumns[inventory.AuditDiscrepancy]()

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	entries  *postgres.BaseRepo[inventory.StockEntry]
	log      *postgres.BaseRepo[inventory.LogEntry]
	alerts   *postgres.BaseRepo[inventory.Alert]
	audits   *postgres.BaseRepo[inventory.Audit]
	inserter *postgres.BatchInserter
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new stock ledger repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		entries:  postgres.NewBaseRepo[inventory.StockEntry](txManager, stockEntriesTable, "stock entry"),
		log:      postgres.NewBaseRepo[inventory.LogEntry](txManager, "inventory_transactions", "transaction"),
		alerts:   postgres.NewBaseRepo[inventory.Alert](txManager, "inventory_alerts", "alert"),
		audits:   postgres.NewBaseRepo[inventory.Audit](txManager, "inventory_audits", "audit"),
		inserter: postgres.NewBatchInserter(txManager),
	}
}

func keyEq(key inventory.EntryKey) sq.Eq {
	return sq.Eq{
		"product_id":    key.ProductID,
		"store_id":      key.StoreID,
		"location_kind": key.Location.Kind,
		"location_id":   key.Location.ID,
	}
}

func (r *InventoryRepo) GetEntry(ctx context.Context, entryID id.ID) (*inventory.StockEntry, error) {
	return r.entries.GetByID(ctx, entryID)
}

func (r *InventoryRepo) GetEntryForUpdate(ctx context.Context, entryID id.ID) (*inventory.StockEntry, error) {
	return r.entries.GetForUpdate(ctx, entryID)
}

func (r *InventoryRepo) FindEntryForUpdate(ctx context.Context, key inventory.EntryKey) (*inventory.StockEntry, error) {
	q := r.entries.Select().Where(keyEq(key)).Suffix("FOR UPDATE")
	return r.entries.FindOne(ctx, q, key.Location.String())
}

// EnsureEntryForUpdate relies on the unique key of stock_entries: a
// concurrent creator makes our insert a no-op and the SELECT then waits
// on its row lock.
func (r *InventoryRepo) EnsureEntryForUpdate(ctx context.Context, entry *inventory.StockEntry) (*inventory.StockEntry, error) {
	sql, args, err := postgres.Builder().
		Insert(stockEntriesTable).
		SetMap(postgres.StructToMap(entry)).
		Suffix("ON CONFLICT (product_id, store_id, location_kind, location_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.entries.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("insert stock entry: %w", err)
	}
	return r.FindEntryForUpdate(ctx, entry.Key())
}

func (r *InventoryRepo) FindLargestEntryForUpdate(ctx context.Context, storeID, productID id.ID) (*inventory.StockEntry, error) {
	q := r.entries.Select().
		Where(sq.Eq{"store_id": storeID, "product_id": productID}).
		OrderBy("quantity DESC", "id").
		Limit(1).
		Suffix("FOR UPDATE")
	return r.entries.FindOne(ctx, q, productID)
}

func (r *InventoryRepo) LockEntriesAtLocation(ctx context.Context, storeID id.ID, loc entity.Location) ([]inventory.StockEntry, error) {
	q := r.entries.Select().
		Where(sq.Eq{"store_id": storeID, "location_kind": loc.Kind, "location_id": loc.ID}).
		OrderBy("id DESC").
		Suffix("FOR UPDATE")
	return r.entries.FindAll(ctx, q)
}

func (r *InventoryRepo) UpdateQuantity(ctx context.Context, entry *inventory.StockEntry) error {
	return r.entries.UpdateByID(ctx, entry.ID, map[string]any{
		"quantity":   entry.Quantity,
		"updated_at": entry.UpdatedAt,
	})
}

func (r *InventoryRepo) ListEntries(ctx context.Context, filter inventory.EntryFilter) ([]inventory.StockEntry, int64, error) {
	q := r.entries.SelectAs("e").Join("stores s ON s.id = e.store_id")
	q = postgres.ApplyScope(q, filter.Scope, "s")
	if filter.StoreID != nil {
		q = q.Where(sq.Eq{"e.store_id": *filter.StoreID})
	}
	if filter.ProductID != nil {
		q = q.Where(sq.Eq{"e.product_id": *filter.ProductID})
	}
	if filter.CategoryID != nil {
		q = q.Join("products p ON p.id = e.product_id").Where(sq.Eq{"p.category_id": *filter.CategoryID})
	}
	if filter.Location != nil {
		q = q.Where(sq.Eq{"e.location_kind": filter.Location.Kind, "e.location_id": filter.Location.ID})
	}
	if filter.LowStock {
		q = q.Where("e.quantity <= e.reorder_level")
	}
	if filter.OutOfStock {
		q = q.Where(sq.Eq{"e.quantity": 0})
	}
	return r.entries.Page(ctx, q, "e.id DESC", filter.Limit, filter.Offset)
}

func (r *InventoryRepo) AppendLog(ctx context.Context, entry *inventory.LogEntry) error {
	return r.log.Insert(ctx, entry)
}

// ListLog includes move rows that targeted the entry.
func (r *InventoryRepo) ListLog(ctx context.Context, entryID id.ID, limit, offset int) ([]inventory.LogEntry, int64, error) {
	q := r.log.Select().Where(sq.Or{
		sq.Eq{"stock_entry_id": entryID},
		sq.Eq{"target_stock_entry_id": entryID},
	})
	return r.log.Page(ctx, q, "id DESC", limit, offset)
}

func (r *InventoryRepo) CreateAlert(ctx context.Context, alert *inventory.Alert) error {
	return r.alerts.Insert(ctx, alert)
}

func (r *InventoryRepo) FindActiveAlert(ctx context.Context, entryID id.ID) (*inventory.Alert, error) {
	q := r.alerts.Select().
		Where(sq.Eq{"stock_entry_id": entryID, "status": inventory.AlertActive}).
		OrderBy("id DESC").
		Limit(1)
	return r.alerts.FindOne(ctx, q, entryID)
}

func (r *InventoryRepo) UpdateAlert(ctx context.Context, alert *inventory.Alert) error {
	return r.alerts.UpdateByID(ctx, alert.ID, map[string]any{
		"type":             alert.Type,
		"current_quantity": alert.CurrentQuantity,
		"threshold":        alert.Threshold,
		"status":           alert.Status,
		"updated_at":       alert.UpdatedAt,
		"resolved_at":      alert.ResolvedAt,
		"resolved_by":      alert.ResolvedBy,
	})
}

func (r *InventoryRepo) ResolveActiveAlerts(ctx context.Context, entryID id.ID, at time.Time, by *id.ID) (int64, error) {
	sql, args, err := postgres.Builder().
		Update(r.alerts.Table()).
		Set("status", inventory.AlertResolved).
		Set("resolved_at", at).
		Set("resolved_by", by).
		Set("updated_at", at).
		Where(sq.Eq{"stock_entry_id": entryID, "status": inventory.AlertActive}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build resolve: %w", err)
	}
	tag, err := r.alerts.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *InventoryRepo) GetAlert(ctx context.Context, alertID id.ID) (*inventory.Alert, error) {
	return r.alerts.GetByID(ctx, alertID)
}

func (r *InventoryRepo) ListAlerts(ctx context.Context, filter inventory.AlertFilter) ([]inventory.Alert, int64, error) {
	q := r.alerts.SelectAs("a").Join("stores s ON s.id = a.store_id")
	q = postgres.ApplyScope(q, filter.Scope, "s")
	if filter.StoreID != nil {
		q = q.Where(sq.Eq{"a.store_id": *filter.StoreID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"a.status": filter.Status})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"a.type": filter.Type})
	}
	return r.alerts.Page(ctx, q, "a.id DESC", filter.Limit, filter.Offset)
}

// CreateAudit writes the header and COPYs the discrepancies; it must run
// inside the audit's transaction.
func (r *InventoryRepo) CreateAudit(ctx context.Context, audit *inventory.Audit, discrepancies []inventory.AuditDiscrepancy) error {
	if err := r.audits.Insert(ctx, audit); err != nil {
		return err
	}
	rows := make([][]any, 0, len(discrepancies))
	for i := range discrepancies {
		data := postgres.StructToMap(&discrepancies[i])
		row := make([]any, len(discrepancyColumns))
		for j, col := range discrepancyColumns {
			row[j] = data[col]
		}
		rows = append(rows, row)
	}
	if _, err := r.inserter.CopyFromSlice(ctx, discrepanciesTable, discrepancyColumns, rows); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}
