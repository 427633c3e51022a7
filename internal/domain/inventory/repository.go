package inventory

import (
	"context"
	"time"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
)

// Repository defines stock ledger storage. Every *ForUpdate method
// locks the returned rows until the surrounding transaction ends.
type Repository interface {
	GetEntry(ctx context.Context, entryID id.ID) (*StockEntry, error)
	GetEntryForUpdate(ctx context.Context, entryID id.ID) (*StockEntry, error)

	// FindEntryForUpdate returns NOT_FOUND when no entry has key.
	FindEntryForUpdate(ctx context.Context, key EntryKey) (*StockEntry, error)

	// EnsureEntryForUpdate inserts entry unless its key exists and returns
	// the locked row for the key. Safe against concurrent creators.
	EnsureEntryForUpdate(ctx context.Context, entry *StockEntry) (*StockEntry, error)

	// FindLargestEntryForUpdate locks the store's entry with the highest
	// quantity of product, NOT_FOUND if the store never held it.
	FindLargestEntryForUpdate(ctx context.Context, storeID, productID id.ID) (*StockEntry, error)

	// LockEntriesAtLocation locks every entry at one store location.
	LockEntriesAtLocation(ctx context.Context, storeID id.ID, loc entity.Location) ([]StockEntry, error)

	// UpdateQuantity writes Quantity and UpdatedAt.
	UpdateQuantity(ctx context.Context, entry *StockEntry) error

	ListEntries(ctx context.Context, filter EntryFilter) ([]StockEntry, int64, error)

	AppendLog(ctx context.Context, entry *LogEntry) error
	ListLog(ctx context.Context, entryID id.ID, limit, offset int) ([]LogEntry, int64, error)

	CreateAlert(ctx context.Context, alert *Alert) error
	// FindActiveAlert returns NOT_FOUND when the entry has no active alert.
	FindActiveAlert(ctx context.Context, entryID id.ID) (*Alert, error)
	UpdateAlert(ctx context.Context, alert *Alert) error
	ResolveActiveAlerts(ctx context.Context, entryID id.ID, at time.Time, by *id.ID) (int64, error)
	GetAlert(ctx context.Context, alertID id.ID) (*Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, int64, error)

	CreateAudit(ctx context.Context, audit *Audit, discrepancies []AuditDiscrepancy) error
}
