// Package inventory implements the stock ledger: stock entries, the
// append-only transaction log and low-stock alerts.
package inventory

import (
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

// Action is the kind of quantity mutation recorded in the log.
type Action string

const (
	ActionAdd         Action = "add"
	ActionSubtract    Action = "subtract"
	ActionAdjust      Action = "adjust"
	ActionMove        Action = "move"
	ActionAuditAdjust Action = "audit_adjust"
)

// ParseAdjustAction accepts the three caller-facing actions.
func ParseAdjustAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAdd, ActionSubtract, ActionAdjust:
		return Action(s), nil
	}
	return "", apperror.NewInvalidAction(s)
}

// nextQuantity applies action to old. Subtract clamps at zero.
func nextQuantity(old int64, action Action, amount int64) (int64, error) {
	switch action {
	case ActionAdd:
		return old + amount, nil
	case ActionSubtract:
		return max(0, old-amount), nil
	case ActionAdjust, ActionAuditAdjust:
		return amount, nil
	}
	return 0, apperror.NewInvalidAction(string(action))
}

// StockEntry is the quantity of one product at one store location.
// UpdatedAt doubles as the last-updated timestamp.
type StockEntry struct {
	entity.BaseEntity
	ProductID    id.ID               `db:"product_id" json:"productId"`
	StoreID      id.ID               `db:"store_id" json:"storeId"`
	LocationKind entity.LocationKind `db:"location_kind" json:"locationKind"`
	LocationID   id.ID               `db:"location_id" json:"locationId"`
	Quantity     int64               `db:"quantity" json:"quantity"`
	ReorderLevel int64               `db:"reorder_level" json:"reorderLevel"`
}

// Location returns the entry's tagged location.
func (e *StockEntry) Location() entity.Location {
	return entity.Location{Kind: e.LocationKind, ID: e.LocationID}
}

// Key returns the entry's natural key.
func (e *StockEntry) Key() EntryKey {
	return EntryKey{ProductID: e.ProductID, StoreID: e.StoreID, Location: e.Location()}
}

// IsLow reports whether the entry is at or below its reorder level.
func (e *StockEntry) IsLow() bool {
	return e.Quantity <= e.ReorderLevel
}

// EntryKey uniquely identifies a stock entry.
type EntryKey struct {
	ProductID id.ID
	StoreID   id.ID
	Location  entity.Location
}

// NewStockEntry builds an empty entry for key.
func NewStockEntry(key EntryKey, reorderLevel int64) *StockEntry {
	return &StockEntry{
		BaseEntity:   entity.NewBaseEntity(),
		ProductID:    key.ProductID,
		StoreID:      key.StoreID,
		LocationKind: key.Location.Kind,
		LocationID:   key.Location.ID,
		ReorderLevel: reorderLevel,
	}
}

// LogEntry is one immutable transaction log row. For moves the row
// belongs to the source entry and names the destination.
type LogEntry struct {
	ID                 id.ID                `db:"id" json:"id"`
	StockEntryID       id.ID                `db:"stock_entry_id" json:"stockEntryId"`
	ProductID          id.ID                `db:"product_id" json:"productId"`
	StoreID            id.ID                `db:"store_id" json:"storeId"`
	OldQuantity        int64                `db:"old_quantity" json:"oldQuantity"`
	NewQuantity        int64                `db:"new_quantity" json:"newQuantity"`
	QuantityChanged    int64                `db:"quantity_changed" json:"quantityChanged"`
	Action             Action               `db:"action" json:"action"`
	Reason             string               `db:"reason" json:"reason"`
	PerformedBy        id.ID                `db:"performed_by" json:"performedBy"`
	FromLocationKind   *entity.LocationKind `db:"from_location_kind" json:"fromLocationKind,omitempty"`
	FromLocationID     *id.ID               `db:"from_location_id" json:"fromLocationId,omitempty"`
	ToLocationKind     *entity.LocationKind `db:"to_location_kind" json:"toLocationKind,omitempty"`
	ToLocationID       *id.ID               `db:"to_location_id" json:"toLocationId,omitempty"`
	TargetStockEntryID *id.ID               `db:"target_stock_entry_id" json:"targetStockEntryId,omitempty"`
	ReferenceType      string               `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID        *id.ID               `db:"reference_id" json:"referenceId,omitempty"`
	CreatedAt          time.Time            `db:"created_at" json:"createdAt"`
}

// AlertType distinguishes a low entry from an empty one.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
)

// AlertStatus is active until stock recovers or someone resolves it.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Alert signals an entry at or below its reorder level.
type Alert struct {
	ID              id.ID       `db:"id" json:"id"`
	StockEntryID    id.ID       `db:"stock_entry_id" json:"stockEntryId"`
	StoreID         id.ID       `db:"store_id" json:"storeId"`
	ProductID       id.ID       `db:"product_id" json:"productId"`
	Type            AlertType   `db:"type" json:"type"`
	CurrentQuantity int64       `db:"current_quantity" json:"currentQuantity"`
	Threshold       int64       `db:"threshold" json:"threshold"`
	Status          AlertStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
	ResolvedAt      *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedBy      *id.ID      `db:"resolved_by" json:"resolvedBy,omitempty"`
}

// Audit is the header of one counting pass over a location.
type Audit struct {
	ID                 id.ID               `db:"id" json:"id"`
	StoreID            id.ID               `db:"store_id" json:"storeId"`
	LocationKind       entity.LocationKind `db:"location_kind" json:"locationKind"`
	LocationID         id.ID               `db:"location_id" json:"locationId"`
	PerformedBy        id.ID               `db:"performed_by" json:"performedBy"`
	TotalItemsAudited  int                 `db:"total_items_audited" json:"totalItemsAudited"`
	DiscrepanciesFound int                 `db:"discrepancies_found" json:"discrepanciesFound"`
	Notes              string              `db:"notes" json:"notes"`
	AuditDate          time.Time           `db:"audit_date" json:"auditDate"`
}

// AuditDiscrepancy is one counted-vs-expected mismatch.
type AuditDiscrepancy struct {
	ID               id.ID  `db:"id" json:"id"`
	AuditID          id.ID  `db:"audit_id" json:"auditId"`
	ProductID        id.ID  `db:"product_id" json:"productId"`
	StockEntryID     *id.ID `db:"stock_entry_id" json:"stockEntryId,omitempty"`
	ExpectedQuantity int64  `db:"expected_quantity" json:"expectedQuantity"`
	CountedQuantity  int64  `db:"counted_quantity" json:"countedQuantity"`
	Discrepancy      int64  `db:"discrepancy" json:"discrepancy"`
	Notes            string `db:"notes" json:"notes"`
}

// EntryFilter for listing stock entries.
type EntryFilter struct {
	Scope      security.AccessScope
	StoreID    *id.ID
	ProductID  *id.ID
	CategoryID *id.ID
	Location   *entity.Location
	LowStock   bool
	OutOfStock bool
	Limit      int
	Offset     int
}

// AlertFilter for listing alerts.
type AlertFilter struct {
	Scope   security.AccessScope
	StoreID *id.ID
	Status  AlertStatus
	Type    AlertType
	Limit   int
	Offset  int
}
