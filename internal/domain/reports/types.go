// Package reports provides read-side projections over stock, credit
// and invoices.
package reports

import (
	"time"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/credit"
)

// --- Inventory summary ---

// InventoryTotals are the scalar aggregates over stock entries.
// LowStockItems excludes empty entries, which count as out of stock.
type InventoryTotals struct {
	TotalItems      int64       `db:"total_items" json:"totalItems"`
	TotalQuantity   int64       `db:"total_quantity" json:"totalQuantity"`
	TotalValue      types.Money `db:"total_value" json:"totalValue"`
	UniqueProducts  int64       `db:"unique_products" json:"uniqueProducts"`
	LowStockItems   int64       `db:"low_stock_items" json:"lowStockItems"`
	OutOfStockItems int64       `db:"out_of_stock_items" json:"outOfStockItems"`
}

// Breakdown groups stock by category or store.
type Breakdown struct {
	ID            id.ID       `db:"id" json:"id"`
	Name          string      `db:"name" json:"name"`
	ItemCount     int64       `db:"item_count" json:"itemCount"`
	TotalQuantity int64       `db:"total_quantity" json:"totalQuantity"`
	TotalValue    types.Money `db:"total_value" json:"totalValue"`
}

// InventorySummary is the dashboard view of stock health.
type InventorySummary struct {
	InventoryTotals
	HealthPercentage  float64     `json:"healthPercentage"`
	CategoryBreakdown []Breakdown `json:"categoryBreakdown"`
	StoreBreakdown    []Breakdown `json:"storeBreakdown"`
}

// --- Credit ---

// CreditRow is one account as stored.
type CreditRow struct {
	Kind          credit.AccountKind `db:"kind" json:"kind"`
	ID            id.ID              `db:"id" json:"id"`
	StoreID       id.ID              `db:"store_id" json:"storeId"`
	Name          string             `db:"name" json:"name"`
	CreditLimit   types.Money        `db:"credit_limit" json:"creditLimit"`
	CurrentCredit types.Money        `db:"current_credit" json:"currentCredit"`
}

// CreditLine is a CreditRow with derived figures.
type CreditLine struct {
	CreditRow
	AvailableCredit types.Money `json:"availableCredit"`
	Utilization     float64     `json:"utilization"`
}

// CreditReport lists store and outlet balances with store totals.
type CreditReport struct {
	Stores         []CreditLine `json:"stores"`
	Outlets        []CreditLine `json:"outlets"`
	TotalLimit     types.Money  `json:"totalCreditLimit"`
	TotalCurrent   types.Money  `json:"totalCurrentCredit"`
	TotalAvailable types.Money  `json:"totalAvailableCredit"`
	Utilization    float64      `json:"utilization"`
}

// --- Sales ---

// SalesFilter selects invoices by creation day. Type empty means all.
type SalesFilter struct {
	Scope   security.AccessScope
	StoreID *id.ID
	From    time.Time
	To      time.Time
	Type    string
}

// SalesRow aggregates one day and payment method.
type SalesRow struct {
	Day           time.Time   `db:"day" json:"day"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`
	InvoiceCount  int64       `db:"invoice_count" json:"invoiceCount"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`
	CreditAmount  types.Money `db:"credit_amount" json:"creditAmount"`
	PaidAmount    types.Money `db:"paid_amount" json:"paidAmount"`
}

// SalesReport is the per-day sales projection.
type SalesReport struct {
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	Rows         []SalesRow  `json:"rows"`
	InvoiceCount int64       `json:"invoiceCount"`
	TotalAmount  types.Money `json:"totalAmount"`
	CreditAmount types.Money `json:"creditAmount"`
	PaidAmount   types.Money `json:"paidAmount"`
}

// --- Occupancy ---

// LocationStock is a location with the quantity stored at it.
type LocationStock struct {
	Kind     entity.LocationKind `db:"kind" json:"kind"`
	ID       id.ID               `db:"id" json:"id"`
	Name     string              `db:"name" json:"name"`
	RoomID   *id.ID              `db:"room_id" json:"roomId,omitempty"`
	Capacity *int64              `db:"capacity" json:"capacity,omitempty"`
	Stored   int64               `db:"stored" json:"stored"`
}

// Occupancy adds the advisory capacity figures.
type Occupancy struct {
	LocationStock
	UsedPercentage float64 `json:"usedPercentage"`
	OverCapacity   bool    `json:"overCapacity"`
}
