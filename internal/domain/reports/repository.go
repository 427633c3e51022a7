package reports

import (
	"context"

	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

// Repository runs the aggregate queries behind the reports.
type Repository interface {
	InventoryTotals(ctx context.Context, scope security.AccessScope) (InventoryTotals, error)
	CategoryBreakdown(ctx context.Context, scope security.AccessScope) ([]Breakdown, error)
	StoreBreakdown(ctx context.Context, scope security.AccessScope) ([]Breakdown, error)

	// CreditRows returns store and outlet accounts visible to scope.
	CreditRows(ctx context.Context, scope security.AccessScope) ([]CreditRow, error)

	SalesByDay(ctx context.Context, filter SalesFilter) ([]SalesRow, error)

	LocationStock(ctx context.Context, storeID id.ID) ([]LocationStock, error)
}
