package invoice

import (
	"context"

	"stockroom/internal/core/id"
)

// Repository defines invoice storage operations.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	// AddItems bulk-inserts lines; requires a transaction.
	AddItems(ctx context.Context, items []Item) error
	Get(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	Items(ctx context.Context, invoiceID id.ID) ([]Item, error)
	// Update writes status, amounts and updated_at.
	Update(ctx context.Context, inv *Invoice) error
	AddPayment(ctx context.Context, payment *Payment) error
	Payments(ctx context.Context, invoiceID id.ID) ([]Payment, error)
	List(ctx context.Context, filter Filter) ([]Invoice, int64, error)
}
