package expenditure

import (
	"context"

	"stockroom/internal/core/id"
)

// Repository defines expenditure storage operations.
type Repository interface {
	Create(ctx context.Context, e *Expenditure) error
	Get(ctx context.Context, expenditureID id.ID) (*Expenditure, error)
	GetForUpdate(ctx context.Context, expenditureID id.ID) (*Expenditure, error)
	Update(ctx context.Context, e *Expenditure) error
	List(ctx context.Context, filter Filter) ([]Expenditure, int64, error)
	Summarize(ctx context.Context, filter Filter) (Summary, error)
}
