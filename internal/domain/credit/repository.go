package credit

import (
	"context"

	"stockroom/internal/core/types"
)

// Repository reads and writes the credit columns of stores and outlets.
type Repository interface {
	// LockBalance reads the balance with a row lock (SELECT ... FOR UPDATE).
	LockBalance(ctx context.Context, account Account) (*Balance, error)

	// SetCurrent writes the current credit of a locked account.
	SetCurrent(ctx context.Context, account Account, current types.Money) error

	// GetBalance reads the balance without locking.
	GetBalance(ctx context.Context, account Account) (*Balance, error)
}
