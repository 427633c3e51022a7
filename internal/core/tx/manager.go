// Package tx defines the transaction boundary used by domain services.
// The pgx implementation lives in infrastructure/storage/postgres; an
// in-memory one lives in infrastructure/storage/memstore.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// If fn returns an error, every write made through ctx is rolled back.
// Nested calls reuse the transaction already present in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInSavepoint runs fn inside the transaction in ctx (starting one
	// if needed) so that an error undoes only fn's writes and leaves the
	// outer transaction usable.
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for
// projections that need a consistent snapshot.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
