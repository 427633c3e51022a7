package numerator

import (
	"context"
	"time"
)

// Generator hands out sequential document numbers.
type Generator interface {
	// GetNextNumber returns the next number for cfg in the given period.
	// With the strict strategy the increment joins the transaction in ctx.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}
