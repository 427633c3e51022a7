package context

import (
	"context"

	"github.com/google/uuid"
)

// Trace origins.
const (
	OriginHTTP   = "http"
	OriginOutbox = "outbox"
	OriginSeed   = "seed"
)

// TraceContext correlates the log lines and spans of one unit of work:
// an API request, a worker pass or a seed run.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// NewTrace starts a trace for background work that has no inbound
// request. RequestID is left empty.
func NewTrace(origin string) *TraceContext {
	return &TraceContext{
		TraceID: uuid.New().String(),
		SpanID:  uuid.New().String()[:16],
		Origin:  origin,
	}
}
