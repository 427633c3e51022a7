package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestWithContext_AddsTraceAndActor(t *testing.T) {
	log, logs := observed()
	userID := id.New()

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{
		TraceID:   "trace-1",
		RequestID: "req-1",
		Origin:    appctx.OriginHTTP,
	})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: userID, Role: appctx.RoleAdmin})
	ctx = WithLogger(ctx, log)

	Info(ctx, "inventory adjusted", "quantity", 5)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "http", fields["origin"])
	assert.Equal(t, userID.String(), fields["user_id"])
	assert.Equal(t, "admin", fields["role"])
	assert.EqualValues(t, 5, fields["quantity"])
}

func TestWithContext_BackgroundTraceHasNoRequestID(t *testing.T) {
	log, logs := observed()
	ctx := WithLogger(appctx.WithTrace(context.Background(), appctx.NewTrace(appctx.OriginOutbox)), log)

	Warn(ctx, "outbox batch failed", Err(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "outbox", fields["origin"])
	assert.NotEmpty(t, fields["trace_id"])
	assert.NotContains(t, fields, "request_id")
	assert.Equal(t, "boom", fields["error"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Service: "stockroom-test", Level: "chatty", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}
