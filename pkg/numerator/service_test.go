package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "stockroom/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier emulates the sys_sequences upsert: the first argument is
// the key, the optional second one the increment.
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = make(map[string]int64)
	}
	m.calls++

	key := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		increment = args[1].(int64)
	}
	m.vals[key] += increment
	return &mockRow{val: m.vals[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("DIST")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "DIST-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "DIST-2026-00002", num)

	// a different prefix has its own sequence
	num, err = svc.GetNextNumber(ctx, corenumerator.DefaultConfig("SALE"), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2026-00001", num)
}

func TestGetNextNumber_YearResets(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("TKT")

	_, err := svc.GetNextNumber(ctx, cfg, nil, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	num, err := svc.GetNextNumber(ctx, cfg, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "TKT-2026-00001", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("SALE")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2026-00001", num)
	assert.Equal(t, int64(10), q.vals["SALE_2026"])

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2026-00002", num)
	assert.Equal(t, 1, q.calls, "second number must come from memory")

	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "SALE-2026-00011", num)
	assert.Equal(t, int64(20), q.vals["SALE_2026"])
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("DIST-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("TKT-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
