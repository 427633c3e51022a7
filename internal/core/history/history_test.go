package history

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	old := map[string]any{
		"status":  "pending",
		"total":   decimal.RequireFromString("10.00"),
		"removed": 1,
	}
	updated := map[string]any{
		"status": "completed",
		"total":  decimal.RequireFromString("10.00"),
		"added":  true,
	}

	changes := Diff(old, updated)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": "pending", "new": "completed"}, changes["status"])
	assert.Equal(t, map[string]any{"old": nil, "new": true}, changes["added"])
	assert.Equal(t, map[string]any{"old": 1, "new": nil}, changes["removed"])
	assert.NotContains(t, changes, "total")
}
