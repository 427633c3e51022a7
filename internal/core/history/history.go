// Package history records who changed what on long-lived aggregates
// (invoices, tickets, stores). It complements the stock transaction
// log, which covers quantity changes only.
package history

import (
	"context"
	"time"

	"stockroom/internal/core/id"
)

// Action names a recorded change.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionStatusChange Action = "status_change"
	ActionDelete       Action = "delete"
)

// Entry is one history row. Changes is any JSON-serializable value.
type Entry struct {
	ID         id.ID     `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   id.ID     `json:"entityId"`
	Action     Action    `json:"action"`
	UserID     id.ID     `json:"userId"`
	Changes    any       `json:"changes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recorder persists entries in the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action Action, changes any) error
}

// Diff returns {field: {old, new}} for fields whose values differ.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)
	for key, newVal := range newState {
		oldVal, ok := oldState[key]
		if !ok || !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, ok := newState[key]; !ok {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes
}
