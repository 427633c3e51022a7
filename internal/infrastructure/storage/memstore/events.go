package memstore

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
)

var errNoTx = errors.New("memstore: operation requires a transaction")

// Outbox implements outbox.Publisher. Events are kept in commit order.
type Outbox struct{ db *DB }

var _ outbox.Publisher = (*Outbox)(nil)

func (o *Outbox) Publish(ctx context.Context, event outbox.Event) error {
	if !inTx(ctx) {
		return apperror.NewInternal(errNoTx)
	}
	return o.db.write(func(s *state) error {
		s.events = append(s.events, event)
		return nil
	})
}

// Events returns committed events, optionally only those of eventType.
func (o *Outbox) Events(eventType string) []outbox.Event {
	var out []outbox.Event
	o.db.read(func(s *state) {
		for _, e := range s.events {
			if eventType == "" || e.EventType == eventType {
				out = append(out, e)
			}
		}
	})
	return out
}

// HistoryRecorder implements history.Recorder.
type HistoryRecorder struct{ db *DB }

var _ history.Recorder = (*HistoryRecorder)(nil)

func (h *HistoryRecorder) Record(ctx context.Context, entityType string, entityID id.ID, action history.Action, changes any) error {
	entry := history.Entry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	}
	return h.db.write(func(s *state) error {
		s.history = append(s.history, entry)
		return nil
	})
}

// Entries returns the history of one entity, oldest first.
func (h *HistoryRecorder) Entries(entityID id.ID) []history.Entry {
	var out []history.Entry
	h.db.read(func(s *state) {
		for _, e := range s.history {
			if e.EntityID == entityID {
				out = append(out, e)
			}
		}
	})
	return out
}
