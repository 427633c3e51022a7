package memstore

import (
	"context"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/ticket"
)

// TicketRepo implements ticket.Repository.
type TicketRepo struct{ db *DB }

var _ ticket.Repository = (*TicketRepo)(nil)

func (r *TicketRepo) Create(_ context.Context, t *ticket.Ticket) error {
	return r.db.write(func(s *state) error {
		s.tickets[t.ID] = *t
		return nil
	})
}

func (r *TicketRepo) Get(_ context.Context, ticketID id.ID) (*ticket.Ticket, error) {
	var (
		v  ticket.Ticket
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.tickets[ticketID] })
	if !ok {
		return nil, apperror.NewNotFound("ticket", ticketID)
	}
	return &v, nil
}

func (r *TicketRepo) GetForUpdate(ctx context.Context, ticketID id.ID) (*ticket.Ticket, error) {
	return r.Get(ctx, ticketID)
}

func (r *TicketRepo) Update(_ context.Context, t *ticket.Ticket) error {
	return r.db.write(func(s *state) error {
		if _, ok := s.tickets[t.ID]; !ok {
			return apperror.NewNotFound("ticket", t.ID)
		}
		s.tickets[t.ID] = *t
		return nil
	})
}

func (r *TicketRepo) List(_ context.Context, filter ticket.Filter) ([]ticket.Ticket, int64, error) {
	search := strings.ToLower(filter.Search)
	var out []ticket.Ticket
	r.db.read(func(s *state) {
		for _, t := range s.tickets {
			store, ok := s.stores[t.StoreID]
			if !ok || !filter.Scope.Allows(store.Owner()) {
				continue
			}
			if filter.StoreID != nil && t.StoreID != *filter.StoreID {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.Priority != "" && t.Priority != filter.Priority {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(t.TicketNumber), search) &&
				!strings.Contains(strings.ToLower(t.Description), search) &&
				!strings.Contains(strings.ToLower(t.ActionTaken), search) {
				continue
			}
			out = append(out, t)
		}
	})
	sortNewest(out, func(v ticket.Ticket) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *TicketRepo) AddComment(_ context.Context, c *ticket.Comment) error {
	return r.db.write(func(s *state) error {
		s.comments = append(s.comments, *c)
		return nil
	})
}

func (r *TicketRepo) Comments(_ context.Context, ticketID id.ID) ([]ticket.Comment, error) {
	var out []ticket.Comment
	r.db.read(func(s *state) {
		for _, c := range s.comments {
			if c.TicketID == ticketID {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

func (r *TicketRepo) CountByStatus(_ context.Context, storeID id.ID) (map[ticket.Status]int64, error) {
	counts := make(map[ticket.Status]int64)
	r.db.read(func(s *state) {
		for _, t := range s.tickets {
			if t.StoreID == storeID {
				counts[t.Status]++
			}
		}
	})
	return counts, nil
}
