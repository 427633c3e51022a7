package ticket

import (
	"context"

	"stockroom/internal/core/id"
)

// Repository defines ticket storage operations.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, ticketID id.ID) (*Ticket, error)
	GetForUpdate(ctx context.Context, ticketID id.ID) (*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	List(ctx context.Context, filter Filter) ([]Ticket, int64, error)

	AddComment(ctx context.Context, c *Comment) error
	// Comments returns a ticket's comments, oldest first.
	Comments(ctx context.Context, ticketID id.ID) ([]Comment, error)

	CountByStatus(ctx context.Context, storeID id.ID) (map[Status]int64, error)
}
