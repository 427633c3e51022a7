package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain"
	"stockroom/internal/domain/catalog"
	"stockroom/pkg/logger"
)

const entityType = "ticket"

// Service runs the ticket state machine. Every operation re-checks the
// store ownership rule.
type Service struct {
	repo      Repository
	catalog   catalog.Reader
	numerator numerator.Generator
	txManager tx.Manager
	events    outbox.Publisher
	history   history.Recorder
}

// NewService creates a new ticket service.
func NewService(
	repo Repository,
	catalogReader catalog.Reader,
	gen numerator.Generator,
	txManager tx.Manager,
	events outbox.Publisher,
	recorder history.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogReader,
		numerator: gen,
		txManager: txManager,
		events:    events,
		history:   recorder,
	}
}

// CreateRequest holds ticket creation input.
type CreateRequest struct {
	StoreID         id.ID
	ProductID       *id.ID
	QuantityMissing int64
	Description     string
	Priority        string
}

// Create raises a ticket in the open state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Ticket, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	t := &Ticket{
		BaseEntity:      entity.NewBaseEntity(),
		StoreID:         req.StoreID,
		ProductID:       req.ProductID,
		QuantityMissing: req.QuantityMissing,
		Description:     strings.TrimSpace(req.Description),
		Priority:        priority,
		Status:          StatusOpen,
		RaisedBy:        actor.UserID,
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err := s.accessibleStore(ctx, actor, req.StoreID)
		if err != nil {
			return err
		}
		if req.ProductID != nil {
			product, err := s.catalog.GetProduct(ctx, *req.ProductID)
			if err != nil {
				return err
			}
			if product.AdminID != store.AdminID {
				return apperror.NewNotFound("product", *req.ProductID)
			}
		}
		t.TicketNumber, err = s.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig(numerator.PrefixTicket), numerator.DefaultOptions(), t.CreatedAt)
		if err != nil {
			return fmt.Errorf("next ticket number: %w", err)
		}
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}
		if err := s.systemComment(ctx, actor, t, "Ticket raised"); err != nil {
			return err
		}
		return s.history.Record(ctx, entityType, t.ID, history.ActionCreate, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket created", "ticket_id", t.ID, "ticket_number", t.TicketNumber, "store_id", t.StoreID)
	return t, nil
}

// Get returns one ticket.
func (s *Service) Get(ctx context.Context, ticketID id.ID) (*Ticket, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleStore(ctx, actor, t.StoreID); err != nil {
		return nil, err
	}
	return t, nil
}

// List lists tickets within the actor's stores, newest first.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[Ticket], error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return domain.ListResult[Ticket]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Scope = scope
	filter.Limit, filter.Offset = page.Limit, page.Offset
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[Ticket]{}, fmt.Errorf("list tickets: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

// UpdateRequest holds editable fields; nil means unchanged.
type UpdateRequest struct {
	Description     *string
	Priority        *string
	QuantityMissing *int64
}

// Update edits a ticket that is not closed. Only the raiser or an
// admin of the store may edit.
func (s *Service) Update(ctx context.Context, ticketID id.ID, req UpdateRequest) (*Ticket, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var t *Ticket
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err = s.repo.GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, t.StoreID); err != nil {
			return err
		}
		if t.Status == StatusClosed {
			return apperror.NewValidation("closed tickets cannot be updated").WithDetail("status", t.Status)
		}
		if t.RaisedBy != actor.UserID && actor.Role == appctx.RoleStoreManager {
			return apperror.NewAccessDenied("only the ticket creator or an admin can update")
		}

		before := ticketState(t)
		if req.Description != nil {
			t.Description = strings.TrimSpace(*req.Description)
		}
		if req.Priority != nil {
			if t.Priority, err = ParsePriority(*req.Priority); err != nil {
				return err
			}
		}
		if req.QuantityMissing != nil {
			t.QuantityMissing = *req.QuantityMissing
		}
		if err := t.Validate(ctx); err != nil {
			return err
		}
		t.Touch()
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.history.Record(ctx, entityType, t.ID, history.ActionUpdate, history.Diff(before, ticketState(t)))
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func ticketState(t *Ticket) map[string]any {
	return map[string]any{
		"description":     t.Description,
		"priority":        t.Priority,
		"quantityMissing": t.QuantityMissing,
	}
}

// Acknowledge moves an open ticket to in_progress. Only the store's
// manager may acknowledge.
func (s *Service) Acknowledge(ctx context.Context, ticketID id.ID) (*Ticket, error) {
	return s.transition(ctx, ticketID, StatusInProgress, func(actor *appctx.UserContext, t *Ticket) (string, error) {
		if actor.Role != appctx.RoleStoreManager {
			return "", apperror.NewAccessDenied("only store managers can acknowledge tickets")
		}
		return "Ticket acknowledged by store manager", nil
	})
}

// Resolve closes an in_progress ticket with the action taken.
func (s *Service) Resolve(ctx context.Context, ticketID id.ID, actionTaken string) (*Ticket, error) {
	actionTaken = strings.TrimSpace(actionTaken)
	if actionTaken == "" {
		return nil, apperror.NewValidation("action taken is required").WithDetail("field", "actionTaken")
	}
	return s.transition(ctx, ticketID, StatusClosed, func(actor *appctx.UserContext, t *Ticket) (string, error) {
		if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
			return "", err
		}
		at := time.Now().UTC()
		by := actor.UserID
		t.ActionTaken = actionTaken
		t.ResolvedBy = &by
		t.ResolvedAt = &at
		return "Ticket resolved: " + actionTaken, nil
	})
}

// Reopen moves a closed ticket back to open.
func (s *Service) Reopen(ctx context.Context, ticketID id.ID, reason string) (*Ticket, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, ticketID, StatusOpen, func(actor *appctx.UserContext, t *Ticket) (string, error) {
		t.ResolvedBy = nil
		t.ResolvedAt = nil
		if reason == "" {
			return "Ticket reopened", nil
		}
		return "Ticket reopened: " + reason, nil
	})
}

// transition locks the ticket, checks access and the state machine,
// lets apply mutate it and appends the returned system comment.
func (s *Service) transition(
	ctx context.Context,
	ticketID id.ID,
	to Status,
	apply func(actor *appctx.UserContext, t *Ticket) (string, error),
) (*Ticket, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var t *Ticket
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err = s.repo.GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, t.StoreID); err != nil {
			return err
		}
		from := t.Status
		if !CanTransition(from, to) {
			return apperror.NewInvalidTransition(entityType, string(from), string(to))
		}
		note, err := apply(actor, t)
		if err != nil {
			return err
		}
		t.Status = to
		t.Touch()
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if err := s.systemComment(ctx, actor, t, note); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, outbox.Event{
			AggregateType: entityType,
			AggregateID:   t.ID,
			EventType:     outbox.EventTicketChanged,
			Payload: map[string]any{
				"ticketNumber": t.TicketNumber,
				"storeId":      t.StoreID,
				"from":         from,
				"to":           to,
				"by":           actor.UserID,
			},
		}); err != nil {
			return err
		}
		return s.history.Record(ctx, entityType, t.ID, history.ActionStatusChange,
			map[string]any{"status": map[string]any{"old": from, "new": to}})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket status changed", "ticket_id", t.ID, "status", t.Status)
	return t, nil
}

// AddComment appends a user comment.
func (s *Service) AddComment(ctx context.Context, ticketID id.ID, body string) (*Comment, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.NewValidation("comment is required").WithDetail("field", "comment")
	}

	c := &Comment{
		ID:        id.New(),
		TicketID:  ticketID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.Get(ctx, ticketID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, t.StoreID); err != nil {
			return err
		}
		return s.repo.AddComment(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Comments returns the ticket's comments, oldest first.
func (s *Service) Comments(ctx context.Context, ticketID id.ID) ([]Comment, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.repo.Comments(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Stats counts a store's tickets by status.
func (s *Service) Stats(ctx context.Context, storeID id.ID) (*Stats, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleStore(ctx, actor, storeID); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	stats := &Stats{
		Open:       counts[StatusOpen],
		InProgress: counts[StatusInProgress],
		Closed:     counts[StatusClosed],
	}
	stats.Total = stats.Open + stats.InProgress + stats.Closed
	return stats, nil
}

func (s *Service) systemComment(ctx context.Context, actor *appctx.UserContext, t *Ticket, body string) error {
	if err := s.repo.AddComment(ctx, &Comment{
		ID:        id.New(),
		TicketID:  t.ID,
		UserID:    actor.UserID,
		Body:      body,
		IsSystem:  true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("add system comment: %w", err)
	}
	return nil
}

func (s *Service) accessibleStore(ctx context.Context, actor *appctx.UserContext, storeID id.ID) (*catalog.Store, error) {
	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
		return nil, err
	}
	return store, nil
}
