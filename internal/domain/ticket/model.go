// Package ticket implements dishonour tickets: discrepancy reports
// raised against a store and worked through a fixed state machine.
package ticket

import (
	"context"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

// Status is the ticket lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// ParseStatus validates a status filter value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusClosed:
		return Status(s), nil
	}
	return "", apperror.NewValidation("status must be open, in_progress or closed").WithDetail("status", s)
}

// transitions lists the allowed moves.
var transitions = map[Status]Status{
	StatusOpen:       StatusInProgress,
	StatusInProgress: StatusClosed,
	StatusClosed:     StatusOpen,
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Priority of a ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates p; empty means medium.
func ParsePriority(p string) (Priority, error) {
	switch Priority(p) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(p), nil
	}
	return "", apperror.NewValidation("priority must be low, medium or high").WithDetail("priority", p)
}

// Ticket is a discrepancy report.
type Ticket struct {
	entity.BaseEntity
	TicketNumber    string     `db:"ticket_number" json:"ticketNumber"`
	StoreID         id.ID      `db:"store_id" json:"storeId"`
	ProductID       *id.ID     `db:"product_id" json:"productId,omitempty"`
	QuantityMissing int64      `db:"quantity_missing" json:"quantityMissing"`
	Description     string     `db:"description" json:"description"`
	Priority        Priority   `db:"priority" json:"priority"`
	Status          Status     `db:"status" json:"status"`
	RaisedBy        id.ID      `db:"raised_by" json:"raisedBy"`
	ActionTaken     string     `db:"action_taken" json:"actionTaken,omitempty"`
	ResolvedBy      *id.ID     `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

func (t *Ticket) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Description) == "" {
		return apperror.NewValidation("description is required").WithDetail("field", "description")
	}
	if t.QuantityMissing < 0 {
		return apperror.NewValidation("quantity missing must not be negative").WithDetail("field", "quantityMissing")
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	return nil
}

// Comment is an append-only note on a ticket. System comments record
// transitions.
type Comment struct {
	ID        id.ID     `db:"id" json:"id"`
	TicketID  id.ID     `db:"ticket_id" json:"ticketId"`
	UserID    id.ID     `db:"user_id" json:"userId"`
	Body      string    `db:"body" json:"body"`
	IsSystem  bool      `db:"is_system" json:"isSystem"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Filter for listing tickets.
type Filter struct {
	Scope    security.AccessScope
	StoreID  *id.ID
	Status   Status
	Priority Priority
	Search   string
	Limit    int
	Offset   int
}

// Stats counts a store's tickets by status.
type Stats struct {
	Total      int64 `json:"totalTickets"`
	Open       int64 `json:"openTickets"`
	InProgress int64 `json:"inProgressTickets"`
	Closed     int64 `json:"resolvedTickets"`
}
