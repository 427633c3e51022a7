// Package outbox defines the domain events written to the transactional
// outbox alongside the state change that produced them.
package outbox

import (
	"context"

	"stockroom/internal/core/id"
)

// Event types emitted by the domain services.
const (
	EventAlertRaised     = "inventory.alert_raised"
	EventInvoiceCreated  = "invoice.created"
	EventInvoiceSettled  = "invoice.settled"
	EventInvoiceCanceled = "invoice.cancelled"
	EventTicketChanged   = "ticket.status_changed"
)

// Event is one domain fact to deliver after commit.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher stores events in the transaction carried by ctx.
// Calling Publish outside a transaction is an error.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
