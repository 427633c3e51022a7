package dto

import (
	"stockroom/internal/core/id"
	"stockroom/internal/domain/ticket"
)

// CreateTicketRequest raises a ticket.
type CreateTicketRequest struct {
	StoreID         id.ID  `json:"storeId"`
	ProductID       *id.ID `json:"productId"`
	QuantityMissing int64  `json:"quantityMissing"`
	Description     string `json:"description" binding:"required"`
	Priority        string `json:"priority"`
}

// ToDomain converts to the domain request.
func (r *CreateTicketRequest) ToDomain() ticket.CreateRequest {
	return ticket.CreateRequest{
		StoreID:         r.StoreID,
		ProductID:       r.ProductID,
		QuantityMissing: r.QuantityMissing,
		Description:     r.Description,
		Priority:        r.Priority,
	}
}

// UpdateTicketRequest edits an open ticket.
type UpdateTicketRequest struct {
	Description     *string `json:"description"`
	Priority        *string `json:"priority"`
	QuantityMissing *int64  `json:"quantityMissing"`
}

// ToDomain converts to the domain request.
func (r *UpdateTicketRequest) ToDomain() ticket.UpdateRequest {
	return ticket.UpdateRequest{
		Description:     r.Description,
		Priority:        r.Priority,
		QuantityMissing: r.QuantityMissing,
	}
}

// ResolveTicketRequest closes a ticket.
type ResolveTicketRequest struct {
	ActionTaken string `json:"actionTaken" binding:"required"`
}

// ReopenTicketRequest reopens a closed ticket.
type ReopenTicketRequest struct {
	Reason string `json:"reason"`
}

// CommentRequest adds a comment.
type CommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// TicketListQuery filters GET /tickets.
type TicketListQuery struct {
	PageQuery
	StoreID  string `form:"storeId"`
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Search   string `form:"search"`
}

// ToFilter converts to the domain filter.
func (q *TicketListQuery) ToFilter() (ticket.Filter, error) {
	storeID, err := OptionalID("storeId", q.StoreID)
	if err != nil {
		return ticket.Filter{}, err
	}
	page := q.Page()
	return ticket.Filter{
		StoreID:  storeID,
		Status:   ticket.Status(q.Status),
		Priority: ticket.Priority(q.Priority),
		Search:   q.Search,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}, nil
}
