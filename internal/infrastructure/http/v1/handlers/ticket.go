package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/ticket"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// TicketHandler handles missing-stock tickets.
type TicketHandler struct {
	*BaseHandler
	service *ticket.Service
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(base *BaseHandler, service *ticket.Service) *TicketHandler {
	return &TicketHandler{BaseHandler: base, service: service}
}

// Create handles POST /tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// List handles GET /tickets
func (h *TicketHandler) List(c *gin.Context) {
	var q dto.TicketListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Update handles PUT /tickets/:id
func (h *TicketHandler) Update(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Update(c.Request.Context(), ticketID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Acknowledge handles POST /tickets/:id/acknowledge
func (h *TicketHandler) Acknowledge(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Acknowledge(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Resolve handles POST /tickets/:id/resolve
func (h *TicketHandler) Resolve(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Resolve(c.Request.Context(), ticketID, req.ActionTaken)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Reopen handles POST /tickets/:id/reopen
func (h *TicketHandler) Reopen(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReopenTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Reopen(c.Request.Context(), ticketID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// AddComment handles POST /tickets/:id/comments
func (h *TicketHandler) AddComment(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), ticketID, req.Comment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, comment)
}

// Comments handles GET /tickets/:id/comments
func (h *TicketHandler) Comments(c *gin.Context) {
	ticketID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.service.Comments(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": comments})
}

// Stats handles GET /stores/:id/ticket-stats
func (h *TicketHandler) Stats(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}
