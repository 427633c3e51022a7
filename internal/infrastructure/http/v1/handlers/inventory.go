package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/inventory"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles stock entries, audits and alerts.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// List handles GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.EntryListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /inventory/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entry)
}

// Receive handles POST /inventory/receive
func (h *InventoryHandler) Receive(c *gin.Context) {
	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	change, err := h.service.Receive(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, change)
}

// Adjust handles POST /inventory/:id/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	change, err := h.service.AdjustQuantity(c.Request.Context(), entryID, req.Action, req.Amount, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, change)
}

// Move handles POST /inventory/:id/move
func (h *InventoryHandler) Move(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.MoveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.MoveQuantity(c.Request.Context(), entryID, req.Destination, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Bulk handles POST /inventory/bulk
func (h *InventoryHandler) Bulk(c *gin.Context) {
	var req dto.BulkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.BulkAdjust(c.Request.Context(), req.ToDomain(), req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Audit handles POST /inventory/audit
func (h *InventoryHandler) Audit(c *gin.Context) {
	var req dto.AuditRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.PerformAudit(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// History handles GET /inventory/:id/history
func (h *InventoryHandler) History(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.History(c.Request.Context(), entryID, q.Page())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ListAlerts handles GET /inventory/alerts
func (h *InventoryHandler) ListAlerts(c *gin.Context) {
	var q dto.AlertListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ResolveAlert handles POST /inventory/alerts/:id/resolve
func (h *InventoryHandler) ResolveAlert(c *gin.Context) {
	alertID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	alert, err := h.service.ResolveAlert(c.Request.Context(), alertID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, alert)
}
