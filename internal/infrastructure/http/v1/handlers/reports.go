package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/reports"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// InventorySummary handles GET /reports/inventory-summary
func (h *ReportsHandler) InventorySummary(c *gin.Context) {
	summary, err := h.service.InventorySummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Credit handles GET /reports/credit
func (h *ReportsHandler) Credit(c *gin.Context) {
	report, err := h.service.CreditReport(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Sales handles GET /reports/sales
func (h *ReportsHandler) Sales(c *gin.Context) {
	var q dto.SalesReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	report, err := h.service.SalesReport(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Occupancy handles GET /stores/:id/occupancy
func (h *ReportsHandler) Occupancy(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.service.LocationOccupancy(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": rows})
}
