package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/invoice"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles distribution and outlet-sale invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// CreateDistribution handles POST /invoices/distribution
func (h *InvoiceHandler) CreateDistribution(c *gin.Context) {
	var req dto.DistributionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.CreateDistribution(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// CreateOutletSale handles POST /invoices/outlet-sale
func (h *InvoiceHandler) CreateOutletSale(c *gin.Context) {
	var req dto.OutletSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.CreateOutletSale(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
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

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// UpdateStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.UpdateStatus(c.Request.Context(), invoiceID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}
