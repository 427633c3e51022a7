package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/domain/expenditure"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ExpenditureHandler handles admin expenses.
type ExpenditureHandler struct {
	*BaseHandler
	service *expenditure.Service
}

// NewExpenditureHandler creates a new expenditure handler.
func NewExpenditureHandler(base *BaseHandler, service *expenditure.Service) *ExpenditureHandler {
	return &ExpenditureHandler{BaseHandler: base, service: service}
}

// Create handles POST /expenditures
func (h *ExpenditureHandler) Create(c *gin.Context) {
	var req dto.CreateExpenditureRequest
	if !h.BindJSON(c, &req) {
		return
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}
	e, err := h.service.Create(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// List handles GET /expenditures
func (h *ExpenditureHandler) List(c *gin.Context) {
	var q dto.ExpenditureListQuery
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

// Get handles GET /expenditures/:id
func (h *ExpenditureHandler) Get(c *gin.Context) {
	expenditureID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), expenditureID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Verify handles POST /expenditures/:id/verify
func (h *ExpenditureHandler) Verify(c *gin.Context) {
	expenditureID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Verify(c.Request.Context(), expenditureID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}
