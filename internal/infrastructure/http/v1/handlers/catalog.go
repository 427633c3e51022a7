package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/core/entity"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles stores, locations, outlets, categories and products.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// --- Stores ---

// CreateStore handles POST /stores
func (h *CatalogHandler) CreateStore(c *gin.Context) {
	var req dto.CreateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}
	store, err := h.service.CreateStore(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, store)
}

// ListStores handles GET /stores
func (h *CatalogHandler) ListStores(c *gin.Context) {
	var q dto.StoreListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListStores(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetStore handles GET /stores/:id
func (h *CatalogHandler) GetStore(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	store, err := h.service.GetStore(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, store)
}

// UpdateStore handles PUT /stores/:id
func (h *CatalogHandler) UpdateStore(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}
	store, err := h.service.UpdateStore(c.Request.Context(), storeID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, store)
}

// AssignManager handles PUT /stores/:id/manager
func (h *CatalogHandler) AssignManager(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignManagerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	store, err := h.service.AssignManager(c.Request.Context(), storeID, req.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, store)
}

// --- Locations ---

// CreateLocation returns the handler for POST /stores/:id/{rooms,racks,freezers}.
func (h *CatalogHandler) CreateLocation(kind entity.LocationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		var req dto.CreateLocationRequest
		if !h.BindJSON(c, &req) {
			return
		}
		loc, err := h.service.CreateLocation(c.Request.Context(), req.ToDomain(storeID, kind))
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, loc)
	}
}

// ListLocations returns the handler for GET /stores/:id/{rooms,racks,freezers}.
func (h *CatalogHandler) ListLocations(kind entity.LocationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		locs, err := h.service.ListLocations(c.Request.Context(), storeID, kind)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{"items": locs})
	}
}

// --- Outlets ---

// CreateOutlet handles POST /stores/:id/outlets
func (h *CatalogHandler) CreateOutlet(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateOutletRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.service.CreateOutlet(c.Request.Context(), req.ToDomain(storeID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, outlet)
}

// ListOutlets handles GET /stores/:id/outlets
func (h *CatalogHandler) ListOutlets(c *gin.Context) {
	storeID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	outlets, err := h.service.ListOutlets(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": outlets})
}

// UpdateOutlet handles PUT /outlets/:id
func (h *CatalogHandler) UpdateOutlet(c *gin.Context) {
	outletID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOutletRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.service.UpdateOutlet(c.Request.Context(), outletID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, outlet)
}

// SetOutletStatus handles PATCH /outlets/:id/status
func (h *CatalogHandler) SetOutletStatus(c *gin.Context) {
	outletID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.OutletStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.service.SetOutletActive(c.Request.Context(), outletID, *req.IsActive)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, outlet)
}

// --- Categories ---

// CreateCategory handles POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, category)
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": categories})
}

// --- Products ---

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.service.CreateProduct(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, product)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, product)
}

// UpdateProduct handles PUT /products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.service.UpdateProduct(c.Request.Context(), productID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, product)
}
