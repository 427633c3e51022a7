package dto

import (
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
)

// --- Stores ---

// CreateStoreRequest creates a store and its dummy outlet.
type CreateStoreRequest struct {
	Name        string      `json:"name" binding:"required"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	Email       string      `json:"email"`
	AdminID     *id.ID      `json:"adminId"`
	ManagerID   *id.ID      `json:"managerId"`
	CreditLimit types.Money `json:"creditLimit"`
}

// ToDomain converts to the domain request.
func (r *CreateStoreRequest) ToDomain() catalog.CreateStoreRequest {
	return catalog.CreateStoreRequest{
		Name:        r.Name,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		AdminID:     r.AdminID,
		ManagerID:   r.ManagerID,
		CreditLimit: r.CreditLimit,
	}
}

// UpdateStoreRequest edits store profile fields.
type UpdateStoreRequest struct {
	Name        *string      `json:"name"`
	Address     *string      `json:"address"`
	Phone       *string      `json:"phone"`
	Email       *string      `json:"email"`
	CreditLimit *types.Money `json:"creditLimit"`
	IsActive    *bool        `json:"isActive"`
}

// ToDomain converts to the domain request.
func (r *UpdateStoreRequest) ToDomain() catalog.UpdateStoreRequest {
	return catalog.UpdateStoreRequest{
		Name:        r.Name,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		CreditLimit: r.CreditLimit,
		IsActive:    r.IsActive,
	}
}

// StoreListQuery filters GET /stores.
type StoreListQuery struct {
	PageQuery
	Search   string `form:"search"`
	IsActive *bool  `form:"isActive"`
}

// ToFilter converts to the domain filter.
func (q *StoreListQuery) ToFilter() catalog.StoreFilter {
	page := q.Page()
	return catalog.StoreFilter{Search: q.Search, IsActive: q.IsActive, Limit: page.Limit, Offset: page.Offset}
}

// AssignManagerRequest sets a store's manager.
type AssignManagerRequest struct {
	UserID id.ID `json:"userId"`
}

// --- Locations and outlets ---

// CreateLocationRequest adds a room, rack or freezer. The kind comes
// from the route.
type CreateLocationRequest struct {
	RoomID      *id.ID   `json:"roomId"`
	Name        string   `json:"name"`
	Number      string   `json:"number"`
	Capacity    int64    `json:"capacity" binding:"min=0"`
	Temperature *float64 `json:"temperature"`
}

// ToDomain converts to the domain request.
func (r *CreateLocationRequest) ToDomain(storeID id.ID, kind entity.LocationKind) catalog.CreateLocationRequest {
	return catalog.CreateLocationRequest{
		Kind:        kind,
		StoreID:     storeID,
		RoomID:      r.RoomID,
		Name:        r.Name,
		Number:      r.Number,
		Capacity:    r.Capacity,
		Temperature: r.Temperature,
	}
}

// CreateOutletRequest adds a custom outlet.
type CreateOutletRequest struct {
	Name          string      `json:"name" binding:"required"`
	ManagerID     *id.ID      `json:"managerId"`
	Address       string      `json:"address"`
	ContactPerson string      `json:"contactPerson"`
	Phone         string      `json:"phone"`
	CreditLimit   types.Money `json:"creditLimit"`
}

// ToDomain converts to the domain request.
func (r *CreateOutletRequest) ToDomain(storeID id.ID) catalog.CreateOutletRequest {
	return catalog.CreateOutletRequest{
		StoreID:       storeID,
		Name:          r.Name,
		ManagerID:     r.ManagerID,
		Address:       r.Address,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		CreditLimit:   r.CreditLimit,
	}
}

// UpdateOutletRequest edits outlet fields.
type UpdateOutletRequest struct {
	Name          *string      `json:"name"`
	Address       *string      `json:"address"`
	ContactPerson *string      `json:"contactPerson"`
	Phone         *string      `json:"phone"`
	CreditLimit   *types.Money `json:"creditLimit"`
	IsActive      *bool        `json:"isActive"`
}

// ToDomain converts to the domain request.
func (r *UpdateOutletRequest) ToDomain() catalog.UpdateOutletRequest {
	return catalog.UpdateOutletRequest{
		Name:          r.Name,
		Address:       r.Address,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		CreditLimit:   r.CreditLimit,
		IsActive:      r.IsActive,
	}
}

// OutletStatusRequest activates or deactivates an outlet.
type OutletStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// --- Categories and products ---

// CreateCategoryRequest creates a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Name              string      `json:"name" binding:"required"`
	SKU               string      `json:"sku" binding:"required"`
	Description       string      `json:"description"`
	CategoryID        *id.ID      `json:"categoryId"`
	UnitPrice         types.Money `json:"unitPrice"`
	CostPrice         types.Money `json:"costPrice"`
	ThresholdQuantity *int64      `json:"thresholdQuantity"`
	ImageURL          string      `json:"imageUrl"`
}

// ToDomain converts to the domain request.
func (r *CreateProductRequest) ToDomain() catalog.CreateProductRequest {
	return catalog.CreateProductRequest{
		Name:              r.Name,
		SKU:               r.SKU,
		Description:       r.Description,
		CategoryID:        r.CategoryID,
		UnitPrice:         r.UnitPrice,
		CostPrice:         r.CostPrice,
		ThresholdQuantity: r.ThresholdQuantity,
		ImageURL:          r.ImageURL,
	}
}

// UpdateProductRequest edits a product.
type UpdateProductRequest struct {
	Name              *string      `json:"name"`
	Description       *string      `json:"description"`
	UnitPrice         *types.Money `json:"unitPrice"`
	CostPrice         *types.Money `json:"costPrice"`
	ThresholdQuantity *int64       `json:"thresholdQuantity"`
	ImageURL          *string      `json:"imageUrl"`
	IsActive          *bool        `json:"isActive"`
}

// ToDomain converts to the domain request.
func (r *UpdateProductRequest) ToDomain() catalog.UpdateProductRequest {
	return catalog.UpdateProductRequest{
		Name:              r.Name,
		Description:       r.Description,
		UnitPrice:         r.UnitPrice,
		CostPrice:         r.CostPrice,
		ThresholdQuantity: r.ThresholdQuantity,
		ImageURL:          r.ImageURL,
		IsActive:          r.IsActive,
	}
}

// ProductListQuery filters GET /products.
type ProductListQuery struct {
	PageQuery
	CategoryID string `form:"categoryId"`
	Search     string `form:"search"`
	IsActive   *bool  `form:"isActive"`
}

// ToFilter converts to the domain filter.
func (q *ProductListQuery) ToFilter() (catalog.ProductFilter, error) {
	categoryID, err := OptionalID("categoryId", q.CategoryID)
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	page := q.Page()
	return catalog.ProductFilter{
		CategoryID: categoryID,
		Search:     q.Search,
		IsActive:   q.IsActive,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}, nil
}
