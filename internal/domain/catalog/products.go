package catalog

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/pkg/logger"
)

// CreateCategory creates a category owned by the acting admin.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	category := &Category{
		BaseEntity:  entity.NewBaseEntity(),
		Name:        name,
		Description: description,
		AdminID:     actor.UserID,
	}
	if err := category.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// ListCategories lists the actor's categories (all for superadmin).
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsSuperadmin() {
		return s.repo.ListCategories(ctx, nil)
	}
	adminIDs, err := s.visibleAdmins(ctx, actor)
	if err != nil {
		return nil, err
	}
	var out []Category
	for _, adminID := range adminIDs {
		items, err := s.repo.ListCategories(ctx, &adminID)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// CreateProductRequest holds product creation input.
type CreateProductRequest struct {
	Name              string
	SKU               string
	Description       string
	CategoryID        *id.ID
	UnitPrice         types.Money
	CostPrice         types.Money
	ThresholdQuantity *int64
	ImageURL          string
}

// CreateProduct adds a product to the acting admin's catalog.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	product := &Product{
		BaseEntity:        entity.NewBaseEntity(),
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		AdminID:           actor.UserID,
		UnitPrice:         req.UnitPrice,
		CostPrice:         req.CostPrice,
		ThresholdQuantity: DefaultThresholdQuantity,
		ImageURL:          req.ImageURL,
		IsActive:          true,
	}
	if req.ThresholdQuantity != nil {
		product.ThresholdQuantity = *req.ThresholdQuantity
	}
	if err := product.Validate(ctx); err != nil {
		return nil, err
	}

	if product.CategoryID != nil {
		category, err := s.repo.GetCategory(ctx, *product.CategoryID)
		if err != nil {
			return nil, err
		}
		if !actor.IsSuperadmin() && category.AdminID != actor.UserID {
			return nil, apperror.NewAccessDenied("category belongs to another admin")
		}
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// UpdateProductRequest holds the editable product fields. Identity
// fields (sku, category, owner) are fixed once stock references a product.
type UpdateProductRequest struct {
	Name              *string
	Description       *string
	UnitPrice         *types.Money
	CostPrice         *types.Money
	ThresholdQuantity *int64
	ImageURL          *string
	IsActive          *bool
}

// UpdateProduct edits prices and descriptive fields.
func (s *Service) UpdateProduct(ctx context.Context, productID id.ID, req UpdateProductRequest) (*Product, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var product *Product
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err = s.repo.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !actor.IsSuperadmin() && product.AdminID != actor.UserID {
			return apperror.NewAccessDenied("product belongs to another admin")
		}
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.UnitPrice != nil {
			product.UnitPrice = *req.UnitPrice
		}
		if req.CostPrice != nil {
			product.CostPrice = *req.CostPrice
		}
		if req.ThresholdQuantity != nil {
			product.ThresholdQuantity = *req.ThresholdQuantity
		}
		if req.ImageURL != nil {
			product.ImageURL = *req.ImageURL
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		if err := product.Validate(ctx); err != nil {
			return err
		}
		product.Touch()
		return s.repo.UpdateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns a product visible to the actor.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if actor.IsSuperadmin() {
		return product, nil
	}
	adminIDs, err := s.visibleAdmins(ctx, actor)
	if err != nil {
		return nil, err
	}
	for _, a := range adminIDs {
		if a == product.AdminID {
			return product, nil
		}
	}
	return nil, apperror.NewAccessDenied("access denied to this product")
}

// ListProducts lists products visible to the actor.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) (domain.ListResult[Product], error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return domain.ListResult[Product]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	if !actor.IsSuperadmin() {
		filter.AdminIDs, err = s.visibleAdmins(ctx, actor)
		if err != nil {
			return domain.ListResult[Product]{}, err
		}
		if len(filter.AdminIDs) == 0 {
			return domain.NewListResult[Product](nil, 0, page), nil
		}
	}

	items, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return domain.ListResult[Product]{}, fmt.Errorf("list products: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

// visibleAdmins returns whose catalog the actor reads: an admin its own,
// a store manager the admins of the stores it manages.
func (s *Service) visibleAdmins(ctx context.Context, actor *appctx.UserContext) ([]id.ID, error) {
	if actor.Role == appctx.RoleAdmin {
		return []id.ID{actor.UserID}, nil
	}
	stores, _, err := s.repo.ListStores(ctx, StoreFilter{
		Scope: security.ScopeFor(actor),
		Limit: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("list managed stores: %w", err)
	}
	seen := make(map[id.ID]struct{}, len(stores))
	var out []id.ID
	for _, st := range stores {
		if _, ok := seen[st.AdminID]; ok {
			continue
		}
		seen[st.AdminID] = struct{}{}
		out = append(out, st.AdminID)
	}
	return out, nil
}
