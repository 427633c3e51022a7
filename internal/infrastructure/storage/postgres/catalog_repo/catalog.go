// Package catalog_repo provides the PostgreSQL catalog and credit repositories.
package catalog_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/infrastructure/storage/postgres"
)

// CatalogRepo implements catalog.Repository over stores, outlets,
// storage_locations, categories and products.
type CatalogRepo struct {
	stores     *postgres.BaseRepo[catalog.Store]
	outlets    *postgres.BaseRepo[catalog.Outlet]
	locations  *postgres.BaseRepo[catalog.StorageLocation]
	categories *postgres.BaseRepo[catalog.Category]
	products   *postgres.BaseRepo[catalog.Product]
}

var _ catalog.Repository = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{
		stores:     postgres.NewBaseRepo[catalog.Store](txManager, "stores", "store"),
		outlets:    postgres.NewBaseRepo[catalog.Outlet](txManager, "outlets", "outlet"),
		locations:  postgres.NewBaseRepo[catalog.StorageLocation](txManager, "storage_locations", "location"),
		categories: postgres.NewBaseRepo[catalog.Category](txManager, "categories", "category"),
		products:   postgres.NewBaseRepo[catalog.Product](txManager, "products", "product"),
	}
}

func (r *CatalogRepo) GetStore(ctx context.Context, storeID id.ID) (*catalog.Store, error) {
	return r.stores.GetByID(ctx, storeID)
}

func (r *CatalogRepo) CreateStore(ctx context.Context, store *catalog.Store) error {
	return r.stores.Insert(ctx, store)
}

// UpdateStore leaves current_credit to the credit ledger.
func (r *CatalogRepo) UpdateStore(ctx context.Context, store *catalog.Store) error {
	return r.stores.UpdateByID(ctx, store.ID, map[string]any{
		"name":         store.Name,
		"address":      store.Address,
		"phone":        store.Phone,
		"email":        store.Email,
		"manager_id":   store.ManagerID,
		"credit_limit": store.CreditLimit,
		"is_active":    store.IsActive,
		"updated_at":   store.UpdatedAt,
	})
}

func (r *CatalogRepo) ListStores(ctx context.Context, filter catalog.StoreFilter) ([]catalog.Store, int64, error) {
	q := postgres.ApplyScope(r.stores.SelectAs("s"), filter.Scope, "s")
	if filter.Search != "" {
		q = q.Where(sq.ILike{"s.name": "%" + filter.Search + "%"})
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"s.is_active": *filter.IsActive})
	}
	return r.stores.Page(ctx, q, "s.id DESC", filter.Limit, filter.Offset)
}

func (r *CatalogRepo) GetOutlet(ctx context.Context, outletID id.ID) (*catalog.Outlet, error) {
	return r.outlets.GetByID(ctx, outletID)
}

func (r *CatalogRepo) CreateOutlet(ctx context.Context, outlet *catalog.Outlet) error {
	return r.outlets.Insert(ctx, outlet)
}

func (r *CatalogRepo) UpdateOutlet(ctx context.Context, outlet *catalog.Outlet) error {
	return r.outlets.UpdateByID(ctx, outlet.ID, map[string]any{
		"name":           outlet.Name,
		"manager_id":     outlet.ManagerID,
		"address":        outlet.Address,
		"contact_person": outlet.ContactPerson,
		"phone":          outlet.Phone,
		"credit_limit":   outlet.CreditLimit,
		"is_active":      outlet.IsActive,
		"updated_at":     outlet.UpdatedAt,
	})
}

func (r *CatalogRepo) ListOutlets(ctx context.Context, storeID id.ID) ([]catalog.Outlet, error) {
	return r.outlets.FindAll(ctx, r.outlets.Select().Where(sq.Eq{"store_id": storeID}).OrderBy("name"))
}

func (r *CatalogRepo) GetLocation(ctx context.Context, locationID id.ID) (*catalog.StorageLocation, error) {
	return r.locations.GetByID(ctx, locationID)
}

func (r *CatalogRepo) CreateLocation(ctx context.Context, loc *catalog.StorageLocation) error {
	return r.locations.Insert(ctx, loc)
}

func (r *CatalogRepo) ListLocations(ctx context.Context, storeID id.ID, kind entity.LocationKind) ([]catalog.StorageLocation, error) {
	q := r.locations.Select().Where(sq.Eq{"store_id": storeID})
	if kind != "" {
		q = q.Where(sq.Eq{"kind": kind})
	}
	return r.locations.FindAll(ctx, q.OrderBy("name"))
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, category *catalog.Category) error {
	err := r.categories.Insert(ctx, category)
	if _, ok := postgres.UniqueViolation(err); ok {
		return apperror.NewDuplicate("category", "name", category.Name).WithCause(err)
	}
	return err
}

func (r *CatalogRepo) GetCategory(ctx context.Context, categoryID id.ID) (*catalog.Category, error) {
	return r.categories.GetByID(ctx, categoryID)
}

func (r *CatalogRepo) ListCategories(ctx context.Context, adminID *id.ID) ([]catalog.Category, error) {
	q := r.categories.Select()
	if adminID != nil {
		q = q.Where(sq.Eq{"admin_id": *adminID})
	}
	return r.categories.FindAll(ctx, q.OrderBy("name"))
}

func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.products.GetByID(ctx, productID)
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, product *catalog.Product) error {
	err := r.products.Insert(ctx, product)
	if _, ok := postgres.UniqueViolation(err); ok {
		return apperror.NewDuplicate("product", "sku", product.SKU).WithCause(err)
	}
	return err
}

// UpdateProduct writes the mutable product fields; sku and owner are fixed.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, product *catalog.Product) error {
	err := r.products.UpdateByID(ctx, product.ID, map[string]any{
		"name":               product.Name,
		"description":        product.Description,
		"category_id":        product.CategoryID,
		"unit_price":         product.UnitPrice,
		"cost_price":         product.CostPrice,
		"threshold_quantity": product.ThresholdQuantity,
		"image_url":          product.ImageURL,
		"is_active":          product.IsActive,
		"updated_at":         product.UpdatedAt,
	})
	if postgres.ForeignKeyViolation(err) {
		return apperror.NewValidation("category does not exist").WithCause(err)
	}
	return err
}

func (r *CatalogRepo) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	q := r.products.Select()
	if len(filter.AdminIDs) > 0 {
		q = q.Where(sq.Eq{"admin_id": filter.AdminIDs})
	}
	if filter.CategoryID != nil {
		q = q.Where(sq.Eq{"category_id": *filter.CategoryID})
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(sq.Or{sq.ILike{"name": pattern}, sq.ILike{"sku": pattern}})
	}
	items, total, err := r.products.Page(ctx, q, "id DESC", filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}
