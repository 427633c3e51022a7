package catalog

import (
	"context"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
)

// Reader is the lookup surface the inventory and invoice engines need.
type Reader interface {
	GetStore(ctx context.Context, storeID id.ID) (*Store, error)
	GetOutlet(ctx context.Context, outletID id.ID) (*Outlet, error)
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	GetLocation(ctx context.Context, locationID id.ID) (*StorageLocation, error)
}

// Repository defines catalog storage operations.
type Repository interface {
	Reader

	CreateStore(ctx context.Context, store *Store) error
	// UpdateStore writes profile fields and manager; credit columns are
	// owned by the credit ledger and left untouched.
	UpdateStore(ctx context.Context, store *Store) error
	ListStores(ctx context.Context, filter StoreFilter) ([]Store, int64, error)

	CreateOutlet(ctx context.Context, outlet *Outlet) error
	UpdateOutlet(ctx context.Context, outlet *Outlet) error
	ListOutlets(ctx context.Context, storeID id.ID) ([]Outlet, error)

	CreateLocation(ctx context.Context, loc *StorageLocation) error
	// ListLocations returns the store's locations; an empty kind means all.
	ListLocations(ctx context.Context, storeID id.ID, kind entity.LocationKind) ([]StorageLocation, error)

	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, categoryID id.ID) (*Category, error)
	ListCategories(ctx context.Context, adminID *id.ID) ([]Category, error)

	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
}
