package memstore

import (
	"context"
	"slices"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/catalog"
)

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct{ db *DB }

var _ catalog.Repository = (*CatalogRepo)(nil)

func (r *CatalogRepo) GetStore(_ context.Context, storeID id.ID) (*catalog.Store, error) {
	var (
		v  catalog.Store
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.stores[storeID] })
	if !ok {
		return nil, apperror.NewNotFound("store", storeID)
	}
	return &v, nil
}

func (r *CatalogRepo) CreateStore(_ context.Context, store *catalog.Store) error {
	return r.db.write(func(s *state) error {
		s.stores[store.ID] = *store
		return nil
	})
}

func (r *CatalogRepo) UpdateStore(_ context.Context, store *catalog.Store) error {
	return r.db.write(func(s *state) error {
		cur, ok := s.stores[store.ID]
		if !ok {
			return apperror.NewNotFound("store", store.ID)
		}
		v := *store
		v.CurrentCredit = cur.CurrentCredit
		s.stores[v.ID] = v
		return nil
	})
}

func (r *CatalogRepo) ListStores(_ context.Context, filter catalog.StoreFilter) ([]catalog.Store, int64, error) {
	search := strings.ToLower(filter.Search)
	var out []catalog.Store
	r.db.read(func(s *state) {
		for _, st := range s.stores {
			if !filter.Scope.Allows(st.Owner()) {
				continue
			}
			if filter.IsActive != nil && st.IsActive != *filter.IsActive {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(st.Name), search) {
				continue
			}
			out = append(out, st)
		}
	})
	sortNewest(out, func(v catalog.Store) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *CatalogRepo) GetOutlet(_ context.Context, outletID id.ID) (*catalog.Outlet, error) {
	var (
		v  catalog.Outlet
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.outlets[outletID] })
	if !ok {
		return nil, apperror.NewNotFound("outlet", outletID)
	}
	return &v, nil
}

func (r *CatalogRepo) CreateOutlet(_ context.Context, outlet *catalog.Outlet) error {
	return r.db.write(func(s *state) error {
		s.outlets[outlet.ID] = *outlet
		return nil
	})
}

func (r *CatalogRepo) UpdateOutlet(_ context.Context, outlet *catalog.Outlet) error {
	return r.db.write(func(s *state) error {
		cur, ok := s.outlets[outlet.ID]
		if !ok {
			return apperror.NewNotFound("outlet", outlet.ID)
		}
		v := *outlet
		v.CurrentCredit = cur.CurrentCredit
		s.outlets[v.ID] = v
		return nil
	})
}

func (r *CatalogRepo) ListOutlets(_ context.Context, storeID id.ID) ([]catalog.Outlet, error) {
	var out []catalog.Outlet
	r.db.read(func(s *state) {
		for _, o := range s.outlets {
			if o.StoreID == storeID {
				out = append(out, o)
			}
		}
	})
	slices.SortFunc(out, func(a, b catalog.Outlet) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *CatalogRepo) GetLocation(_ context.Context, locationID id.ID) (*catalog.StorageLocation, error) {
	var (
		v  catalog.StorageLocation
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.locations[locationID] })
	if !ok {
		return nil, apperror.NewNotFound("location", locationID)
	}
	return &v, nil
}

func (r *CatalogRepo) CreateLocation(_ context.Context, loc *catalog.StorageLocation) error {
	return r.db.write(func(s *state) error {
		s.locations[loc.ID] = *loc
		return nil
	})
}

func (r *CatalogRepo) ListLocations(_ context.Context, storeID id.ID, kind entity.LocationKind) ([]catalog.StorageLocation, error) {
	var out []catalog.StorageLocation
	r.db.read(func(s *state) {
		for _, l := range s.locations {
			if l.StoreID == storeID && (kind == "" || l.Kind == kind) {
				out = append(out, l)
			}
		}
	})
	slices.SortFunc(out, func(a, b catalog.StorageLocation) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *CatalogRepo) CreateCategory(_ context.Context, category *catalog.Category) error {
	return r.db.write(func(s *state) error {
		for _, c := range s.categories {
			if c.AdminID == category.AdminID && strings.EqualFold(c.Name, category.Name) {
				return apperror.NewDuplicate("category", "name", category.Name)
			}
		}
		s.categories[category.ID] = *category
		return nil
	})
}

func (r *CatalogRepo) GetCategory(_ context.Context, categoryID id.ID) (*catalog.Category, error) {
	var (
		v  catalog.Category
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.categories[categoryID] })
	if !ok {
		return nil, apperror.NewNotFound("category", categoryID)
	}
	return &v, nil
}

func (r *CatalogRepo) ListCategories(_ context.Context, adminID *id.ID) ([]catalog.Category, error) {
	var out []catalog.Category
	r.db.read(func(s *state) {
		for _, c := range s.categories {
			if adminID == nil || c.AdminID == *adminID {
				out = append(out, c)
			}
		}
	})
	slices.SortFunc(out, func(a, b catalog.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *CatalogRepo) GetProduct(_ context.Context, productID id.ID) (*catalog.Product, error) {
	var (
		v  catalog.Product
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.products[productID] })
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &v, nil
}

func (r *CatalogRepo) CreateProduct(_ context.Context, product *catalog.Product) error {
	return r.db.write(func(s *state) error {
		for _, p := range s.products {
			if p.AdminID == product.AdminID && p.SKU == product.SKU {
				return apperror.NewDuplicate("product", "sku", product.SKU)
			}
		}
		s.products[product.ID] = *product
		return nil
	})
}

func (r *CatalogRepo) UpdateProduct(_ context.Context, product *catalog.Product) error {
	return r.db.write(func(s *state) error {
		if _, ok := s.products[product.ID]; !ok {
			return apperror.NewNotFound("product", product.ID)
		}
		s.products[product.ID] = *product
		return nil
	})
}

func (r *CatalogRepo) ListProducts(_ context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	search := strings.ToLower(filter.Search)
	var out []catalog.Product
	r.db.read(func(s *state) {
		for _, p := range s.products {
			if len(filter.AdminIDs) > 0 && !slices.Contains(filter.AdminIDs, p.AdminID) {
				continue
			}
			if filter.CategoryID != nil && !id.Equal(p.CategoryID, *filter.CategoryID) {
				continue
			}
			if filter.IsActive != nil && p.IsActive != *filter.IsActive {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.SKU), search) {
				continue
			}
			out = append(out, p)
		}
	})
	sortNewest(out, func(v catalog.Product) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}
