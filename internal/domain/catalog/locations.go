package catalog

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/pkg/logger"
)

// CreateLocationRequest creates a room (RoomID nil) or a rack/freezer
// inside a room of the same store.
type CreateLocationRequest struct {
	Kind        entity.LocationKind
	StoreID     id.ID
	RoomID      *id.ID
	Name        string
	Number      string
	Capacity    int64
	Temperature *float64
}

// CreateLocation adds a room, rack or freezer to a store.
func (s *Service) CreateLocation(ctx context.Context, req CreateLocationRequest) (*StorageLocation, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	loc := &StorageLocation{
		BaseEntity:  entity.NewBaseEntity(),
		Kind:        req.Kind,
		StoreID:     req.StoreID,
		RoomID:      req.RoomID,
		Name:        req.Name,
		Number:      req.Number,
		Capacity:    req.Capacity,
		Temperature: req.Temperature,
	}
	if err := loc.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accessibleStore(ctx, actor, req.StoreID); err != nil {
			return err
		}
		if loc.RoomID != nil {
			room, err := s.repo.GetLocation(ctx, *loc.RoomID)
			if err != nil {
				return err
			}
			if room.Kind != entity.LocationRoom || room.StoreID != loc.StoreID {
				return apperror.NewValidation("parent must be a room of the same store").
					WithDetail("room_id", *loc.RoomID)
			}
		}
		if err := s.repo.CreateLocation(ctx, loc); err != nil {
			return fmt.Errorf("create %s: %w", loc.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "storage location created", "store_id", loc.StoreID, "kind", loc.Kind, "location_id", loc.ID)
	return loc, nil
}

// ListLocations lists a store's locations, optionally of one kind.
func (s *Service) ListLocations(ctx context.Context, storeID id.ID, kind entity.LocationKind) ([]StorageLocation, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if kind != "" && !kind.Valid() {
		return nil, apperror.NewValidation("location kind must be room, rack or freezer").WithDetail("kind", kind)
	}
	if _, err := s.accessibleStore(ctx, actor, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListLocations(ctx, storeID, kind)
}

// CreateOutletRequest holds outlet creation input.
type CreateOutletRequest struct {
	StoreID       id.ID
	Name          string
	ManagerID     *id.ID
	Address       string
	ContactPerson string
	Phone         string
	CreditLimit   types.Money
}

// CreateOutlet adds a custom outlet to a store.
func (s *Service) CreateOutlet(ctx context.Context, req CreateOutletRequest) (*Outlet, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	outlet := &Outlet{
		BaseEntity:    entity.NewBaseEntity(),
		Name:          req.Name,
		Type:          OutletCustom,
		StoreID:       req.StoreID,
		ManagerID:     req.ManagerID,
		Address:       req.Address,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		CreditLimit:   req.CreditLimit,
		CurrentCredit: types.Zero(),
		IsActive:      true,
	}
	if err := outlet.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accessibleStore(ctx, actor, req.StoreID); err != nil {
			return err
		}
		if outlet.ManagerID != nil {
			if err := s.requireUserRole(ctx, *outlet.ManagerID, appctx.RoleStoreManager); err != nil {
				return err
			}
		}
		return s.repo.CreateOutlet(ctx, outlet)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet created", "store_id", outlet.StoreID, "outlet_id", outlet.ID)
	return outlet, nil
}

// ListOutlets lists a store's outlets.
func (s *Service) ListOutlets(ctx context.Context, storeID id.ID) ([]Outlet, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleStore(ctx, actor, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListOutlets(ctx, storeID)
}

// UpdateOutletRequest holds mutable outlet fields; nil means unchanged.
// Current credit belongs to the credit ledger and is not editable here.
type UpdateOutletRequest struct {
	Name          *string
	Address       *string
	ContactPerson *string
	Phone         *string
	CreditLimit   *types.Money
	IsActive      *bool
}

// UpdateOutlet edits an outlet of a store the actor administers. Names
// are unique per store, ignoring case.
func (s *Service) UpdateOutlet(ctx context.Context, outletID id.ID, req UpdateOutletRequest) (*Outlet, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	var outlet *Outlet
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		outlet, err = s.repo.GetOutlet(ctx, outletID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, outlet.StoreID); err != nil {
			return err
		}
		before := outletState(outlet)

		if req.Name != nil && !strings.EqualFold(*req.Name, outlet.Name) {
			if err := s.requireUniqueOutletName(ctx, outlet, *req.Name); err != nil {
				return err
			}
		}
		if req.Name != nil {
			outlet.Name = *req.Name
		}
		if req.Address != nil {
			outlet.Address = *req.Address
		}
		if req.ContactPerson != nil {
			outlet.ContactPerson = *req.ContactPerson
		}
		if req.Phone != nil {
			outlet.Phone = *req.Phone
		}
		if req.CreditLimit != nil {
			outlet.CreditLimit = *req.CreditLimit
		}
		if req.IsActive != nil {
			outlet.IsActive = *req.IsActive
		}
		if err := outlet.Validate(ctx); err != nil {
			return err
		}
		return s.saveOutlet(ctx, outlet, before)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet updated", "store_id", outlet.StoreID, "outlet_id", outlet.ID)
	return outlet, nil
}

// SetOutletActive activates or deactivates an outlet. Inactive outlets
// cannot be sold to.
func (s *Service) SetOutletActive(ctx context.Context, outletID id.ID, active bool) (*Outlet, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	var outlet *Outlet
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		outlet, err = s.repo.GetOutlet(ctx, outletID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, outlet.StoreID); err != nil {
			return err
		}
		if outlet.IsActive == active {
			return nil
		}
		before := outletState(outlet)
		outlet.IsActive = active
		return s.saveOutlet(ctx, outlet, before)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet status changed", "outlet_id", outlet.ID, "is_active", outlet.IsActive)
	return outlet, nil
}

func (s *Service) requireUniqueOutletName(ctx context.Context, outlet *Outlet, name string) error {
	siblings, err := s.repo.ListOutlets(ctx, outlet.StoreID)
	if err != nil {
		return fmt.Errorf("list outlets: %w", err)
	}
	for _, o := range siblings {
		if o.ID != outlet.ID && strings.EqualFold(strings.TrimSpace(o.Name), strings.TrimSpace(name)) {
			return apperror.NewDuplicate("outlet", "name", name)
		}
	}
	return nil
}

func (s *Service) saveOutlet(ctx context.Context, outlet *Outlet, before map[string]any) error {
	outlet.Touch()
	if err := s.repo.UpdateOutlet(ctx, outlet); err != nil {
		return fmt.Errorf("update outlet: %w", err)
	}
	return s.history.Record(ctx, "outlet", outlet.ID, history.ActionUpdate, history.Diff(before, outletState(outlet)))
}

func outletState(o *Outlet) map[string]any {
	return map[string]any{
		"name":           o.Name,
		"address":        o.Address,
		"contact_person": o.ContactPerson,
		"phone":          o.Phone,
		"credit_limit":   o.CreditLimit.String(),
		"is_active":      o.IsActive,
	}
}
