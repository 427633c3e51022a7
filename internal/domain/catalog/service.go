package catalog

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/internal/domain/auth"
	"stockroom/pkg/logger"
)

// UserLookup resolves users for manager assignment.
type UserLookup interface {
	GetByID(ctx context.Context, userID id.ID) (*auth.User, error)
}

// Service provides catalog operations with the store ownership rule
// applied to every call.
type Service struct {
	repo      Repository
	users     UserLookup
	txManager tx.Manager
	history   history.Recorder
}

// NewService creates a new catalog service.
func NewService(repo Repository, users UserLookup, txManager tx.Manager, recorder history.Recorder) *Service {
	return &Service{repo: repo, users: users, txManager: txManager, history: recorder}
}

// CreateStoreRequest holds store creation input. AdminID is honoured
// only for superadmins; admins always own what they create.
type CreateStoreRequest struct {
	Name        string
	Address     string
	Phone       string
	Email       string
	AdminID     *id.ID
	ManagerID   *id.ID
	CreditLimit types.Money
}

// CreateStore creates a store together with its dummy outlet.
func (s *Service) CreateStore(ctx context.Context, req CreateStoreRequest) (*Store, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	store := &Store{
		BaseEntity:    entity.NewBaseEntity(),
		Name:          req.Name,
		Address:       req.Address,
		Phone:         req.Phone,
		Email:         req.Email,
		AdminID:       actor.UserID,
		CreditLimit:   req.CreditLimit,
		CurrentCredit: types.Zero(),
		IsActive:      true,
	}
	if actor.IsSuperadmin() {
		if req.AdminID == nil {
			return nil, apperror.NewValidation("adminId is required").WithDetail("field", "adminId")
		}
		store.AdminID = *req.AdminID
	}
	if err := store.Validate(ctx); err != nil {
		return nil, err
	}

	dummy := &Outlet{
		BaseEntity:    entity.NewBaseEntity(),
		Name:          store.Name + " - Dummy Outlet",
		Type:          OutletDummy,
		StoreID:       store.ID,
		Address:       store.Address,
		Phone:         store.Phone,
		CreditLimit:   types.Zero(),
		CurrentCredit: types.Zero(),
		IsActive:      true,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if actor.IsSuperadmin() {
			if err := s.requireUserRole(ctx, store.AdminID, appctx.RoleAdmin); err != nil {
				return err
			}
		}
		if req.ManagerID != nil {
			if err := s.requireUserRole(ctx, *req.ManagerID, appctx.RoleStoreManager); err != nil {
				return err
			}
			store.ManagerID = req.ManagerID
			dummy.ManagerID = req.ManagerID
		}
		if err := s.repo.CreateStore(ctx, store); err != nil {
			return fmt.Errorf("create store: %w", err)
		}
		if err := s.repo.CreateOutlet(ctx, dummy); err != nil {
			return fmt.Errorf("create dummy outlet: %w", err)
		}
		return s.history.Record(ctx, "store", store.ID, history.ActionCreate, store)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "store created", "store_id", store.ID, "admin_id", store.AdminID)
	return store, nil
}

// UpdateStoreRequest holds mutable store fields; nil means unchanged.
type UpdateStoreRequest struct {
	Name        *string
	Address     *string
	Phone       *string
	Email       *string
	CreditLimit *types.Money
	IsActive    *bool
}

// UpdateStore edits store profile fields.
func (s *Service) UpdateStore(ctx context.Context, storeID id.ID, req UpdateStoreRequest) (*Store, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	var store *Store
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err = s.repo.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
			return err
		}
		before := storeState(store)

		if req.Name != nil {
			store.Name = *req.Name
		}
		if req.Address != nil {
			store.Address = *req.Address
		}
		if req.Phone != nil {
			store.Phone = *req.Phone
		}
		if req.Email != nil {
			store.Email = *req.Email
		}
		if req.CreditLimit != nil {
			store.CreditLimit = *req.CreditLimit
		}
		if req.IsActive != nil {
			store.IsActive = *req.IsActive
		}
		if err := store.Validate(ctx); err != nil {
			return err
		}
		store.Touch()

		if err := s.repo.UpdateStore(ctx, store); err != nil {
			return fmt.Errorf("update store: %w", err)
		}
		return s.history.Record(ctx, "store", store.ID, history.ActionUpdate, history.Diff(before, storeState(store)))
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func storeState(s *Store) map[string]any {
	return map[string]any{
		"name":         s.Name,
		"address":      s.Address,
		"phone":        s.Phone,
		"email":        s.Email,
		"credit_limit": s.CreditLimit.String(),
		"is_active":    s.IsActive,
		"manager_id":   s.ManagerID,
	}
}

// GetStore returns a store the actor may access.
func (s *Service) GetStore(ctx context.Context, storeID id.ID) (*Store, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
		return nil, err
	}
	return store, nil
}

// ListStores lists the stores visible to the actor.
func (s *Service) ListStores(ctx context.Context, filter StoreFilter) (domain.ListResult[Store], error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return domain.ListResult[Store]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Scope = scope
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, total, err := s.repo.ListStores(ctx, filter)
	if err != nil {
		return domain.ListResult[Store]{}, fmt.Errorf("list stores: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

// AssignManager sets the store's manager; the user must be a store manager.
func (s *Service) AssignManager(ctx context.Context, storeID, userID id.ID) (*Store, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}

	var store *Store
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err = s.repo.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
			return err
		}
		if err := s.requireUserRole(ctx, userID, appctx.RoleStoreManager); err != nil {
			return err
		}
		previous := store.ManagerID
		store.ManagerID = &userID
		store.Touch()
		if err := s.repo.UpdateStore(ctx, store); err != nil {
			return fmt.Errorf("assign manager: %w", err)
		}
		return s.history.Record(ctx, "store", store.ID, history.ActionUpdate, map[string]any{
			"manager_id": map[string]any{"old": previous, "new": userID},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "store manager assigned", "store_id", storeID, "manager_id", userID)
	return store, nil
}

func (s *Service) requireUserRole(ctx context.Context, userID id.ID, role appctx.Role) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("user not found").WithDetail("user_id", userID)
		}
		return err
	}
	if user.Role != role || !user.IsActive {
		return apperror.NewValidation(fmt.Sprintf("user must be an active %s", role)).
			WithDetail("user_id", userID)
	}
	return nil
}

// accessibleStore loads a store and checks the actor against it.
func (s *Service) accessibleStore(ctx context.Context, actor *appctx.UserContext, storeID id.ID) (*Store, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
		return nil, err
	}
	return store, nil
}
