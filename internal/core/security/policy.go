package security

import (
	"github.com/google/uuid"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
)

// Permission flags granted to admins and store managers. Superadmins
// implicitly hold all of them.
type Permission string

const (
	PermManageStores     Permission = "manage_stores"
	PermManageProducts   Permission = "manage_products"
	PermManageInventory  Permission = "manage_inventory"
	PermDistribute       Permission = "distribute"
	PermCreateSale       Permission = "create_sale"
	PermManageInvoices   Permission = "manage_invoices"
	PermManageTickets    Permission = "manage_tickets"
	PermManageUsers      Permission = "manage_users"
	PermManageExpenses   Permission = "manage_expenditures"
	PermViewReports      Permission = "view_reports"
	PermPerformAudit     Permission = "perform_audit"
	PermBulkUpdate       Permission = "bulk_update"
	PermResolveAlerts    Permission = "resolve_alerts"
	PermManageCategories Permission = "manage_categories"
)

var knownPermissions = map[Permission]struct{}{
	PermManageStores: {}, PermManageProducts: {}, PermManageInventory: {},
	PermDistribute: {}, PermCreateSale: {}, PermManageInvoices: {},
	PermManageTickets: {}, PermManageUsers: {}, PermManageExpenses: {},
	PermViewReports: {}, PermPerformAudit: {}, PermBulkUpdate: {},
	PermResolveAlerts: {}, PermManageCategories: {},
}

// KnownPermission reports whether p names a permission flag.
func KnownPermission(p string) bool {
	_, ok := knownPermissions[Permission(p)]
	return ok
}

// RequirePermission returns ACCESS_DENIED unless the actor holds p.
func RequirePermission(user *appctx.UserContext, p Permission) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !user.HasPermission(string(p)) {
		return apperror.NewAccessDenied("missing permission").WithDetail("permission", p)
	}
	return nil
}

// StoreOwner carries the two ownership columns of a store.
type StoreOwner struct {
	StoreID   uuid.UUID
	AdminID   uuid.UUID
	ManagerID *uuid.UUID
}

// CanAccessStore is the single ownership rule: superadmin always;
// admin iff it owns the store; store manager iff it manages the store.
func CanAccessStore(user *appctx.UserContext, store StoreOwner) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case appctx.RoleSuperadmin:
		return true
	case appctx.RoleAdmin:
		return store.AdminID == user.UserID
	case appctx.RoleStoreManager:
		return store.ManagerID != nil && *store.ManagerID == user.UserID
	}
	return false
}

// RequireStoreAccess returns ACCESS_DENIED unless CanAccessStore holds.
func RequireStoreAccess(user *appctx.UserContext, store StoreOwner) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !CanAccessStore(user, store) {
		return apperror.NewAccessDenied("access denied to this store").
			WithDetail("store_id", store.StoreID)
	}
	return nil
}

// RequireRole returns ACCESS_DENIED unless the actor has one of roles.
func RequireRole(user *appctx.UserContext, roles ...appctx.Role) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return apperror.NewAccessDenied("role not allowed").WithDetail("role", user.Role)
}
