// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Role is the actor's platform role.
type Role string

const (
	RoleSuperadmin   Role = "superadmin"
	RoleAdmin        Role = "admin"
	RoleStoreManager Role = "store_manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleStoreManager:
		return true
	}
	return false
}

// UserContext is the authenticated actor attached to every request.
type UserContext struct {
	UserID      uuid.UUID
	Email       string
	Name        string
	Role        Role
	Permissions []string
}

// IsSuperadmin is true for the platform operator.
func (u *UserContext) IsSuperadmin() bool {
	return u != nil && u.Role == RoleSuperadmin
}

// HasPermission applies the permission rule: superadmin always passes,
// everyone else needs the flag.
func (u *UserContext) HasPermission(permission string) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleSuperadmin {
		return true
	}
	return slices.Contains(u.Permissions, permission)
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or uuid.Nil.
func GetUserID(ctx context.Context) uuid.UUID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return uuid.Nil
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role Role) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}
