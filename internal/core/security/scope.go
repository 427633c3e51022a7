// Package security implements store ownership and permission checks.
package security

import (
	"context"

	"github.com/google/uuid"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
)

// AccessScope restricts list queries to the stores an actor may see.
// A nil AdminID and ManagerID means no restriction (superadmin).
type AccessScope struct {
	UserID    uuid.UUID
	Role      appctx.Role
	AdminID   *uuid.UUID
	ManagerID *uuid.UUID
}

// ScopeFor builds the list scope for an actor.
func ScopeFor(user *appctx.UserContext) AccessScope {
	s := AccessScope{UserID: user.UserID, Role: user.Role}
	switch user.Role {
	case appctx.RoleAdmin:
		uid := user.UserID
		s.AdminID = &uid
	case appctx.RoleStoreManager:
		uid := user.UserID
		s.ManagerID = &uid
	}
	return s
}

// Unrestricted reports whether the scope sees every store.
func (s AccessScope) Unrestricted() bool {
	return s.AdminID == nil && s.ManagerID == nil
}

// Allows checks a store against the scope.
func (s AccessScope) Allows(store StoreOwner) bool {
	if s.AdminID != nil && store.AdminID != *s.AdminID {
		return false
	}
	if s.ManagerID != nil && (store.ManagerID == nil || *store.ManagerID != *s.ManagerID) {
		return false
	}
	return true
}

// Actor returns the authenticated user or UNAUTHORIZED.
func Actor(ctx context.Context) (*appctx.UserContext, error) {
	user := appctx.GetUser(ctx)
	if user == nil || user.UserID == uuid.Nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return user, nil
}

// CurrentScope resolves the actor and its list scope.
func CurrentScope(ctx context.Context) (*appctx.UserContext, AccessScope, error) {
	user, err := Actor(ctx)
	if err != nil {
		return nil, AccessScope{}, err
	}
	return user, ScopeFor(user), nil
}
