// Package auth provides authentication and user management.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

// User represents a platform user.
type User struct {
	ID                  id.ID       `db:"id" json:"id"`
	Name                string      `db:"name" json:"name"`
	Email               string      `db:"email" json:"email"`
	PasswordHash        string      `db:"password_hash" json:"-"`
	Role                appctx.Role `db:"role" json:"role"`
	Permissions         []string    `db:"permissions" json:"permissions"`
	CreatedBy           *id.ID      `db:"created_by" json:"createdBy,omitempty"`
	IsActive            bool        `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time  `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int         `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time  `db:"locked_until" json:"-"`
	CreatedAt           time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewUser creates a new active user.
func NewUser(name, email, passwordHash string, role appctx.Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		Permissions:  DefaultPermissions(role),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	if !u.Role.Valid() {
		return apperror.NewValidation("role is invalid").WithDetail("role", u.Role)
	}
	for _, p := range u.Permissions {
		if !security.KnownPermission(p) {
			return apperror.NewValidation("unknown permission").WithDetail("permission", p)
		}
	}
	return nil
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewAccessDenied("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewAccessDenied("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// Context builds the request actor for u.
func (u *User) Context() *appctx.UserContext {
	return &appctx.UserContext{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
}

// DefaultPermissions returns the flags granted to a new user of role.
// Superadmins need none.
func DefaultPermissions(role appctx.Role) []string {
	switch role {
	case appctx.RoleAdmin:
		return []string{
			string(security.PermManageStores),
			string(security.PermManageProducts),
			string(security.PermManageCategories),
			string(security.PermManageInventory),
			string(security.PermDistribute),
			string(security.PermCreateSale),
			string(security.PermManageInvoices),
			string(security.PermManageTickets),
			string(security.PermManageUsers),
			string(security.PermManageExpenses),
			string(security.PermViewReports),
			string(security.PermPerformAudit),
			string(security.PermBulkUpdate),
			string(security.PermResolveAlerts),
		}
	case appctx.RoleStoreManager:
		return []string{
			string(security.PermManageInventory),
			string(security.PermCreateSale),
			string(security.PermManageTickets),
			string(security.PermPerformAudit),
			string(security.PermViewReports),
			string(security.PermResolveAlerts),
		}
	}
	return []string{}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest creates an admin (by a superadmin) or a store manager
// (by an admin). Nil Permissions means the role defaults.
type CreateUserRequest struct {
	Name        string
	Email       string
	Password    string
	Role        appctx.Role
	Permissions []string
}

// UserFilter for listing users.
type UserFilter struct {
	Search    string
	Role      appctx.Role
	CreatedBy *id.ID
	IsActive  *bool
	Limit     int
	Offset    int
}
