package dto

import (
	appctx "stockroom/internal/core/context"
	"stockroom/internal/domain/auth"
)

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse includes the token and user info.
type LoginResponse struct {
	Token *auth.TokenPair `json:"token"`
	User  *auth.User      `json:"user"`
}

// CreateUserRequest creates an admin or store manager.
type CreateUserRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions"`
}

// ToDomain converts to the domain request.
func (r *CreateUserRequest) ToDomain() auth.CreateUserRequest {
	return auth.CreateUserRequest{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		Role:        appctx.Role(r.Role),
		Permissions: r.Permissions,
	}
}

// UserListQuery filters GET /users.
type UserListQuery struct {
	PageQuery
	Search   string `form:"search"`
	Role     string `form:"role"`
	IsActive *bool  `form:"isActive"`
}

// ToFilter converts to the domain filter.
func (q *UserListQuery) ToFilter() auth.UserFilter {
	page := q.Page()
	return auth.UserFilter{
		Search:   q.Search,
		Role:     appctx.Role(q.Role),
		IsActive: q.IsActive,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
}
