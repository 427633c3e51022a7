package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service provides authentication and user management.
type Service struct {
	userRepo   UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(userRepo UserRepository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// Login authenticates user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if updErr := s.userRepo.Update(ctx, user); updErr != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", updErr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("update user: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "role", user.Role)

	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, TokenType: "Bearer"}, user, nil
}

// ValidateToken is used by the auth middleware.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	user, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return user, nil
}

// Me returns the authenticated user.
func (s *Service) Me(ctx context.Context) (*User, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, actor.UserID)
}

// CreateUser creates an admin (superadmin only) or a store manager
// (superadmin or admin with manage_users).
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := canCreate(actor, req.Role); err != nil {
		return nil, err
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(req.Name, req.Email, string(hash), req.Role)
	if req.Permissions != nil {
		user.Permissions = req.Permissions
	}
	createdBy := actor.UserID
	user.CreatedBy = &createdBy
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.Exists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role, "created_by", createdBy)
	return user, nil
}

func canCreate(actor *appctx.UserContext, role appctx.Role) error {
	switch role {
	case appctx.RoleAdmin:
		return security.RequireRole(actor, appctx.RoleSuperadmin)
	case appctx.RoleStoreManager:
		if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
			return err
		}
		return security.RequirePermission(actor, security.PermManageUsers)
	case appctx.RoleSuperadmin:
		return apperror.NewAccessDenied("superadmins are provisioned by seed only")
	}
	return apperror.NewValidation("role is invalid").WithDetail("role", role)
}

// ListUsers lists users. Admins only see the users they created.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if actor.Role == appctx.RoleAdmin {
		uid := actor.UserID
		filter.CreatedBy = &uid
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.userRepo.List(ctx, filter)
}

// GetUser returns a user by id, used to validate manager assignment.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// EnsureSuperadmin creates the superadmin account when no user with the
// email exists. Returns true when a user was created.
func (s *Service) EnsureSuperadmin(ctx context.Context, name, email, password string) (bool, error) {
	if len(password) < s.config.PasswordMinLength {
		return false, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	user := NewUser(name, email, string(hash), appctx.RoleSuperadmin)
	if err := user.Validate(ctx); err != nil {
		return false, err
	}

	created := false
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.Exists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return nil
		}
		created = true
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Info(ctx, "superadmin created", "user_id", user.ID, "email", user.Email)
	}
	return created, nil
}
