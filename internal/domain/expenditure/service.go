package expenditure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/internal/domain"
	"stockroom/pkg/logger"
)

const entityType = "expenditure"

// Service manages expenditures. Admins see their own rows, the
// superadmin sees and verifies all; store managers have no access.
type Service struct {
	repo      Repository
	txManager tx.Manager
	history   history.Recorder
}

// NewService creates a new expenditure service.
func NewService(repo Repository, txManager tx.Manager, recorder history.Recorder) *Service {
	return &Service{repo: repo, txManager: txManager, history: recorder}
}

// CreateRequest holds expenditure input. Date nil means now.
type CreateRequest struct {
	Category    string
	Description string
	Amount      types.Money
	Date        *time.Time
	ReceiptRef  string
}

// Create records an expense for the acting admin.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Expenditure, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	e := &Expenditure{
		BaseEntity:  entity.NewBaseEntity(),
		AdminID:     actor.UserID,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        time.Now().UTC(),
		ReceiptRef:  req.ReceiptRef,
	}
	if req.Date != nil {
		e.Date = req.Date.UTC()
	}
	if err := e.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create expenditure: %w", err)
		}
		return s.history.Record(ctx, entityType, e.ID, history.ActionCreate, e)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expenditure recorded", "expenditure_id", e.ID, "amount", e.Amount.String())
	return e, nil
}

// Get returns one expenditure.
func (s *Service) Get(ctx context.Context, expenditureID id.ID) (*Expenditure, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, expenditureID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperadmin() && e.AdminID != actor.UserID {
		return nil, apperror.NewAccessDenied("access denied to this expenditure")
	}
	return e, nil
}

// ListResult is a page of expenditures plus totals over the whole filter.
type ListResult struct {
	domain.ListResult[Expenditure]
	Summary Summary `json:"summary"`
}

// List returns expenditures newest first with their summary.
func (s *Service) List(ctx context.Context, filter Filter) (*ListResult, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperadmin() {
		uid := actor.UserID
		filter.AdminID = &uid
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperror.NewValidation("date range end precedes its start")
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenditures: %w", err)
	}
	summary, err := s.repo.Summarize(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("summarize expenditures: %w", err)
	}
	return &ListResult{ListResult: domain.NewListResult(items, total, page), Summary: summary}, nil
}

// Verify marks an expenditure verified. Superadmin only.
func (s *Service) Verify(ctx context.Context, expenditureID id.ID) (*Expenditure, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin); err != nil {
		return nil, err
	}

	var e *Expenditure
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err = s.repo.GetForUpdate(ctx, expenditureID)
		if err != nil {
			return err
		}
		if e.Verified {
			return apperror.NewInvalidTransition(entityType, "verified", "verified")
		}
		at := time.Now().UTC()
		by := actor.UserID
		e.Verified = true
		e.VerifiedAt = &at
		e.VerifiedBy = &by
		e.Touch()
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("verify expenditure: %w", err)
		}
		return s.history.Record(ctx, entityType, e.ID, history.ActionStatusChange,
			map[string]any{"verified": map[string]any{"old": false, "new": true}})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) actor(ctx context.Context) (*appctx.UserContext, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequireRole(actor, appctx.RoleSuperadmin, appctx.RoleAdmin); err != nil {
		return nil, err
	}
	return actor, nil
}
