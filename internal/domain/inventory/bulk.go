package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/pkg/logger"
)

const bulkDefaultReason = "Bulk update"

// BulkUpdate is one item of a bulk adjustment.
type BulkUpdate struct {
	StockEntryID id.ID
	Action       string
	Amount       int64
	Reason       string
}

// BulkItemError explains why an item was skipped.
type BulkItemError struct {
	StockEntryID id.ID  `json:"stockEntryId"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// BulkResult lists applied changes and skipped items.
type BulkResult struct {
	Results []Change        `json:"results"`
	Errors  []BulkItemError `json:"errors"`
}

// BulkAdjust applies each update in its own savepoint inside one outer
// transaction. A failing item is reported and skipped; the others
// commit together.
func (s *Service) BulkAdjust(ctx context.Context, updates []BulkUpdate, reason string) (*BulkResult, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, apperror.NewValidation("at least one update is required").WithDetail("field", "updates")
	}
	if reason == "" {
		reason = bulkDefaultReason
	}

	result := &BulkResult{Results: []Change{}, Errors: []BulkItemError{}}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		stores := make(map[id.ID]error)
		for _, u := range updates {
			var change *Change
			itemErr := s.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
				act, err := ParseAdjustAction(u.Action)
				if err != nil {
					return err
				}
				if u.Amount < 0 {
					return apperror.NewValidation("amount must be a non-negative integer")
				}
				entry, err := s.repo.GetEntryForUpdate(ctx, u.StockEntryID)
				if err != nil {
					return err
				}
				accessErr, checked := stores[entry.StoreID]
				if !checked {
					accessErr = s.authorizeStore(ctx, actor, entry.StoreID)
					stores[entry.StoreID] = accessErr
				}
				if accessErr != nil {
					return accessErr
				}
				itemReason := u.Reason
				if itemReason == "" {
					itemReason = reason
				}
				change, err = s.apply(ctx, actor, entry, mutation{action: act, amount: u.Amount, reason: itemReason})
				return err
			})
			if itemErr != nil {
				appErr, ok := apperror.AsAppError(itemErr)
				if !ok {
					return fmt.Errorf("bulk item %s: %w", u.StockEntryID, itemErr)
				}
				result.Errors = append(result.Errors, BulkItemError{
					StockEntryID: u.StockEntryID,
					Code:         appErr.Code,
					Message:      appErr.Message,
				})
				continue
			}
			result.Results = append(result.Results, *change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk inventory update",
		"requested", len(updates),
		"applied", len(result.Results),
		"skipped", len(result.Errors))
	return result, nil
}
