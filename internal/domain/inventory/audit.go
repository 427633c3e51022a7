package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/pkg/logger"
)

const (
	auditDefaultNote   = "Inventory count discrepancy"
	auditMissingNote   = "Item not in expected location"
	auditReferenceType = "audit"
)

// CountedItem is one physical count.
type CountedItem struct {
	ProductID       id.ID
	CountedQuantity int64
	Notes           string
}

// AuditRequest describes a counting pass over one location.
type AuditRequest struct {
	StoreID  id.ID
	Location entity.Location
	Items    []CountedItem
	Notes    string
}

// AuditLine is the per-item outcome.
type AuditLine struct {
	ProductID        id.ID  `json:"productId"`
	StockEntryID     *id.ID `json:"stockEntryId,omitempty"`
	ExpectedQuantity int64  `json:"expectedQuantity"`
	CountedQuantity  int64  `json:"countedQuantity"`
	Discrepancy      int64  `json:"discrepancy"`
	Notes            string `json:"notes,omitempty"`
}

// AuditResult is returned by PerformAudit. AccuracyRate is reported only.
type AuditResult struct {
	Audit         Audit              `json:"audit"`
	Lines         []AuditLine        `json:"lines"`
	Discrepancies []AuditDiscrepancy `json:"discrepancies"`
	AccuracyRate  float64            `json:"accuracyRate"`
}

// PerformAudit reconciles counted quantities against the entries at a
// location. Entries with a non-zero discrepancy are set to the counted
// value and logged as audit_adjust. Counted products with no entry at
// the location are reported with expected 0 and left untouched.
func (s *Service) PerformAudit(ctx context.Context, req AuditRequest) (*AuditResult, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAuditRequest(req); err != nil {
		return nil, err
	}

	audit := Audit{
		ID:                id.New(),
		StoreID:           req.StoreID,
		LocationKind:      req.Location.Kind,
		LocationID:        req.Location.ID,
		PerformedBy:       actor.UserID,
		TotalItemsAudited: len(req.Items),
		Notes:             req.Notes,
		AuditDate:         now(),
	}
	result := &AuditResult{Lines: make([]AuditLine, 0, len(req.Items))}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.authorizeStore(ctx, actor, req.StoreID); err != nil {
			return err
		}
		if err := s.validateLocation(ctx, req.StoreID, req.Location); err != nil {
			return err
		}

		entries, err := s.repo.LockEntriesAtLocation(ctx, req.StoreID, req.Location)
		if err != nil {
			return fmt.Errorf("lock entries at %s: %w", req.Location, err)
		}
		byProduct := make(map[id.ID]*StockEntry, len(entries))
		for i := range entries {
			byProduct[entries[i].ProductID] = &entries[i]
		}

		var discrepancies []AuditDiscrepancy
		for _, item := range req.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				result.Lines = append(result.Lines, AuditLine{
					ProductID:       item.ProductID,
					CountedQuantity: item.CountedQuantity,
					Discrepancy:     item.CountedQuantity,
					Notes:           auditMissingNote,
				})
				discrepancies = append(discrepancies, AuditDiscrepancy{
					ID:              id.New(),
					AuditID:         audit.ID,
					ProductID:       item.ProductID,
					CountedQuantity: item.CountedQuantity,
					Discrepancy:     item.CountedQuantity,
					Notes:           auditMissingNote,
				})
				continue
			}

			expected := entry.Quantity
			diff := item.CountedQuantity - expected
			entryID := entry.ID
			result.Lines = append(result.Lines, AuditLine{
				ProductID:        item.ProductID,
				StockEntryID:     &entryID,
				ExpectedQuantity: expected,
				CountedQuantity:  item.CountedQuantity,
				Discrepancy:      diff,
				Notes:            item.Notes,
			})
			if diff == 0 {
				continue
			}

			discrepancies = append(discrepancies, AuditDiscrepancy{
				ID:               id.New(),
				AuditID:          audit.ID,
				ProductID:        item.ProductID,
				StockEntryID:     &entryID,
				ExpectedQuantity: expected,
				CountedQuantity:  item.CountedQuantity,
				Discrepancy:      diff,
				Notes:            item.Notes,
			})

			note := item.Notes
			if note == "" {
				note = auditDefaultNote
			}
			auditID := audit.ID
			if _, err := s.apply(ctx, actor, entry, mutation{
				action:  ActionAuditAdjust,
				amount:  item.CountedQuantity,
				reason:  "Audit: " + note,
				refType: auditReferenceType,
				refID:   &auditID,
			}); err != nil {
				return err
			}
		}

		audit.DiscrepanciesFound = len(discrepancies)
		if err := s.repo.CreateAudit(ctx, &audit, discrepancies); err != nil {
			return fmt.Errorf("create audit: %w", err)
		}
		result.Discrepancies = discrepancies
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Audit = audit
	if result.Discrepancies == nil {
		result.Discrepancies = []AuditDiscrepancy{}
	}
	result.AccuracyRate = types.Percent(
		int64(audit.TotalItemsAudited-audit.DiscrepanciesFound),
		int64(audit.TotalItemsAudited),
		100,
	)

	logger.Info(ctx, "inventory audit performed",
		"audit_id", audit.ID,
		"store_id", audit.StoreID,
		"location", req.Location.String(),
		"items", audit.TotalItemsAudited,
		"discrepancies", audit.DiscrepanciesFound)
	return result, nil
}

func validateAuditRequest(req AuditRequest) error {
	if id.IsNil(req.StoreID) {
		return apperror.NewValidation("storeId is required").WithDetail("field", "storeId")
	}
	if err := req.Location.Validate(); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return apperror.NewValidation("at least one counted item is required").WithDetail("field", "items")
	}
	seen := make(map[id.ID]struct{}, len(req.Items))
	for i, item := range req.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("item %d: productId is required", i))
		}
		if item.CountedQuantity < 0 {
			return apperror.NewValidation(fmt.Sprintf("item %d: counted quantity must not be negative", i))
		}
		if _, dup := seen[item.ProductID]; dup {
			return apperror.NewValidation(fmt.Sprintf("item %d: product counted twice", i)).
				WithDetail("product_id", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}
