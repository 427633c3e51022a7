package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/security"
	"stockroom/internal/domain"
)

// evaluateAlert raises an alert when entry is at or below its reorder
// level and resolves active alerts once it has recovered.
func (s *Service) evaluateAlert(ctx context.Context, actor *appctx.UserContext, entry *StockEntry) error {
	if !entry.IsLow() {
		if _, err := s.repo.ResolveActiveAlerts(ctx, entry.ID, now(), nil); err != nil {
			return fmt.Errorf("resolve alerts: %w", err)
		}
		return nil
	}

	alertType := AlertLowStock
	if entry.Quantity == 0 {
		alertType = AlertOutOfStock
	}

	if s.alerts.Deduplicate {
		existing, err := s.repo.FindActiveAlert(ctx, entry.ID)
		switch {
		case err == nil:
			existing.Type = alertType
			existing.CurrentQuantity = entry.Quantity
			existing.Threshold = entry.ReorderLevel
			existing.UpdatedAt = now()
			if err := s.repo.UpdateAlert(ctx, existing); err != nil {
				return fmt.Errorf("refresh alert: %w", err)
			}
			return nil
		case !apperror.IsNotFound(err):
			return fmt.Errorf("find active alert: %w", err)
		}
	}

	at := now()
	alert := &Alert{
		ID:              id.New(),
		StockEntryID:    entry.ID,
		StoreID:         entry.StoreID,
		ProductID:       entry.ProductID,
		Type:            alertType,
		CurrentQuantity: entry.Quantity,
		Threshold:       entry.ReorderLevel,
		Status:          AlertActive,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	if err := s.repo.CreateAlert(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return s.events.Publish(ctx, outbox.Event{
		AggregateType: "stock_entry",
		AggregateID:   entry.ID,
		EventType:     outbox.EventAlertRaised,
		Payload: map[string]any{
			"alertId":         alert.ID,
			"storeId":         alert.StoreID,
			"productId":       alert.ProductID,
			"type":            alert.Type,
			"currentQuantity": alert.CurrentQuantity,
			"threshold":       alert.Threshold,
			"raisedBy":        actor.UserID,
		},
	})
}

// ListAlerts lists alerts within the actor's stores.
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter) (domain.ListResult[Alert], error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return domain.ListResult[Alert]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Scope = scope
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, total, err := s.repo.ListAlerts(ctx, filter)
	if err != nil {
		return domain.ListResult[Alert]{}, fmt.Errorf("list alerts: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

// ResolveAlert marks an active alert resolved by the actor.
func (s *Service) ResolveAlert(ctx context.Context, alertID id.ID) (*Alert, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var alert *Alert
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		alert, err = s.repo.GetAlert(ctx, alertID)
		if err != nil {
			return err
		}
		if err := s.authorizeStore(ctx, actor, alert.StoreID); err != nil {
			return err
		}
		if alert.Status == AlertResolved {
			return apperror.NewInvalidTransition("alert", string(AlertResolved), string(AlertResolved))
		}
		at := now()
		by := actor.UserID
		alert.Status = AlertResolved
		alert.ResolvedAt = &at
		alert.ResolvedBy = &by
		alert.UpdatedAt = at
		return s.repo.UpdateAlert(ctx, alert)
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}
