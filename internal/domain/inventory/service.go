package inventory

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/security"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain"
	"stockroom/internal/domain/catalog"
	"stockroom/pkg/logger"
)

// AlertPolicy configures alert generation.
type AlertPolicy struct {
	// Deduplicate refreshes an existing active alert for the entry
	// instead of inserting another one.
	Deduplicate bool
}

// Service is the inventory engine. Every mutation runs in one
// transaction: stock entry write, then log append, then alert evaluation.
type Service struct {
	repo      Repository
	catalog   catalog.Reader
	txManager tx.Manager
	events    outbox.Publisher
	alerts    AlertPolicy
}

// NewService creates a new inventory service.
func NewService(repo Repository, catalogReader catalog.Reader, txManager tx.Manager, events outbox.Publisher, alerts AlertPolicy) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogReader,
		txManager: txManager,
		events:    events,
		alerts:    alerts,
	}
}

// Change is the outcome of a single-entry mutation.
type Change struct {
	StockEntryID id.ID `json:"stockEntryId"`
	ProductID    id.ID `json:"productId"`
	OldQuantity  int64 `json:"oldQuantity"`
	NewQuantity  int64 `json:"newQuantity"`
}

// mutation describes one logged quantity change.
type mutation struct {
	action  Action
	amount  int64
	reason  string
	refType string
	refID   *id.ID
}

// AdjustQuantity applies add, subtract (clamped at zero) or adjust
// (absolute set) to one stock entry.
func (s *Service) AdjustQuantity(ctx context.Context, entryID id.ID, action string, amount int64, reason string) (*Change, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	act, err := ParseAdjustAction(action)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, apperror.NewValidation("amount must be a non-negative integer").WithDetail("field", "amount")
	}

	var change *Change
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.repo.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.authorizeStore(ctx, actor, entry.StoreID); err != nil {
			return err
		}
		change, err = s.apply(ctx, actor, entry, mutation{action: act, amount: amount, reason: reason})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory adjusted",
		"stock_entry_id", entryID,
		"action", act,
		"old_quantity", change.OldQuantity,
		"new_quantity", change.NewQuantity)
	return change, nil
}

// apply performs write, log and alert for one entry. Must run inside a
// transaction holding the entry's row lock.
func (s *Service) apply(ctx context.Context, actor *appctx.UserContext, entry *StockEntry, m mutation) (*Change, error) {
	oldQty := entry.Quantity
	newQty, err := nextQuantity(oldQty, m.action, m.amount)
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, entry, newQty); err != nil {
		return nil, err
	}

	loc := entry.Location()
	logEntry := &LogEntry{
		ID:              id.New(),
		StockEntryID:    entry.ID,
		ProductID:       entry.ProductID,
		StoreID:         entry.StoreID,
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		QuantityChanged: newQty - oldQty,
		Action:          m.action,
		Reason:          m.reason,
		PerformedBy:     actor.UserID,
		ToLocationKind:  &loc.Kind,
		ToLocationID:    &loc.ID,
		ReferenceType:   m.refType,
		ReferenceID:     m.refID,
		CreatedAt:       entry.UpdatedAt,
	}
	if err := s.repo.AppendLog(ctx, logEntry); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}

	if err := s.evaluateAlert(ctx, actor, entry); err != nil {
		return nil, err
	}

	return &Change{
		StockEntryID: entry.ID,
		ProductID:    entry.ProductID,
		OldQuantity:  oldQty,
		NewQuantity:  newQty,
	}, nil
}

func (s *Service) write(ctx context.Context, entry *StockEntry, quantity int64) error {
	if quantity < 0 {
		return apperror.NewInternal(fmt.Errorf("negative quantity %d for entry %s", quantity, entry.ID))
	}
	entry.Quantity = quantity
	entry.Touch()
	if err := s.repo.UpdateQuantity(ctx, entry); err != nil {
		return fmt.Errorf("update stock entry %s: %w", entry.ID, err)
	}
	return nil
}

// authorizeStore applies the ownership rule to the store of an entry.
func (s *Service) authorizeStore(ctx context.Context, actor *appctx.UserContext, storeID id.ID) error {
	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		return err
	}
	return security.RequireStoreAccess(actor, store.Owner())
}

// validateLocation checks that loc exists, has the claimed kind and
// belongs to storeID.
func (s *Service) validateLocation(ctx context.Context, storeID id.ID, loc entity.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	found, err := s.catalog.GetLocation(ctx, loc.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("location does not exist").WithDetail("location", loc.String())
		}
		return err
	}
	if found.Kind != loc.Kind || found.StoreID != storeID {
		return apperror.NewValidation("location does not belong to the store").
			WithDetail("location", loc.String()).
			WithDetail("store_id", storeID)
	}
	return nil
}

// GetEntry returns one stock entry.
func (s *Service) GetEntry(ctx context.Context, entryID id.ID) (*StockEntry, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStore(ctx, actor, entry.StoreID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries lists stock entries within the actor's stores.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) (domain.ListResult[StockEntry], error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return domain.ListResult[StockEntry]{}, err
	}
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Scope = scope
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return domain.ListResult[StockEntry]{}, fmt.Errorf("list stock entries: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

// History returns the transaction log of one entry, newest first.
func (s *Service) History(ctx context.Context, entryID id.ID, page domain.Page) (domain.ListResult[LogEntry], error) {
	if _, err := s.GetEntry(ctx, entryID); err != nil {
		return domain.ListResult[LogEntry]{}, err
	}
	page = page.Normalize()
	items, total, err := s.repo.ListLog(ctx, entryID, page.Limit, page.Offset)
	if err != nil {
		return domain.ListResult[LogEntry]{}, fmt.Errorf("list log: %w", err)
	}
	return domain.NewListResult(items, total, page), nil
}

func now() time.Time {
	return time.Now().UTC()
}
