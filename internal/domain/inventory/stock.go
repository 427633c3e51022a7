package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

// Reference ties log rows to the document that caused them.
type Reference struct {
	Type string
	ID   id.ID
}

// ReceiveRequest credits stock at a location. A zero ReorderLevel takes
// the product's threshold.
type ReceiveRequest struct {
	StoreID      id.ID
	ProductID    id.ID
	Location     entity.Location
	Quantity     int64
	ReorderLevel int64
	Reason       string
	Reference    Reference
}

// Receive books a manual delivery. The caller must have access to the
// store, and the product must be active and belong to the store's admin.
func (s *Service) Receive(ctx context.Context, req ReceiveRequest) (*Change, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be a positive integer").WithDetail("product_id", req.ProductID)
	}

	var change *Change
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		store, err := s.catalog.GetStore(ctx, req.StoreID)
		if err != nil {
			return err
		}
		if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
			return err
		}
		product, err := s.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if product.AdminID != store.AdminID {
			return apperror.NewNotFound("product", req.ProductID)
		}
		if !product.IsActive {
			return apperror.NewValidation("product is inactive").WithDetail("product_id", product.ID)
		}
		if req.ReorderLevel <= 0 {
			req.ReorderLevel = product.ThresholdQuantity
		}
		change, err = s.receive(ctx, actor, req)
		return err
	})
	return change, err
}

// The operations below are the inventory side of invoices. They join
// the caller's transaction and assume store access was already checked.

// ReceiveForDocument finds or creates the entry at the location and adds
// quantity. ReorderLevel applies only when the entry is created.
func (s *Service) ReceiveForDocument(ctx context.Context, req ReceiveRequest) (*Change, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be a positive integer").WithDetail("product_id", req.ProductID)
	}

	var change *Change
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		change, err = s.receive(ctx, actor, req)
		return err
	})
	return change, err
}

func (s *Service) receive(ctx context.Context, actor *appctx.UserContext, req ReceiveRequest) (*Change, error) {
	if err := s.validateLocation(ctx, req.StoreID, req.Location); err != nil {
		return nil, err
	}
	entry, err := s.repo.EnsureEntryForUpdate(ctx, NewStockEntry(EntryKey{
		ProductID: req.ProductID,
		StoreID:   req.StoreID,
		Location:  req.Location,
	}, req.ReorderLevel))
	if err != nil {
		return nil, fmt.Errorf("find or create stock entry: %w", err)
	}
	m := mutation{action: ActionAdd, amount: req.Quantity, reason: req.Reason}
	if !id.IsNil(req.Reference.ID) {
		refID := req.Reference.ID
		m.refType, m.refID = req.Reference.Type, &refID
	}
	return s.apply(ctx, actor, entry, m)
}

// DispatchRequest debits stock strictly. Without Location the store's
// entry holding the most of the product is used.
type DispatchRequest struct {
	StoreID   id.ID
	ProductID id.ID
	Location  *entity.Location
	Quantity  int64
	Reason    string
	Reference Reference
}

// Dispatched is the outcome of Dispatch.
type Dispatched struct {
	Change
	Location entity.Location
}

// Dispatch subtracts quantity from an entry that holds at least that
// much, failing with INSUFFICIENT_STOCK otherwise. It never clamps.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (*Dispatched, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be a positive integer").WithDetail("product_id", req.ProductID)
	}

	var out *Dispatched
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var (
			entry *StockEntry
			err   error
		)
		if req.Location != nil {
			entry, err = s.repo.FindEntryForUpdate(ctx, EntryKey{
				ProductID: req.ProductID,
				StoreID:   req.StoreID,
				Location:  *req.Location,
			})
		} else {
			entry, err = s.repo.FindLargestEntryForUpdate(ctx, req.StoreID, req.ProductID)
		}
		if apperror.IsNotFound(err) {
			return apperror.NewInsufficientStock(req.ProductID.String(), req.Quantity, 0)
		}
		if err != nil {
			return err
		}
		if entry.Quantity < req.Quantity {
			return apperror.NewInsufficientStock(req.ProductID.String(), req.Quantity, entry.Quantity)
		}

		refID := req.Reference.ID
		change, err := s.apply(ctx, actor, entry, mutation{
			action:  ActionSubtract,
			amount:  req.Quantity,
			reason:  req.Reason,
			refType: req.Reference.Type,
			refID:   &refID,
		})
		if err != nil {
			return err
		}
		out = &Dispatched{Change: *change, Location: entry.Location()}
		return nil
	})
	return out, err
}

// Withdraw subtracts quantity from the entry at key, clamping at zero.
// Used to reverse a cancelled distribution.
func (s *Service) Withdraw(ctx context.Context, key EntryKey, quantity int64, reason string, ref Reference) (*Change, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var change *Change
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.repo.FindEntryForUpdate(ctx, key)
		if err != nil {
			return err
		}
		refID := ref.ID
		change, err = s.apply(ctx, actor, entry, mutation{
			action:  ActionSubtract,
			amount:  quantity,
			reason:  reason,
			refType: ref.Type,
			refID:   &refID,
		})
		return err
	})
	return change, err
}
