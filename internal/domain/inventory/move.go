package inventory

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/pkg/logger"
)

// MoveResult reports both sides of a move.
type MoveResult struct {
	From  Change `json:"from"`
	To    Change `json:"to"`
	Moved int64  `json:"moved"`
}

// MoveQuantity transfers quantity from one entry to the entry for the
// same product and store at destination, creating it if needed. The
// destination inherits the source reorder level on creation.
func (s *Service) MoveQuantity(ctx context.Context, sourceID id.ID, destination entity.Location, quantity int64, reason string) (*MoveResult, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be a positive integer").WithDetail("field", "quantity")
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	var result *MoveResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		src, err := s.repo.GetEntryForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if err := s.authorizeStore(ctx, actor, src.StoreID); err != nil {
			return err
		}
		if src.Location() == destination {
			return apperror.NewValidation("destination is the source location")
		}
		if err := s.validateLocation(ctx, src.StoreID, destination); err != nil {
			return err
		}
		if quantity > src.Quantity {
			return apperror.NewInsufficientStock(src.ProductID.String(), quantity, src.Quantity)
		}

		dst, err := s.repo.EnsureEntryForUpdate(ctx, NewStockEntry(EntryKey{
			ProductID: src.ProductID,
			StoreID:   src.StoreID,
			Location:  destination,
		}, src.ReorderLevel))
		if err != nil {
			return fmt.Errorf("find or create destination: %w", err)
		}

		srcOld, dstOld := src.Quantity, dst.Quantity
		srcNew, err := nextQuantity(srcOld, ActionSubtract, quantity)
		if err != nil {
			return err
		}
		if err := s.write(ctx, src, srcNew); err != nil {
			return err
		}
		if err := s.write(ctx, dst, dstOld+quantity); err != nil {
			return err
		}

		from, to := src.Location(), dst.Location()
		if err := s.repo.AppendLog(ctx, &LogEntry{
			ID:                 id.New(),
			StockEntryID:       src.ID,
			ProductID:          src.ProductID,
			StoreID:            src.StoreID,
			OldQuantity:        srcOld,
			NewQuantity:        srcNew,
			QuantityChanged:    srcNew - srcOld,
			Action:             ActionMove,
			Reason:             reason,
			PerformedBy:        actor.UserID,
			FromLocationKind:   &from.Kind,
			FromLocationID:     &from.ID,
			ToLocationKind:     &to.Kind,
			ToLocationID:       &to.ID,
			TargetStockEntryID: &dst.ID,
			CreatedAt:          src.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		if err := s.evaluateAlert(ctx, actor, src); err != nil {
			return err
		}
		if err := s.evaluateAlert(ctx, actor, dst); err != nil {
			return err
		}

		result = &MoveResult{
			From:  Change{StockEntryID: src.ID, ProductID: src.ProductID, OldQuantity: srcOld, NewQuantity: srcNew},
			To:    Change{StockEntryID: dst.ID, ProductID: dst.ProductID, OldQuantity: dstOld, NewQuantity: dst.Quantity},
			Moved: quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory moved",
		"from_entry_id", result.From.StockEntryID,
		"to_entry_id", result.To.StockEntryID,
		"quantity", quantity)
	return result, nil
}
