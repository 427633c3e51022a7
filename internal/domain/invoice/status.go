package invoice

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/inventory"
	"stockroom/pkg/logger"
)

// PaymentDetails optionally accompanies a "paid" status update.
type PaymentDetails struct {
	Amount         *types.Money
	Method         string
	TransactionRef string
	Notes          string
}

// StatusUpdate is a requested transition.
type StatusUpdate struct {
	Status  Status
	Payment *PaymentDetails
}

// UpdateStatus applies a transition:
//
//	pending   -> completed
//	pending   -> cancelled (distribution stock and credit are reversed)
//	unsettled -> paid      (credit is settled; invoice becomes completed)
func (s *Service) UpdateStatus(ctx context.Context, invoiceID id.ID, upd StatusUpdate) (*Invoice, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if _, err := s.accessibleStore(ctx, actor, inv.StoreID); err != nil {
			return err
		}
		from := inv.Status

		switch upd.Status {
		case StatusCompleted:
			if inv.Status != StatusPending {
				return apperror.NewInvalidTransition(referenceType, string(inv.Status), string(upd.Status))
			}
			inv.Status = StatusCompleted
		case StatusCancelled:
			if inv.Status != StatusPending {
				return apperror.NewInvalidTransition(referenceType, string(inv.Status), string(upd.Status))
			}
			if err := s.cancel(ctx, inv); err != nil {
				return err
			}
		case StatusPaid:
			if err := s.settle(ctx, actor, inv, upd.Payment); err != nil {
				return err
			}
		default:
			return apperror.NewValidation("status must be completed, cancelled or paid").WithDetail("status", upd.Status)
		}

		inv.Touch()
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return s.history.Record(ctx, referenceType, inv.ID, history.ActionStatusChange, map[string]any{
			"status":       map[string]any{"old": from, "new": inv.Status},
			"requested":    upd.Status,
			"creditAmount": inv.CreditAmount.String(),
			"paidAmount":   inv.PaidAmount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status updated",
		"invoice_id", inv.ID,
		"requested", upd.Status,
		"status", inv.Status)
	return inv, nil
}

// settle clears the outstanding credit of an invoice.
func (s *Service) settle(ctx context.Context, actor *appctx.UserContext, inv *Invoice, details *PaymentDetails) error {
	account, ok := inv.CreditAccount()
	if inv.Status == StatusCancelled || inv.PaymentMethod == PaymentPaid || !ok || !inv.CreditAmount.IsPositive() {
		return apperror.NewInvalidTransition(referenceType, string(inv.Status), string(StatusPaid))
	}

	outstanding := inv.CreditAmount
	if _, err := s.ledger.Settle(ctx, account, outstanding); err != nil {
		return err
	}

	amount := outstanding
	method := string(PaymentPaid)
	payment := &Payment{ID: id.New(), InvoiceID: inv.ID, PaidBy: actor.UserID}
	if details != nil {
		if details.Amount != nil {
			if !details.Amount.Equal(outstanding) {
				return apperror.NewValidation("payment amount must equal the outstanding credit").
					WithDetail("outstanding", outstanding.String()).
					WithDetail("amount", details.Amount.String())
			}
		}
		if details.Method != "" {
			method = details.Method
		}
		payment.TransactionRef = details.TransactionRef
		payment.Notes = details.Notes
	}
	payment.Amount = amount
	payment.Method = method
	payment.CreatedAt = time.Now().UTC()
	if err := s.repo.AddPayment(ctx, payment); err != nil {
		return fmt.Errorf("add payment: %w", err)
	}

	inv.Status = StatusCompleted
	inv.CreditAmount = types.Zero()
	inv.PaidAmount = inv.TotalAmount
	inv.Payments = append(inv.Payments, *payment)

	return s.events.Publish(ctx, outbox.Event{
		AggregateType: referenceType,
		AggregateID:   inv.ID,
		EventType:     outbox.EventInvoiceSettled,
		Payload: map[string]any{
			"invoiceNumber": inv.InvoiceNumber,
			"account":       account.String(),
			"amount":        amount.String(),
			"paidBy":        actor.UserID,
		},
	})
}

// cancel reverses the effects of a pending invoice.
func (s *Service) cancel(ctx context.Context, inv *Invoice) error {
	if inv.Type == TypeDistribution {
		items, err := s.repo.Items(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("load invoice items: %w", err)
		}
		ref := inventory.Reference{Type: referenceType, ID: inv.ID}
		reason := "Cancelled " + inv.InvoiceNumber
		for _, it := range items {
			key := inventory.EntryKey{ProductID: it.ProductID, StoreID: inv.StoreID, Location: it.Location()}
			if _, err := s.stock.Withdraw(ctx, key, it.Quantity, reason, ref); err != nil {
				return err
			}
		}
		inv.Items = items
	}
	if account, ok := inv.CreditAccount(); ok && inv.CreditAmount.IsPositive() {
		if _, err := s.ledger.Settle(ctx, account, inv.CreditAmount); err != nil {
			return err
		}
	}
	inv.Status = StatusCancelled
	return s.events.Publish(ctx, outbox.Event{
		AggregateType: referenceType,
		AggregateID:   inv.ID,
		EventType:     outbox.EventInvoiceCanceled,
		Payload: map[string]any{
			"invoiceNumber": inv.InvoiceNumber,
			"type":          inv.Type,
			"creditAmount":  inv.CreditAmount.String(),
		},
	})
}
