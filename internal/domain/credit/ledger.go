package credit

import (
	"context"
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/pkg/logger"
)

// CodeCreditLimitExceeded is returned when the configured policy rejects
// an accrual.
const CodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"

// Ledger mutates credit balances. Without a policy the credit limit is
// advisory: breaches are logged, never rejected.
type Ledger struct {
	repo      Repository
	txManager tx.Manager
	policy    Policy
}

// NewLedger creates a ledger. policy may be nil.
func NewLedger(repo Repository, txManager tx.Manager, policy Policy) *Ledger {
	return &Ledger{repo: repo, txManager: txManager, policy: policy}
}

// Accrue adds amount to the account's current credit.
func (l *Ledger) Accrue(ctx context.Context, account Account, amount types.Money) (*Balance, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("accrual amount must be positive").WithDetail("amount", amount.String())
	}

	var balance *Balance
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.repo.LockBalance(ctx, account)
		if err != nil {
			return err
		}

		if l.policy != nil {
			allowed, err := l.policy.Allow(b.Current, amount, b.Limit)
			if err != nil {
				return err
			}
			if !allowed {
				return apperror.NewBusinessRule(CodeCreditLimitExceeded, "credit limit would be exceeded").
					WithDetail("account", account.String()).
					WithDetail("current", b.Current.String()).
					WithDetail("amount", amount.String()).
					WithDetail("limit", b.Limit.String())
			}
		}

		next := b.Current.Add(amount)
		if b.Limit.IsPositive() && next.GreaterThan(b.Limit) {
			logger.Warn(ctx, "credit limit exceeded",
				"account", account.String(),
				"current", next.String(),
				"limit", b.Limit.String())
		}

		if err := l.repo.SetCurrent(ctx, account, next); err != nil {
			return fmt.Errorf("accrue credit: %w", err)
		}
		b.Current = next
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Settle subtracts amount from the account's current credit. Settling
// more than is outstanding fails with OVER_SETTLEMENT.
func (l *Ledger) Settle(ctx context.Context, account Account, amount types.Money) (*Balance, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("settlement amount must be positive").WithDetail("amount", amount.String())
	}

	var balance *Balance
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.repo.LockBalance(ctx, account)
		if err != nil {
			return err
		}
		if amount.GreaterThan(b.Current) {
			return apperror.NewOverSettlement(account.String(), b.Current.String(), amount.String())
		}
		next := b.Current.Sub(amount)
		if err := l.repo.SetCurrent(ctx, account, next); err != nil {
			return fmt.Errorf("settle credit: %w", err)
		}
		b.Current = next
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Utilization returns current/limit for reporting.
func (l *Ledger) Utilization(ctx context.Context, account Account) (float64, error) {
	b, err := l.repo.GetBalance(ctx, account)
	if err != nil {
		return 0, err
	}
	return b.Utilization(), nil
}

// Balance returns the account's balance without locking.
func (l *Ledger) Balance(ctx context.Context, account Account) (*Balance, error) {
	return l.repo.GetBalance(ctx, account)
}
