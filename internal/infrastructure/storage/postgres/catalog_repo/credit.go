package catalog_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/credit"
	"stockroom/internal/infrastructure/storage/postgres"
)

// CreditRepo implements credit.Repository over the credit_limit and
// current_credit columns of stores and outlets.
type CreditRepo struct {
	txManager *postgres.TxManager
}

var _ credit.Repository = (*CreditRepo)(nil)

// NewCreditRepo creates a new credit repository.
func NewCreditRepo(txManager *postgres.TxManager) *CreditRepo {
	return &CreditRepo{txManager: txManager}
}

func accountTable(account credit.Account) (table, entity string, err error) {
	switch account.Kind {
	case credit.AccountStore:
		return "stores", "store", nil
	case credit.AccountOutlet:
		return "outlets", "outlet", nil
	}
	return "", "", account.Validate()
}

type balanceRow struct {
	Current types.Money `db:"current_credit"`
	Limit   types.Money `db:"credit_limit"`
}

func balanceQuery(account credit.Account, lock bool) (string, []any, string, error) {
	table, entity, err := accountTable(account)
	if err != nil {
		return "", nil, "", err
	}
	q := postgres.Builder().
		Select("current_credit", "credit_limit").
		From(table).
		Where(sq.Eq{"id": account.ID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, "", fmt.Errorf("build balance query: %w", err)
	}
	return sql, args, entity, nil
}

func (r *CreditRepo) balance(ctx context.Context, account credit.Account, lock bool) (*credit.Balance, error) {
	sql, args, entity, err := balanceQuery(account, lock)
	if err != nil {
		return nil, err
	}
	var row balanceRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, account.ID)
		}
		return nil, fmt.Errorf("read %s balance: %w", entity, err)
	}
	return &credit.Balance{Account: account, Current: row.Current, Limit: row.Limit}, nil
}

// LockBalance must run inside a transaction for the lock to hold.
func (r *CreditRepo) LockBalance(ctx context.Context, account credit.Account) (*credit.Balance, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, apperror.NewInternal(fmt.Errorf("lock %s requires transaction context", account))
	}
	return r.balance(ctx, account, true)
}

func (r *CreditRepo) GetBalance(ctx context.Context, account credit.Account) (*credit.Balance, error) {
	return r.balance(ctx, account, false)
}

func (r *CreditRepo) SetCurrent(ctx context.Context, account credit.Account, current types.Money) error {
	table, entity, err := accountTable(account)
	if err != nil {
		return err
	}
	sql, args, err := postgres.Builder().
		Update(table).
		Set("current_credit", current).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": account.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build credit update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s credit: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, account.ID)
	}
	return nil
}
