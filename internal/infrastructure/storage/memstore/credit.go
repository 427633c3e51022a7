package memstore

import (
	"context"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/credit"
)

// CreditRepo implements credit.Repository over the credit columns of
// stores and outlets.
type CreditRepo struct{ db *DB }

var _ credit.Repository = (*CreditRepo)(nil)

func balanceOf(s *state, account credit.Account) (*credit.Balance, error) {
	switch account.Kind {
	case credit.AccountStore:
		if st, ok := s.stores[account.ID]; ok {
			return &credit.Balance{Account: account, Current: st.CurrentCredit, Limit: st.CreditLimit}, nil
		}
		return nil, apperror.NewNotFound("store", account.ID)
	case credit.AccountOutlet:
		if o, ok := s.outlets[account.ID]; ok {
			return &credit.Balance{Account: account, Current: o.CurrentCredit, Limit: o.CreditLimit}, nil
		}
		return nil, apperror.NewNotFound("outlet", account.ID)
	}
	return nil, account.Validate()
}

func (r *CreditRepo) LockBalance(ctx context.Context, account credit.Account) (*credit.Balance, error) {
	return r.GetBalance(ctx, account)
}

func (r *CreditRepo) GetBalance(_ context.Context, account credit.Account) (*credit.Balance, error) {
	var (
		b   *credit.Balance
		err error
	)
	r.db.read(func(s *state) { b, err = balanceOf(s, account) })
	return b, err
}

func (r *CreditRepo) SetCurrent(_ context.Context, account credit.Account, current types.Money) error {
	return r.db.write(func(s *state) error {
		switch account.Kind {
		case credit.AccountStore:
			st, ok := s.stores[account.ID]
			if !ok {
				return apperror.NewNotFound("store", account.ID)
			}
			st.CurrentCredit = current
			s.stores[st.ID] = st
			return nil
		case credit.AccountOutlet:
			o, ok := s.outlets[account.ID]
			if !ok {
				return apperror.NewNotFound("outlet", account.ID)
			}
			o.CurrentCredit = current
			s.outlets[o.ID] = o
			return nil
		}
		return account.Validate()
	})
}
