package memstore

import (
	"context"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/expenditure"
)

// ExpenditureRepo implements expenditure.Repository.
type ExpenditureRepo struct{ db *DB }

var _ expenditure.Repository = (*ExpenditureRepo)(nil)

func (r *ExpenditureRepo) Create(_ context.Context, e *expenditure.Expenditure) error {
	return r.db.write(func(s *state) error {
		s.expenditures[e.ID] = *e
		return nil
	})
}

func (r *ExpenditureRepo) Get(_ context.Context, expenditureID id.ID) (*expenditure.Expenditure, error) {
	var (
		v  expenditure.Expenditure
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.expenditures[expenditureID] })
	if !ok {
		return nil, apperror.NewNotFound("expenditure", expenditureID)
	}
	return &v, nil
}

func (r *ExpenditureRepo) GetForUpdate(ctx context.Context, expenditureID id.ID) (*expenditure.Expenditure, error) {
	return r.Get(ctx, expenditureID)
}

func (r *ExpenditureRepo) Update(_ context.Context, e *expenditure.Expenditure) error {
	return r.db.write(func(s *state) error {
		if _, ok := s.expenditures[e.ID]; !ok {
			return apperror.NewNotFound("expenditure", e.ID)
		}
		s.expenditures[e.ID] = *e
		return nil
	})
}

func (r *ExpenditureRepo) matching(filter expenditure.Filter) []expenditure.Expenditure {
	category := strings.ToLower(filter.Category)
	var out []expenditure.Expenditure
	r.db.read(func(s *state) {
		for _, e := range s.expenditures {
			if filter.AdminID != nil && e.AdminID != *filter.AdminID {
				continue
			}
			if filter.From != nil && e.Date.Before(*filter.From) {
				continue
			}
			if filter.To != nil && e.Date.After(*filter.To) {
				continue
			}
			if category != "" && !strings.Contains(strings.ToLower(e.Category), category) {
				continue
			}
			if filter.Verified != nil && e.Verified != *filter.Verified {
				continue
			}
			out = append(out, e)
		}
	})
	return out
}

func (r *ExpenditureRepo) List(_ context.Context, filter expenditure.Filter) ([]expenditure.Expenditure, int64, error) {
	out := r.matching(filter)
	sortNewest(out, func(v expenditure.Expenditure) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *ExpenditureRepo) Summarize(_ context.Context, filter expenditure.Filter) (expenditure.Summary, error) {
	sum := expenditure.Summary{
		TotalAmount:    types.Zero(),
		VerifiedAmount: types.Zero(),
		PendingAmount:  types.Zero(),
	}
	for _, e := range r.matching(filter) {
		sum.Count++
		sum.TotalAmount = sum.TotalAmount.Add(e.Amount)
		if e.Verified {
			sum.VerifiedAmount = sum.VerifiedAmount.Add(e.Amount)
		} else {
			sum.PendingAmount = sum.PendingAmount.Add(e.Amount)
		}
	}
	return sum, nil
}
