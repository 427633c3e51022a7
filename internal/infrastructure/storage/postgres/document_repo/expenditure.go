package document_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/infrastructure/storage/postgres"
)

// ExpenditureRepo implements expenditure.Repository.
type ExpenditureRepo struct {
	*postgres.BaseRepo[expenditure.Expenditure]
}

var _ expenditure.Repository = (*ExpenditureRepo)(nil)

// NewExpenditureRepo creates a new expenditure repository.
func NewExpenditureRepo(txManager *postgres.TxManager) *ExpenditureRepo {
	return &ExpenditureRepo{
		BaseRepo: postgres.NewBaseRepo[expenditure.Expenditure](txManager, "expenditures", "expenditure"),
	}
}

func (r *ExpenditureRepo) Create(ctx context.Context, e *expenditure.Expenditure) error {
	return r.Insert(ctx, e)
}

func (r *ExpenditureRepo) Get(ctx context.Context, expenditureID id.ID) (*expenditure.Expenditure, error) {
	return r.GetByID(ctx, expenditureID)
}

func (r *ExpenditureRepo) Update(ctx context.Context, e *expenditure.Expenditure) error {
	return r.UpdateByID(ctx, e.ID, map[string]any{
		"category":    e.Category,
		"description": e.Description,
		"amount":      e.Amount,
		"date":        e.Date,
		"receipt_ref": e.ReceiptRef,
		"verified":    e.Verified,
		"verified_by": e.VerifiedBy,
		"verified_at": e.VerifiedAt,
		"updated_at":  e.UpdatedAt,
	})
}

func filterWhere(q sq.SelectBuilder, filter expenditure.Filter) sq.SelectBuilder {
	if filter.AdminID != nil {
		q = q.Where(sq.Eq{"admin_id": *filter.AdminID})
	}
	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(sq.LtOrEq{"date": *filter.To})
	}
	if filter.Category != "" {
		q = q.Where(sq.ILike{"category": "%" + filter.Category + "%"})
	}
	if filter.Verified != nil {
		q = q.Where(sq.Eq{"verified": *filter.Verified})
	}
	return q
}

func (r *ExpenditureRepo) List(ctx context.Context, filter expenditure.Filter) ([]expenditure.Expenditure, int64, error) {
	return r.Page(ctx, filterWhere(r.Select(), filter), "id DESC", filter.Limit, filter.Offset)
}

// Summarize totals every row matching filter, ignoring its page.
func (r *ExpenditureRepo) Summarize(ctx context.Context, filter expenditure.Filter) (expenditure.Summary, error) {
	q := filterWhere(postgres.Builder().Select(
		"COUNT(*) AS count",
		"COALESCE(SUM(amount), 0) AS total_amount",
		"COALESCE(SUM(amount) FILTER (WHERE verified), 0) AS verified_amount",
		"COALESCE(SUM(amount) FILTER (WHERE NOT verified), 0) AS pending_amount",
	).From(r.Table()), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return expenditure.Summary{}, fmt.Errorf("build summary: %w", err)
	}
	var sum expenditure.Summary
	if err := pgxscan.Get(ctx, r.Querier(ctx), &sum, sql, args...); err != nil {
		return expenditure.Summary{}, fmt.Errorf("summarize expenditures: %w", err)
	}
	return sum, nil
}
