package document_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/ticket"
	"stockroom/internal/infrastructure/storage/postgres"
)

// TicketRepo implements ticket.Repository.
type TicketRepo struct {
	*postgres.BaseRepo[ticket.Ticket]
	comments *postgres.BaseRepo[ticket.Comment]
}

var _ ticket.Repository = (*TicketRepo)(nil)

// NewTicketRepo creates a new ticket repository.
func NewTicketRepo(txManager *postgres.TxManager) *TicketRepo {
	return &TicketRepo{
		BaseRepo: postgres.NewBaseRepo[ticket.Ticket](txManager, "tickets", "ticket"),
		comments: postgres.NewBaseRepo[ticket.Comment](txManager, "ticket_comments", "comment"),
	}
}

func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	err := r.Insert(ctx, t)
	if _, ok := postgres.UniqueViolation(err); ok {
		return apperror.NewDuplicate("ticket", "ticketNumber", t.TicketNumber).WithCause(err)
	}
	return err
}

func (r *TicketRepo) Get(ctx context.Context, ticketID id.ID) (*ticket.Ticket, error) {
	return r.GetByID(ctx, ticketID)
}

func (r *TicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	return r.UpdateByID(ctx, t.ID, map[string]any{
		"description":      t.Description,
		"priority":         t.Priority,
		"quantity_missing": t.QuantityMissing,
		"status":           t.Status,
		"action_taken":     t.ActionTaken,
		"resolved_by":      t.ResolvedBy,
		"resolved_at":      t.ResolvedAt,
		"updated_at":       t.UpdatedAt,
	})
}

func (r *TicketRepo) List(ctx context.Context, filter ticket.Filter) ([]ticket.Ticket, int64, error) {
	q := r.SelectAs("t").Join("stores s ON s.id = t.store_id")
	q = postgres.ApplyScope(q, filter.Scope, "s")
	if filter.StoreID != nil {
		q = q.Where(sq.Eq{"t.store_id": *filter.StoreID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"t.status": filter.Status})
	}
	if filter.Priority != "" {
		q = q.Where(sq.Eq{"t.priority": filter.Priority})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"t.ticket_number": pattern},
			sq.ILike{"t.description": pattern},
			sq.ILike{"t.action_taken": pattern},
		})
	}
	return r.Page(ctx, q, "t.id DESC", filter.Limit, filter.Offset)
}

func (r *TicketRepo) AddComment(ctx context.Context, c *ticket.Comment) error {
	return r.comments.Insert(ctx, c)
}

func (r *TicketRepo) Comments(ctx context.Context, ticketID id.ID) ([]ticket.Comment, error) {
	return r.comments.FindAll(ctx, r.comments.Select().Where(sq.Eq{"ticket_id": ticketID}).OrderBy("id"))
}

func (r *TicketRepo) CountByStatus(ctx context.Context, storeID id.ID) (map[ticket.Status]int64, error) {
	sql, args, err := postgres.Builder().
		Select("status", "COUNT(*)").
		From(r.Table()).
		Where(sq.Eq{"store_id": storeID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}
	rows, err := r.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	defer rows.Close()

	counts := make(map[ticket.Status]int64)
	for rows.Next() {
		var (
			status ticket.Status
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan ticket count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
