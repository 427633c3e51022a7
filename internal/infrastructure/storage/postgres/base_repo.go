package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() sq.StatementBuilderType {
	return psql
}

// BaseRepo provides the CRUD shared by every table-backed repository.
// Columns come from the "db" tags of T, so T must mirror the table.
type BaseRepo[T any] struct {
	txManager *TxManager
	table     string
	entity    string
	cols      []string
}

// NewBaseRepo creates a base repository for table. entity names the row
// in NOT_FOUND errors.
func NewBaseRepo[T any](txManager *TxManager, table, entity string) *BaseRepo[T] {
	return &BaseRepo[T]{
		txManager: txManager,
		table:     table,
		entity:    entity,
		cols:      ExtractDBColumns[T](),
	}
}

// Table returns the table name.
func (r *BaseRepo[T]) Table() string { return r.table }

// Columns returns the selected columns.
func (r *BaseRepo[T]) Columns() []string { return r.cols }

// Querier returns the transaction in ctx or the pool.
func (r *BaseRepo[T]) Querier(ctx context.Context) Querier {
	return r.txManager.GetQuerier(ctx)
}

// TxManager exposes the manager for repositories that need GetTx.
func (r *BaseRepo[T]) TxManager() *TxManager { return r.txManager }

// Select starts a SELECT of all columns.
func (r *BaseRepo[T]) Select() sq.SelectBuilder {
	return psql.Select(r.cols...).From(r.table)
}

// SelectAs starts a SELECT of all columns qualified by alias, for joins.
func (r *BaseRepo[T]) SelectAs(alias string) sq.SelectBuilder {
	cols := make([]string, len(r.cols))
	for i, c := range r.cols {
		cols[i] = alias + "." + c
	}
	return psql.Select(cols...).From(r.table + " " + alias)
}

// Insert writes v using its "db" tags.
func (r *BaseRepo[T]) Insert(ctx context.Context, v *T) error {
	data := StructToMap(v)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := psql.Insert(r.table).SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// UpdateByID sets columns on the row with rowID, NOT_FOUND if absent.
func (r *BaseRepo[T]) UpdateByID(ctx context.Context, rowID id.ID, set map[string]any) error {
	sql, args, err := psql.Update(r.table).SetMap(set).Where(sq.Eq{"id": rowID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, rowID)
	}
	return nil
}

// FindOne runs q and scans a single row, NOT_FOUND keyed by key.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q sq.Sqlizer, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var v T
	if err := pgxscan.Get(ctx, r.Querier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	return &v, nil
}

// GetByID retrieves a row by id.
func (r *BaseRepo[T]) GetByID(ctx context.Context, rowID id.ID) (*T, error) {
	return r.FindOne(ctx, r.Select().Where(sq.Eq{"id": rowID}), rowID)
}

// GetForUpdate retrieves a row by id with a row lock.
func (r *BaseRepo[T]) GetForUpdate(ctx context.Context, rowID id.ID) (*T, error) {
	return r.FindOne(ctx, r.Select().Where(sq.Eq{"id": rowID}).Suffix("FOR UPDATE"), rowID)
}

// FindAll runs q and scans every row.
func (r *BaseRepo[T]) FindAll(ctx context.Context, q sq.Sqlizer) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return items, nil
}

// Page counts the rows of q, then fetches one ordered page of them.
func (r *BaseRepo[T]) Page(ctx context.Context, q sq.SelectBuilder, orderBy string, limit, offset int) ([]T, int64, error) {
	countSQL, countArgs, err := psql.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}

	q = q.OrderBy(orderBy)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	items, err := r.FindAll(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ApplyScope restricts q, which must join stores under storeAlias, to
// the stores visible to scope.
func ApplyScope(q sq.SelectBuilder, scope security.AccessScope, storeAlias string) sq.SelectBuilder {
	if scope.AdminID != nil {
		q = q.Where(sq.Eq{storeAlias + ".admin_id": *scope.AdminID})
	}
	if scope.ManagerID != nil {
		q = q.Where(sq.Eq{storeAlias + ".manager_id": *scope.ManagerID})
	}
	return q
}

// UniqueViolation reports the constraint named by a 23505 error.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// ForeignKeyViolation reports whether err is a 23503 error.
func ForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
