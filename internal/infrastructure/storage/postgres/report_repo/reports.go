// Package report_repo provides the PostgreSQL aggregate queries behind
// the reports.
package report_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/domain/reports"
	"stockroom/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   sq.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager, builder: postgres.Builder()}
}

// stockBase selects stock entries joined to their store and product.
func (r *ReportRepo) stockBase(scope security.AccessScope, cols ...string) sq.SelectBuilder {
	q := r.builder.Select(cols...).
		From("stock_entries e").
		Join("stores s ON s.id = e.store_id").
		Join("products p ON p.id = e.product_id")
	return postgres.ApplyScope(q, scope, "s")
}

func (r *ReportRepo) get(ctx context.Context, dst any, q sq.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build report query: %w", err)
	}
	return pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), dst, sql, args...)
}

func (r *ReportRepo) selectAll(ctx context.Context, dst any, q sq.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build report query: %w", err)
	}
	return pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dst, sql, args...)
}

const valueExpr = "COALESCE(SUM(e.quantity * p.unit_price), 0) AS total_value"

func (r *ReportRepo) InventoryTotals(ctx context.Context, scope security.AccessScope) (reports.InventoryTotals, error) {
	q := r.stockBase(scope,
		"COUNT(*) AS total_items",
		"COALESCE(SUM(e.quantity), 0) AS total_quantity",
		valueExpr,
		"COUNT(DISTINCT e.product_id) AS unique_products",
		"COUNT(*) FILTER (WHERE e.quantity > 0 AND e.quantity <= e.reorder_level) AS low_stock_items",
		"COUNT(*) FILTER (WHERE e.quantity = 0) AS out_of_stock_items",
	)
	var totals reports.InventoryTotals
	if err := r.get(ctx, &totals, q); err != nil {
		return reports.InventoryTotals{}, fmt.Errorf("inventory totals: %w", err)
	}
	return totals, nil
}

func (r *ReportRepo) CategoryBreakdown(ctx context.Context, scope security.AccessScope) ([]reports.Breakdown, error) {
	q := r.stockBase(scope,
		"c.id", "c.name",
		"COUNT(*) AS item_count",
		"COALESCE(SUM(e.quantity), 0) AS total_quantity",
		valueExpr,
	).
		Join("categories c ON c.id = p.category_id").
		GroupBy("c.id", "c.name").
		OrderBy("c.name")
	var rows []reports.Breakdown
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) StoreBreakdown(ctx context.Context, scope security.AccessScope) ([]reports.Breakdown, error) {
	q := r.stockBase(scope,
		"s.id", "s.name",
		"COUNT(*) AS item_count",
		"COALESCE(SUM(e.quantity), 0) AS total_quantity",
		valueExpr,
	).
		GroupBy("s.id", "s.name").
		OrderBy("s.name")
	var rows []reports.Breakdown
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("store breakdown: %w", err)
	}
	return rows, nil
}

// CreditRows unions store and outlet balances, stores first.
func (r *ReportRepo) CreditRows(ctx context.Context, scope security.AccessScope) ([]reports.CreditRow, error) {
	stores := postgres.ApplyScope(r.builder.
		Select("'store' AS kind", "s.id", "s.id AS store_id", "s.name", "s.credit_limit", "s.current_credit").
		From("stores s"), scope, "s")
	outlets := postgres.ApplyScope(r.builder.
		Select("'outlet' AS kind", "o.id", "o.store_id", "o.name", "o.credit_limit", "o.current_credit").
		From("outlets o").
		Join("stores s ON s.id = o.store_id"), scope, "s")

	var rows []reports.CreditRow
	if err := r.selectAll(ctx, &rows, stores.OrderBy("s.name")); err != nil {
		return nil, fmt.Errorf("store credit rows: %w", err)
	}
	var outletRows []reports.CreditRow
	if err := r.selectAll(ctx, &outletRows, outlets.OrderBy("o.name")); err != nil {
		return nil, fmt.Errorf("outlet credit rows: %w", err)
	}
	return append(rows, outletRows...), nil
}

// SalesByDay groups non-cancelled invoices by creation day and method.
func (r *ReportRepo) SalesByDay(ctx context.Context, filter reports.SalesFilter) ([]reports.SalesRow, error) {
	q := r.builder.Select(
		"date_trunc('day', i.created_at) AS day",
		"i.payment_method",
		"COUNT(*) AS invoice_count",
		"COALESCE(SUM(i.total_amount), 0) AS total_amount",
		"COALESCE(SUM(i.credit_amount), 0) AS credit_amount",
		"COALESCE(SUM(i.paid_amount), 0) AS paid_amount",
	).
		From("invoices i").
		Join("stores s ON s.id = i.store_id").
		Where(sq.NotEq{"i.status": "cancelled"}).
		Where(sq.GtOrEq{"i.created_at": filter.From}).
		Where(sq.Lt{"i.created_at": filter.To})
	q = postgres.ApplyScope(q, filter.Scope, "s")
	if filter.StoreID != nil {
		q = q.Where(sq.Eq{"i.store_id": *filter.StoreID})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"i.type": filter.Type})
	}
	q = q.GroupBy("day", "i.payment_method").OrderBy("day", "i.payment_method")

	var rows []reports.SalesRow
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}
	return rows, nil
}

// LocationStock lists a store's locations with their stored quantity.
func (r *ReportRepo) LocationStock(ctx context.Context, storeID id.ID) ([]reports.LocationStock, error) {
	q := r.builder.Select(
		"l.kind", "l.id", "l.name", "l.room_id",
		"NULLIF(l.capacity, 0) AS capacity",
		"COALESCE(SUM(e.quantity), 0) AS stored",
	).
		From("storage_locations l").
		LeftJoin("stock_entries e ON e.location_kind = l.kind AND e.location_id = l.id").
		Where(sq.Eq{"l.store_id": storeID}).
		GroupBy("l.kind", "l.id", "l.name", "l.room_id", "l.capacity").
		OrderBy("l.kind", "l.name")

	var rows []reports.LocationStock
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("location stock: %w", err)
	}
	return rows, nil
}
