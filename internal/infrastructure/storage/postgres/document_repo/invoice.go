// Package document_repo provides the PostgreSQL repositories of numbered
// documents: invoices, tickets and expenditures.
package document_repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/infrastructure/storage/postgres"
)

const invoiceItemsTable = "invoice_items"

var invoiceItemColumns = postgres.ExtractDBColumns[invoice.Item]()

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*postgres.BaseRepo[invoice.Invoice]
	items    *postgres.BaseRepo[invoice.Item]
	payments *postgres.BaseRepo[invoice.Payment]
	inserter *postgres.BatchInserter
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseRepo: postgres.NewBaseRepo[invoice.Invoice](txManager, "invoices", "invoice"),
		items:    postgres.NewBaseRepo[invoice.Item](txManager, invoiceItemsTable, "invoice item"),
		payments: postgres.NewBaseRepo[invoice.Payment](txManager, "invoice_payments", "payment"),
		inserter: postgres.NewBatchInserter(txManager),
	}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	err := r.Insert(ctx, inv)
	if _, ok := postgres.UniqueViolation(err); ok {
		return apperror.NewDuplicate("invoice", "invoiceNumber", inv.InvoiceNumber).WithCause(err)
	}
	return err
}

// AddItems loads the lines with COPY inside the invoice's transaction.
func (r *InvoiceRepo) AddItems(ctx context.Context, items []invoice.Item) error {
	rows := make([][]any, 0, len(items))
	for i := range items {
		data := postgres.StructToMap(&items[i])
		row := make([]any, len(invoiceItemColumns))
		for j, col := range invoiceItemColumns {
			row[j] = data[col]
		}
		rows = append(rows, row)
	}
	if _, err := r.inserter.CopyFromSlice(ctx, invoiceItemsTable, invoiceItemColumns, rows); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

func (r *InvoiceRepo) Get(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *InvoiceRepo) Items(ctx context.Context, invoiceID id.ID) ([]invoice.Item, error) {
	return r.items.FindAll(ctx, r.items.Select().Where(sq.Eq{"invoice_id": invoiceID}).OrderBy("id"))
}

// Update writes the mutable columns: status, amounts and updated_at.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	return r.UpdateByID(ctx, inv.ID, map[string]any{
		"status":        inv.Status,
		"credit_amount": inv.CreditAmount,
		"paid_amount":   inv.PaidAmount,
		"updated_at":    inv.UpdatedAt,
	})
}

func (r *InvoiceRepo) AddPayment(ctx context.Context, payment *invoice.Payment) error {
	return r.payments.Insert(ctx, payment)
}

func (r *InvoiceRepo) Payments(ctx context.Context, invoiceID id.ID) ([]invoice.Payment, error) {
	return r.payments.FindAll(ctx, r.payments.Select().Where(sq.Eq{"invoice_id": invoiceID}).OrderBy("id"))
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.Filter) ([]invoice.Invoice, int64, error) {
	q := r.SelectAs("i").Join("stores s ON s.id = i.store_id")
	q = postgres.ApplyScope(q, filter.Scope, "s")
	if filter.StoreID != nil {
		q = q.Where(sq.Eq{"i.store_id": *filter.StoreID})
	}
	if filter.OutletID != nil {
		q = q.Where(sq.Eq{"i.outlet_id": *filter.OutletID})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"i.type": filter.Type})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"i.status": filter.Status})
	}
	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"i.invoice_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(sq.Lt{"i.invoice_date": *filter.To})
	}
	items, total, err := r.Page(ctx, q, "i.id DESC", filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return items, total, nil
}
