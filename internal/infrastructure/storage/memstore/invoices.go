package memstore

import (
	"context"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/invoice"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct{ db *DB }

var _ invoice.Repository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	return r.db.write(func(s *state) error {
		for _, existing := range s.invoices {
			if existing.InvoiceNumber == inv.InvoiceNumber {
				return apperror.NewDuplicate("invoice", "invoiceNumber", inv.InvoiceNumber)
			}
		}
		v := *inv
		v.Items, v.Payments = nil, nil
		s.invoices[v.ID] = v
		return nil
	})
}

func (r *InvoiceRepo) AddItems(ctx context.Context, items []invoice.Item) error {
	if !inTx(ctx) {
		return apperror.NewInternal(errNoTx)
	}
	return r.db.write(func(s *state) error {
		s.items = append(s.items, items...)
		return nil
	})
}

func (r *InvoiceRepo) Get(_ context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	var (
		v  invoice.Invoice
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.invoices[invoiceID] })
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return &v, nil
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.Get(ctx, invoiceID)
}

func (r *InvoiceRepo) Items(_ context.Context, invoiceID id.ID) ([]invoice.Item, error) {
	var out []invoice.Item
	r.db.read(func(s *state) {
		for _, it := range s.items {
			if it.InvoiceID == invoiceID {
				out = append(out, it)
			}
		}
	})
	return out, nil
}

func (r *InvoiceRepo) Update(_ context.Context, inv *invoice.Invoice) error {
	return r.db.write(func(s *state) error {
		cur, ok := s.invoices[inv.ID]
		if !ok {
			return apperror.NewNotFound("invoice", inv.ID)
		}
		cur.Status = inv.Status
		cur.CreditAmount = inv.CreditAmount
		cur.PaidAmount = inv.PaidAmount
		cur.UpdatedAt = inv.UpdatedAt
		s.invoices[cur.ID] = cur
		return nil
	})
}

func (r *InvoiceRepo) AddPayment(_ context.Context, payment *invoice.Payment) error {
	return r.db.write(func(s *state) error {
		s.payments = append(s.payments, *payment)
		return nil
	})
}

func (r *InvoiceRepo) Payments(_ context.Context, invoiceID id.ID) ([]invoice.Payment, error) {
	var out []invoice.Payment
	r.db.read(func(s *state) {
		for _, p := range s.payments {
			if p.InvoiceID == invoiceID {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (r *InvoiceRepo) List(_ context.Context, filter invoice.Filter) ([]invoice.Invoice, int64, error) {
	var out []invoice.Invoice
	r.db.read(func(s *state) {
		for _, inv := range s.invoices {
			store, ok := s.stores[inv.StoreID]
			if !ok || !filter.Scope.Allows(store.Owner()) {
				continue
			}
			if filter.StoreID != nil && inv.StoreID != *filter.StoreID {
				continue
			}
			if filter.OutletID != nil && !id.Equal(inv.OutletID, *filter.OutletID) {
				continue
			}
			if filter.Type != "" && inv.Type != filter.Type {
				continue
			}
			if filter.Status != "" && inv.Status != filter.Status {
				continue
			}
			if filter.From != nil && inv.InvoiceDate.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !inv.InvoiceDate.Before(*filter.To) {
				continue
			}
			out = append(out, inv)
		}
	})
	sortNewest(out, func(v invoice.Invoice) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}
