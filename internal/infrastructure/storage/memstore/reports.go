package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/credit"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/domain/reports"
)

// ReportRepo implements reports.Repository by scanning the tables.
type ReportRepo struct{ db *DB }

var _ reports.Repository = (*ReportRepo)(nil)

// visibleEntries returns the stock entries whose store scope allows.
func visibleEntries(s *state, scope security.AccessScope) []inventory.StockEntry {
	var out []inventory.StockEntry
	for _, e := range s.entries {
		store, ok := s.stores[e.StoreID]
		if !ok || !scope.Allows(store.Owner()) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func entryValue(s *state, e inventory.StockEntry) types.Money {
	return types.LineTotal(e.Quantity, s.products[e.ProductID].UnitPrice)
}

func (r *ReportRepo) InventoryTotals(_ context.Context, scope security.AccessScope) (reports.InventoryTotals, error) {
	totals := reports.InventoryTotals{TotalValue: types.Zero()}
	r.db.read(func(s *state) {
		products := make(map[id.ID]struct{})
		for _, e := range visibleEntries(s, scope) {
			totals.TotalItems++
			totals.TotalQuantity += e.Quantity
			totals.TotalValue = totals.TotalValue.Add(entryValue(s, e))
			products[e.ProductID] = struct{}{}
			switch {
			case e.Quantity == 0:
				totals.OutOfStockItems++
			case e.Quantity <= e.ReorderLevel:
				totals.LowStockItems++
			}
		}
		totals.UniqueProducts = int64(len(products))
	})
	return totals, nil
}

// breakdown groups entries by key, skipping entries key rejects.
func breakdown(s *state, entries []inventory.StockEntry, key func(inventory.StockEntry) (id.ID, string, bool)) []reports.Breakdown {
	groups := make(map[id.ID]*reports.Breakdown)
	for _, e := range entries {
		groupID, name, ok := key(e)
		if !ok {
			continue
		}
		g, seen := groups[groupID]
		if !seen {
			g = &reports.Breakdown{ID: groupID, Name: name, TotalValue: types.Zero()}
			groups[groupID] = g
		}
		g.ItemCount++
		g.TotalQuantity += e.Quantity
		g.TotalValue = g.TotalValue.Add(entryValue(s, e))
	}
	out := make([]reports.Breakdown, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b reports.Breakdown) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func (r *ReportRepo) CategoryBreakdown(_ context.Context, scope security.AccessScope) ([]reports.Breakdown, error) {
	var out []reports.Breakdown
	r.db.read(func(s *state) {
		out = breakdown(s, visibleEntries(s, scope), func(e inventory.StockEntry) (id.ID, string, bool) {
			categoryID := s.products[e.ProductID].CategoryID
			if categoryID == nil {
				return id.ID{}, "", false
			}
			c, ok := s.categories[*categoryID]
			return c.ID, c.Name, ok
		})
	})
	return out, nil
}

func (r *ReportRepo) StoreBreakdown(_ context.Context, scope security.AccessScope) ([]reports.Breakdown, error) {
	var out []reports.Breakdown
	r.db.read(func(s *state) {
		out = breakdown(s, visibleEntries(s, scope), func(e inventory.StockEntry) (id.ID, string, bool) {
			store := s.stores[e.StoreID]
			return store.ID, store.Name, true
		})
	})
	return out, nil
}

func (r *ReportRepo) CreditRows(_ context.Context, scope security.AccessScope) ([]reports.CreditRow, error) {
	var stores, outlets []reports.CreditRow
	r.db.read(func(s *state) {
		for _, st := range s.stores {
			if !scope.Allows(st.Owner()) {
				continue
			}
			stores = append(stores, reports.CreditRow{
				Kind: credit.AccountStore, ID: st.ID, StoreID: st.ID, Name: st.Name,
				CreditLimit: st.CreditLimit, CurrentCredit: st.CurrentCredit,
			})
		}
		for _, o := range s.outlets {
			st, ok := s.stores[o.StoreID]
			if !ok || !scope.Allows(st.Owner()) {
				continue
			}
			outlets = append(outlets, reports.CreditRow{
				Kind: credit.AccountOutlet, ID: o.ID, StoreID: o.StoreID, Name: o.Name,
				CreditLimit: o.CreditLimit, CurrentCredit: o.CurrentCredit,
			})
		}
	})
	byName := func(a, b reports.CreditRow) int { return cmp.Compare(a.Name, b.Name) }
	slices.SortFunc(stores, byName)
	slices.SortFunc(outlets, byName)
	return append(stores, outlets...), nil
}

func (r *ReportRepo) SalesByDay(_ context.Context, filter reports.SalesFilter) ([]reports.SalesRow, error) {
	type key struct {
		day    int64
		method string
	}
	groups := make(map[key]*reports.SalesRow)
	r.db.read(func(s *state) {
		for _, inv := range s.invoices {
			if inv.Status == invoice.StatusCancelled {
				continue
			}
			if inv.CreatedAt.Before(filter.From) || !inv.CreatedAt.Before(filter.To) {
				continue
			}
			store, ok := s.stores[inv.StoreID]
			if !ok || !filter.Scope.Allows(store.Owner()) {
				continue
			}
			if filter.StoreID != nil && inv.StoreID != *filter.StoreID {
				continue
			}
			if filter.Type != "" && string(inv.Type) != filter.Type {
				continue
			}
			day := inv.CreatedAt.UTC().Truncate(24 * time.Hour)
			k := key{day: day.Unix(), method: string(inv.PaymentMethod)}
			g, seen := groups[k]
			if !seen {
				g = &reports.SalesRow{
					Day: day, PaymentMethod: k.method,
					TotalAmount: types.Zero(), CreditAmount: types.Zero(), PaidAmount: types.Zero(),
				}
				groups[k] = g
			}
			g.InvoiceCount++
			g.TotalAmount = g.TotalAmount.Add(inv.TotalAmount)
			g.CreditAmount = g.CreditAmount.Add(inv.CreditAmount)
			g.PaidAmount = g.PaidAmount.Add(inv.PaidAmount)
		}
	})
	out := make([]reports.SalesRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b reports.SalesRow) int {
		if c := a.Day.Compare(b.Day); c != 0 {
			return c
		}
		return cmp.Compare(a.PaymentMethod, b.PaymentMethod)
	})
	return out, nil
}

func (r *ReportRepo) LocationStock(_ context.Context, storeID id.ID) ([]reports.LocationStock, error) {
	var out []reports.LocationStock
	r.db.read(func(s *state) {
		stored := make(map[id.ID]int64)
		for _, e := range s.entries {
			stored[e.LocationID] += e.Quantity
		}
		for _, l := range s.locations {
			if l.StoreID != storeID {
				continue
			}
			row := reports.LocationStock{
				Kind: l.Kind, ID: l.ID, Name: l.Name, RoomID: l.RoomID, Stored: stored[l.ID],
			}
			if l.Capacity != 0 {
				capacity := l.Capacity
				row.Capacity = &capacity
			}
			out = append(out, row)
		}
	})
	slices.SortFunc(out, func(a, b reports.LocationStock) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}
