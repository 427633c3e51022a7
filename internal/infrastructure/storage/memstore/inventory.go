package memstore

import (
	"context"
	"slices"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
)

// InventoryRepo implements inventory.Repository. Row locks are implied
// by the serialized transactions.
type InventoryRepo struct{ db *DB }

var _ inventory.Repository = (*InventoryRepo)(nil)

func (r *InventoryRepo) GetEntry(_ context.Context, entryID id.ID) (*inventory.StockEntry, error) {
	var (
		v  inventory.StockEntry
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.entries[entryID] })
	if !ok {
		return nil, apperror.NewNotFound("stock entry", entryID)
	}
	return &v, nil
}

func (r *InventoryRepo) GetEntryForUpdate(ctx context.Context, entryID id.ID) (*inventory.StockEntry, error) {
	return r.GetEntry(ctx, entryID)
}

func findByKey(s *state, key inventory.EntryKey) (inventory.StockEntry, bool) {
	for _, e := range s.entries {
		if e.Key() == key {
			return e, true
		}
	}
	return inventory.StockEntry{}, false
}

func (r *InventoryRepo) FindEntryForUpdate(_ context.Context, key inventory.EntryKey) (*inventory.StockEntry, error) {
	var (
		v  inventory.StockEntry
		ok bool
	)
	r.db.read(func(s *state) { v, ok = findByKey(s, key) })
	if !ok {
		return nil, apperror.NewNotFound("stock entry", key.Location.String())
	}
	return &v, nil
}

func (r *InventoryRepo) EnsureEntryForUpdate(_ context.Context, entry *inventory.StockEntry) (*inventory.StockEntry, error) {
	var v inventory.StockEntry
	err := r.db.write(func(s *state) error {
		if existing, ok := findByKey(s, entry.Key()); ok {
			v = existing
			return nil
		}
		v = *entry
		s.entries[v.ID] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *InventoryRepo) FindLargestEntryForUpdate(_ context.Context, storeID, productID id.ID) (*inventory.StockEntry, error) {
	var (
		best  inventory.StockEntry
		found bool
	)
	r.db.read(func(s *state) {
		for _, e := range s.entries {
			if e.StoreID != storeID || e.ProductID != productID {
				continue
			}
			if !found || e.Quantity > best.Quantity {
				best, found = e, true
			}
		}
	})
	if !found {
		return nil, apperror.NewNotFound("stock entry", productID)
	}
	return &best, nil
}

func (r *InventoryRepo) LockEntriesAtLocation(_ context.Context, storeID id.ID, loc entity.Location) ([]inventory.StockEntry, error) {
	var out []inventory.StockEntry
	r.db.read(func(s *state) {
		for _, e := range s.entries {
			if e.StoreID == storeID && e.Location() == loc {
				out = append(out, e)
			}
		}
	})
	sortNewest(out, func(v inventory.StockEntry) id.ID { return v.ID })
	return out, nil
}

func (r *InventoryRepo) UpdateQuantity(_ context.Context, entry *inventory.StockEntry) error {
	return r.db.write(func(s *state) error {
		cur, ok := s.entries[entry.ID]
		if !ok {
			return apperror.NewNotFound("stock entry", entry.ID)
		}
		cur.Quantity = entry.Quantity
		cur.UpdatedAt = entry.UpdatedAt
		s.entries[cur.ID] = cur
		return nil
	})
}

func (r *InventoryRepo) ListEntries(_ context.Context, filter inventory.EntryFilter) ([]inventory.StockEntry, int64, error) {
	var out []inventory.StockEntry
	r.db.read(func(s *state) {
		for _, e := range s.entries {
			store, ok := s.stores[e.StoreID]
			if !ok || !filter.Scope.Allows(store.Owner()) {
				continue
			}
			if filter.StoreID != nil && e.StoreID != *filter.StoreID {
				continue
			}
			if filter.ProductID != nil && e.ProductID != *filter.ProductID {
				continue
			}
			if filter.CategoryID != nil && !id.Equal(s.products[e.ProductID].CategoryID, *filter.CategoryID) {
				continue
			}
			if filter.Location != nil && e.Location() != *filter.Location {
				continue
			}
			if filter.LowStock && !e.IsLow() {
				continue
			}
			if filter.OutOfStock && e.Quantity != 0 {
				continue
			}
			out = append(out, e)
		}
	})
	sortNewest(out, func(v inventory.StockEntry) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *InventoryRepo) AppendLog(_ context.Context, entry *inventory.LogEntry) error {
	return r.db.write(func(s *state) error {
		s.log = append(s.log, *entry)
		return nil
	})
}

func (r *InventoryRepo) ListLog(_ context.Context, entryID id.ID, limit, offset int) ([]inventory.LogEntry, int64, error) {
	var out []inventory.LogEntry
	r.db.read(func(s *state) {
		for _, l := range s.log {
			if l.StockEntryID == entryID || id.Equal(l.TargetStockEntryID, entryID) {
				out = append(out, l)
			}
		}
	})
	sortNewest(out, func(v inventory.LogEntry) id.ID { return v.ID })
	page, total := paginate(out, limit, offset)
	return page, total, nil
}

func (r *InventoryRepo) CreateAlert(_ context.Context, alert *inventory.Alert) error {
	return r.db.write(func(s *state) error {
		s.alerts[alert.ID] = *alert
		return nil
	})
}

func (r *InventoryRepo) FindActiveAlert(_ context.Context, entryID id.ID) (*inventory.Alert, error) {
	var found *inventory.Alert
	r.db.read(func(s *state) {
		for _, a := range s.alerts {
			if a.StockEntryID == entryID && a.Status == inventory.AlertActive {
				found = &a
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("alert", entryID)
	}
	return found, nil
}

func (r *InventoryRepo) UpdateAlert(_ context.Context, alert *inventory.Alert) error {
	return r.db.write(func(s *state) error {
		if _, ok := s.alerts[alert.ID]; !ok {
			return apperror.NewNotFound("alert", alert.ID)
		}
		s.alerts[alert.ID] = *alert
		return nil
	})
}

func (r *InventoryRepo) ResolveActiveAlerts(_ context.Context, entryID id.ID, at time.Time, by *id.ID) (int64, error) {
	var n int64
	err := r.db.write(func(s *state) error {
		for k, a := range s.alerts {
			if a.StockEntryID != entryID || a.Status != inventory.AlertActive {
				continue
			}
			a.Status = inventory.AlertResolved
			a.ResolvedAt = &at
			a.ResolvedBy = by
			a.UpdatedAt = at
			s.alerts[k] = a
			n++
		}
		return nil
	})
	return n, err
}

func (r *InventoryRepo) GetAlert(_ context.Context, alertID id.ID) (*inventory.Alert, error) {
	var (
		v  inventory.Alert
		ok bool
	)
	r.db.read(func(s *state) { v, ok = s.alerts[alertID] })
	if !ok {
		return nil, apperror.NewNotFound("alert", alertID)
	}
	return &v, nil
}

func (r *InventoryRepo) ListAlerts(_ context.Context, filter inventory.AlertFilter) ([]inventory.Alert, int64, error) {
	var out []inventory.Alert
	r.db.read(func(s *state) {
		for _, a := range s.alerts {
			store, ok := s.stores[a.StoreID]
			if !ok || !filter.Scope.Allows(store.Owner()) {
				continue
			}
			if filter.StoreID != nil && a.StoreID != *filter.StoreID {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.Type != "" && a.Type != filter.Type {
				continue
			}
			out = append(out, a)
		}
	})
	sortNewest(out, func(v inventory.Alert) id.ID { return v.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *InventoryRepo) CreateAudit(_ context.Context, audit *inventory.Audit, discrepancies []inventory.AuditDiscrepancy) error {
	return r.db.write(func(s *state) error {
		s.audits = append(s.audits, *audit)
		s.discrepancy = append(s.discrepancy, discrepancies...)
		return nil
	})
}

// Log returns every transaction log row, oldest first.
func (r *InventoryRepo) Log() []inventory.LogEntry {
	var out []inventory.LogEntry
	r.db.read(func(s *state) { out = append(out, s.log...) })
	return out
}

// Alerts returns every alert for entryID, oldest first.
func (r *InventoryRepo) Alerts(entryID id.ID) []inventory.Alert {
	var out []inventory.Alert
	r.db.read(func(s *state) {
		for _, a := range s.alerts {
			if a.StockEntryID == entryID {
				out = append(out, a)
			}
		}
	})
	sortNewest(out, func(v inventory.Alert) id.ID { return v.ID })
	slices.Reverse(out)
	return out
}

// Discrepancies returns the stored discrepancies of one audit.
func (r *InventoryRepo) Discrepancies(auditID id.ID) []inventory.AuditDiscrepancy {
	var out []inventory.AuditDiscrepancy
	r.db.read(func(s *state) {
		for _, d := range s.discrepancy {
			if d.AuditID == auditID {
				out = append(out, d)
			}
		}
	})
	return out
}
