// Package memstore is an in-memory implementation of every repository,
// the transaction manager, the outbox and the history recorder. It backs
// the service tests and the server's -memory mode.
//
// Transactions are serialized by one mutex and roll back by restoring a
// snapshot taken at Begin, so lost updates and partial writes are as
// observable as against PostgreSQL. Reads outside a transaction see
// in-flight writes.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sync"

	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
	"stockroom/internal/core/outbox"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/domain/ticket"
)

type state struct {
	users        map[id.ID]auth.User
	stores       map[id.ID]catalog.Store
	outlets      map[id.ID]catalog.Outlet
	locations    map[id.ID]catalog.StorageLocation
	categories   map[id.ID]catalog.Category
	products     map[id.ID]catalog.Product
	entries      map[id.ID]inventory.StockEntry
	log          []inventory.LogEntry
	alerts       map[id.ID]inventory.Alert
	audits       []inventory.Audit
	discrepancy  []inventory.AuditDiscrepancy
	invoices     map[id.ID]invoice.Invoice
	items        []invoice.Item
	payments     []invoice.Payment
	tickets      map[id.ID]ticket.Ticket
	comments     []ticket.Comment
	expenditures map[id.ID]expenditure.Expenditure
	events       []outbox.Event
	history      []history.Entry
}

func newState() *state {
	return &state{
		users:        make(map[id.ID]auth.User),
		stores:       make(map[id.ID]catalog.Store),
		outlets:      make(map[id.ID]catalog.Outlet),
		locations:    make(map[id.ID]catalog.StorageLocation),
		categories:   make(map[id.ID]catalog.Category),
		products:     make(map[id.ID]catalog.Product),
		entries:      make(map[id.ID]inventory.StockEntry),
		alerts:       make(map[id.ID]inventory.Alert),
		invoices:     make(map[id.ID]invoice.Invoice),
		tickets:      make(map[id.ID]ticket.Ticket),
		expenditures: make(map[id.ID]expenditure.Expenditure),
	}
}

// clone copies every table. Stored values are never mutated in place,
// so a shallow copy of each map and slice is a full snapshot.
func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		stores:       maps.Clone(s.stores),
		outlets:      maps.Clone(s.outlets),
		locations:    maps.Clone(s.locations),
		categories:   maps.Clone(s.categories),
		products:     maps.Clone(s.products),
		entries:      maps.Clone(s.entries),
		log:          slices.Clone(s.log),
		alerts:       maps.Clone(s.alerts),
		audits:       slices.Clone(s.audits),
		discrepancy:  slices.Clone(s.discrepancy),
		invoices:     maps.Clone(s.invoices),
		items:        slices.Clone(s.items),
		payments:     slices.Clone(s.payments),
		tickets:      maps.Clone(s.tickets),
		comments:     slices.Clone(s.comments),
		expenditures: maps.Clone(s.expenditures),
		events:       slices.Clone(s.events),
		history:      slices.Clone(s.history),
	}
}

// DB holds all tables.
type DB struct {
	txMu sync.Mutex   // one transaction at a time
	mu   sync.RWMutex // guards data
	data *state
}

// New creates an empty database.
func New() *DB {
	return &DB{data: newState()}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// RunInTransaction implements tx.Manager.
func (db *DB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	snapshot := db.snapshot()
	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		db.restore(snapshot)
	}
	return err
}

// RunInSavepoint implements tx.Manager.
func (db *DB) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if !inTx(ctx) {
		return db.RunInTransaction(ctx, fn)
	}
	snapshot := db.snapshot()
	if err := fn(ctx); err != nil {
		db.restore(snapshot)
		return err
	}
	return nil
}

func (db *DB) snapshot() *state {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.data.clone()
}

func (db *DB) restore(s *state) {
	db.mu.Lock()
	db.data = s
	db.mu.Unlock()
}

func (db *DB) read(fn func(s *state)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.data)
}

func (db *DB) write(fn func(s *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.data)
}

// Repository accessors.

func (db *DB) Users() *UserRepo               { return &UserRepo{db: db} }
func (db *DB) Catalog() *CatalogRepo          { return &CatalogRepo{db: db} }
func (db *DB) Inventory() *InventoryRepo      { return &InventoryRepo{db: db} }
func (db *DB) Credit() *CreditRepo            { return &CreditRepo{db: db} }
func (db *DB) Invoices() *InvoiceRepo         { return &InvoiceRepo{db: db} }
func (db *DB) Tickets() *TicketRepo           { return &TicketRepo{db: db} }
func (db *DB) Expenditures() *ExpenditureRepo { return &ExpenditureRepo{db: db} }
func (db *DB) Outbox() *Outbox                { return &Outbox{db: db} }
func (db *DB) History() *HistoryRecorder      { return &HistoryRecorder{db: db} }
func (db *DB) Reports() *ReportRepo           { return &ReportRepo{db: db} }

// sortNewest orders by id descending; UUIDv7 ids sort by creation time.
func sortNewest[T any](items []T, key func(T) id.ID) {
	slices.SortStableFunc(items, func(a, b T) int {
		ka, kb := key(a), key(b)
		return bytes.Compare(kb[:], ka[:])
	})
}

// paginate returns one page and the total count.
func paginate[T any](items []T, limit, offset int) ([]T, int64) {
	total := int64(len(items))
	if offset >= len(items) {
		return []T{}, total
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end], total
}
