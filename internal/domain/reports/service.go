package reports

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/credit"
)

// maxSalesRange bounds SalesReport periods.
const maxSalesRange = 366 * 24 * time.Hour

// Service provides report generation operations.
type Service struct {
	repo   Repository
	stores catalog.Reader
}

// NewService creates a new reports service.
func NewService(repo Repository, stores catalog.Reader) *Service {
	return &Service{repo: repo, stores: stores}
}

// InventorySummary aggregates stock within the actor's stores.
func (s *Service) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.InventoryTotals(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("inventory totals: %w", err)
	}
	byCategory, err := s.repo.CategoryBreakdown(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	byStore, err := s.repo.StoreBreakdown(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("store breakdown: %w", err)
	}

	healthy := totals.TotalItems - totals.LowStockItems - totals.OutOfStockItems
	return &InventorySummary{
		InventoryTotals:   totals,
		HealthPercentage:  types.Percent(healthy, totals.TotalItems, 0),
		CategoryBreakdown: byCategory,
		StoreBreakdown:    byStore,
	}, nil
}

// CreditReport lists balances of the actor's stores and outlets.
// Totals cover stores only.
func (s *Service) CreditReport(ctx context.Context) (*CreditReport, error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.CreditRows(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("credit rows: %w", err)
	}

	report := &CreditReport{
		Stores:         []CreditLine{},
		Outlets:        []CreditLine{},
		TotalLimit:     types.Zero(),
		TotalCurrent:   types.Zero(),
		TotalAvailable: types.Zero(),
	}
	for _, row := range rows {
		b := credit.Balance{
			Account: credit.Account{Kind: row.Kind, ID: row.ID},
			Current: row.CurrentCredit,
			Limit:   row.CreditLimit,
		}
		line := CreditLine{CreditRow: row, AvailableCredit: b.Available(), Utilization: b.Utilization()}
		if row.Kind == credit.AccountOutlet {
			report.Outlets = append(report.Outlets, line)
			continue
		}
		report.Stores = append(report.Stores, line)
		report.TotalLimit = report.TotalLimit.Add(row.CreditLimit)
		report.TotalCurrent = report.TotalCurrent.Add(row.CurrentCredit)
		report.TotalAvailable = report.TotalAvailable.Add(line.AvailableCredit)
	}
	report.Utilization = types.Ratio(report.TotalCurrent, report.TotalLimit)
	return report, nil
}

// SalesReport aggregates invoices per day and payment method.
func (s *Service) SalesReport(ctx context.Context, filter SalesFilter) (*SalesReport, error) {
	_, scope, err := security.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperror.NewValidation("from and to are required")
	}
	if filter.To.Before(filter.From) {
		return nil, apperror.NewValidation("from must not be after to")
	}
	if filter.To.Sub(filter.From) > maxSalesRange {
		return nil, apperror.NewValidation("period must not exceed one year")
	}
	filter.Scope = scope

	rows, err := s.repo.SalesByDay(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}
	report := &SalesReport{
		From:         filter.From,
		To:           filter.To,
		Rows:         rows,
		TotalAmount:  types.Zero(),
		CreditAmount: types.Zero(),
		PaidAmount:   types.Zero(),
	}
	for _, r := range rows {
		report.InvoiceCount += r.InvoiceCount
		report.TotalAmount = report.TotalAmount.Add(r.TotalAmount)
		report.CreditAmount = report.CreditAmount.Add(r.CreditAmount)
		report.PaidAmount = report.PaidAmount.Add(r.PaidAmount)
	}
	return report, nil
}

// LocationOccupancy reports stored quantity against capacity for
// every location of a store.
func (s *Service) LocationOccupancy(ctx context.Context, storeID id.ID) ([]Occupancy, error) {
	actor, err := security.Actor(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := security.RequireStoreAccess(actor, store.Owner()); err != nil {
		return nil, err
	}

	rows, err := s.repo.LocationStock(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("location stock: %w", err)
	}
	out := make([]Occupancy, 0, len(rows))
	for _, r := range rows {
		o := Occupancy{LocationStock: r}
		if r.Capacity != nil && *r.Capacity > 0 {
			o.UsedPercentage = types.Percent(r.Stored, *r.Capacity, 0)
			o.OverCapacity = r.Stored > *r.Capacity
		}
		out = append(out, o)
	}
	return out, nil
}
