package dto

import (
	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/reports"
)

// SalesReportQuery selects the sales report period.
type SalesReportQuery struct {
	DateRange
	StoreID string `form:"storeId"`
	Type    string `form:"type"`
}

// ToFilter converts to the domain filter. Both bounds are required.
func (q *SalesReportQuery) ToFilter() (reports.SalesFilter, error) {
	from, to, err := q.DateRange.Parse()
	if err != nil {
		return reports.SalesFilter{}, err
	}
	if from == nil || to == nil {
		return reports.SalesFilter{}, apperror.NewValidation("from and to are required")
	}
	storeID, err := OptionalID("storeId", q.StoreID)
	if err != nil {
		return reports.SalesFilter{}, err
	}
	return reports.SalesFilter{StoreID: storeID, From: *from, To: *to, Type: q.Type}, nil
}
