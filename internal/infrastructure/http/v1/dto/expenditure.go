package dto

import (
	"stockroom/internal/core/types"
	"stockroom/internal/domain/expenditure"
)

// CreateExpenditureRequest records an expense.
type CreateExpenditureRequest struct {
	Category    string      `json:"category" binding:"required"`
	Description string      `json:"description" binding:"required"`
	Amount      types.Money `json:"amount"`
	Date        string      `json:"date"`
	ReceiptRef  string      `json:"receiptRef"`
}

// ToDomain converts to the domain request.
func (r *CreateExpenditureRequest) ToDomain() (expenditure.CreateRequest, error) {
	date, err := parseTime("date", r.Date)
	if err != nil {
		return expenditure.CreateRequest{}, err
	}
	return expenditure.CreateRequest{
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        date,
		ReceiptRef:  r.ReceiptRef,
	}, nil
}

// ExpenditureListQuery filters GET /expenditures.
type ExpenditureListQuery struct {
	PageQuery
	DateRange
	Category string `form:"category"`
	Verified *bool  `form:"verified"`
}

// ToFilter converts to the domain filter.
func (q *ExpenditureListQuery) ToFilter() (expenditure.Filter, error) {
	from, to, err := q.DateRange.Parse()
	if err != nil {
		return expenditure.Filter{}, err
	}
	page := q.Page()
	return expenditure.Filter{
		From:     from,
		To:       to,
		Category: q.Category,
		Verified: q.Verified,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}, nil
}
