package dto

import (
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/invoice"
)

// InvoiceItem is one requested line.
type InvoiceItem struct {
	ProductID id.ID            `json:"productId"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *types.Money     `json:"unitPrice"`
	Location  *entity.Location `json:"location"`
}

// PaymentSplit is the requested payment method and amounts.
type PaymentSplit struct {
	PaymentMethod string      `json:"paymentMethod"`
	CreditAmount  types.Money `json:"creditAmount"`
	PaidAmount    types.Money `json:"paidAmount"`
}

func (p PaymentSplit) toDomain() invoice.PaymentRequest {
	return invoice.PaymentRequest{
		Method:       invoice.PaymentMethod(p.PaymentMethod),
		CreditAmount: p.CreditAmount,
		PaidAmount:   p.PaidAmount,
	}
}

func toItems(items []InvoiceItem) []invoice.ItemRequest {
	out := make([]invoice.ItemRequest, len(items))
	for i, it := range items {
		out[i] = invoice.ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Location:  it.Location,
		}
	}
	return out
}

// DistributionRequest creates a distribution invoice.
type DistributionRequest struct {
	PaymentSplit
	StoreID id.ID         `json:"storeId"`
	Items   []InvoiceItem `json:"items" binding:"required"`
	Notes   string        `json:"notes"`
}

// ToDomain converts to the domain request.
func (r *DistributionRequest) ToDomain() invoice.DistributionRequest {
	return invoice.DistributionRequest{
		StoreID: r.StoreID,
		Items:   toItems(r.Items),
		Payment: r.PaymentSplit.toDomain(),
		Notes:   r.Notes,
	}
}

// OutletSaleRequest creates an outlet sale invoice.
type OutletSaleRequest struct {
	PaymentSplit
	StoreID  id.ID         `json:"storeId"`
	OutletID id.ID         `json:"outletId"`
	Items    []InvoiceItem `json:"items" binding:"required"`
	Notes    string        `json:"notes"`
}

// ToDomain converts to the domain request.
func (r *OutletSaleRequest) ToDomain() invoice.OutletSaleRequest {
	return invoice.OutletSaleRequest{
		StoreID:  r.StoreID,
		OutletID: r.OutletID,
		Items:    toItems(r.Items),
		Payment:  r.PaymentSplit.toDomain(),
		Notes:    r.Notes,
	}
}

// StatusRequest changes an invoice status.
type StatusRequest struct {
	Status  string          `json:"status" binding:"required"`
	Payment *PaymentDetails `json:"payment"`
}

// PaymentDetails describes the payment recorded when marking paid.
type PaymentDetails struct {
	Amount         *types.Money `json:"amount"`
	Method         string       `json:"method"`
	TransactionRef string       `json:"transactionRef"`
	Notes          string       `json:"notes"`
}

// ToDomain converts to the domain update.
func (r *StatusRequest) ToDomain() invoice.StatusUpdate {
	upd := invoice.StatusUpdate{Status: invoice.Status(r.Status)}
	if r.Payment != nil {
		upd.Payment = &invoice.PaymentDetails{
			Amount:         r.Payment.Amount,
			Method:         r.Payment.Method,
			TransactionRef: r.Payment.TransactionRef,
			Notes:          r.Payment.Notes,
		}
	}
	return upd
}

// InvoiceListQuery filters GET /invoices.
type InvoiceListQuery struct {
	PageQuery
	DateRange
	StoreID  string `form:"storeId"`
	OutletID string `form:"outletId"`
	Type     string `form:"type"`
	Status   string `form:"status"`
}

// ToFilter converts to the domain filter.
func (q *InvoiceListQuery) ToFilter() (invoice.Filter, error) {
	page := q.Page()
	f := invoice.Filter{
		Type:   invoice.Type(q.Type),
		Status: invoice.Status(q.Status),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	var err error
	if f.StoreID, err = OptionalID("storeId", q.StoreID); err != nil {
		return f, err
	}
	if f.OutletID, err = OptionalID("outletId", q.OutletID); err != nil {
		return f, err
	}
	if f.From, f.To, err = q.DateRange.Parse(); err != nil {
		return f, err
	}
	return f, nil
}
