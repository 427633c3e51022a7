// Package invoice implements distribution and outlet-sale invoices and
// their settlement.
package invoice

import (
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/credit"
)

// Type is the commercial kind of an invoice.
type Type string

const (
	TypeDistribution Type = "distribution"
	TypeOutletSale   Type = "outlet_sale"
	TypeCredit       Type = "credit"
	TypePaid         Type = "paid"
)

// PaymentMethod decides how the total splits into credit and paid parts.
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentPaid   PaymentMethod = "paid"
	PaymentMixed  PaymentMethod = "mixed"
)

// ParsePaymentMethod validates a payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCredit, PaymentPaid, PaymentMixed:
		return PaymentMethod(s), nil
	}
	return "", apperror.NewValidation("payment method must be credit, paid or mixed").WithDetail("paymentMethod", s)
}

// Status is the invoice lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"

	// StatusPaid is accepted by UpdateStatus as a settlement request; the
	// invoice itself ends up completed.
	StatusPaid Status = "paid"
)

// Invoice is the header of a commercial document.
type Invoice struct {
	entity.BaseEntity
	InvoiceNumber     string              `db:"invoice_number" json:"invoiceNumber"`
	Type              Type                `db:"type" json:"type"`
	StoreID           id.ID               `db:"store_id" json:"storeId"`
	OutletID          *id.ID              `db:"outlet_id" json:"outletId,omitempty"`
	AdminID           id.ID               `db:"admin_id" json:"adminId"`
	StoreManagerID    *id.ID              `db:"store_manager_id" json:"storeManagerId,omitempty"`
	CreatedBy         id.ID               `db:"created_by" json:"createdBy"`
	PaymentMethod     PaymentMethod       `db:"payment_method" json:"paymentMethod"`
	TotalAmount       types.Money         `db:"total_amount" json:"totalAmount"`
	CreditAmount      types.Money         `db:"credit_amount" json:"creditAmount"`
	PaidAmount        types.Money         `db:"paid_amount" json:"paidAmount"`
	Status            Status              `db:"status" json:"status"`
	CreditAccountKind *credit.AccountKind `db:"credit_account_kind" json:"creditAccountKind,omitempty"`
	CreditAccountID   *id.ID              `db:"credit_account_id" json:"creditAccountId,omitempty"`
	InvoiceDate       time.Time           `db:"invoice_date" json:"invoiceDate"`
	Notes             string              `db:"notes" json:"notes"`

	Items    []Item    `db:"-" json:"items,omitempty"`
	Payments []Payment `db:"-" json:"payments,omitempty"`
}

// CreditAccount returns the account the invoice accrued to, if any.
func (inv *Invoice) CreditAccount() (credit.Account, bool) {
	if inv.CreditAccountKind == nil || inv.CreditAccountID == nil {
		return credit.Account{}, false
	}
	return credit.Account{Kind: *inv.CreditAccountKind, ID: *inv.CreditAccountID}, true
}

// Item is an immutable invoice line with the location its stock moved
// into (distribution) or out of (sale).
type Item struct {
	ID           id.ID               `db:"id" json:"id"`
	InvoiceID    id.ID               `db:"invoice_id" json:"invoiceId"`
	ProductID    id.ID               `db:"product_id" json:"productId"`
	Quantity     int64               `db:"quantity" json:"quantity"`
	UnitPrice    types.Money         `db:"unit_price" json:"unitPrice"`
	TotalPrice   types.Money         `db:"total_price" json:"totalPrice"`
	LocationKind entity.LocationKind `db:"location_kind" json:"locationKind"`
	LocationID   id.ID               `db:"location_id" json:"locationId"`
}

// Location returns the item's stock location.
func (it *Item) Location() entity.Location {
	return entity.Location{Kind: it.LocationKind, ID: it.LocationID}
}

// Payment records money received against an invoice.
type Payment struct {
	ID             id.ID       `db:"id" json:"id"`
	InvoiceID      id.ID       `db:"invoice_id" json:"invoiceId"`
	Amount         types.Money `db:"amount" json:"amount"`
	Method         string      `db:"method" json:"method"`
	TransactionRef string      `db:"transaction_ref" json:"transactionRef,omitempty"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	PaidBy         id.ID       `db:"paid_by" json:"paidBy"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

// Filter for listing invoices.
type Filter struct {
	Scope    security.AccessScope
	StoreID  *id.ID
	OutletID *id.ID
	Type     Type
	Status   Status
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// splitPayment reconciles creditAmount and paidAmount with the total.
func splitPayment(method PaymentMethod, total, creditAmount, paidAmount types.Money) (types.Money, types.Money, error) {
	switch method {
	case PaymentCredit:
		return total, types.Zero(), nil
	case PaymentPaid:
		return types.Zero(), total, nil
	case PaymentMixed:
		if creditAmount.IsNegative() || paidAmount.IsNegative() {
			return types.Zero(), types.Zero(), apperror.NewValidation("credit and paid amounts must not be negative")
		}
		if !creditAmount.Add(paidAmount).Equal(total) {
			return types.Zero(), types.Zero(), apperror.NewValidation("credit and paid amounts must add up to the total").
				WithDetail("total", total.String()).
				WithDetail("creditAmount", creditAmount.String()).
				WithDetail("paidAmount", paidAmount.String())
		}
		return creditAmount, paidAmount, nil
	}
	return types.Zero(), types.Zero(), apperror.NewValidation("payment method must be credit, paid or mixed")
}
