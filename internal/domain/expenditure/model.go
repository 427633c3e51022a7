// Package expenditure records admin office expenses.
package expenditure

import (
	"context"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// Expenditure is one expense line. ReceiptRef points at an uploaded
// receipt; file bytes are handled elsewhere.
type Expenditure struct {
	entity.BaseEntity
	AdminID     id.ID       `db:"admin_id" json:"adminId"`
	Category    string      `db:"category" json:"category"`
	Description string      `db:"description" json:"description"`
	Amount      types.Money `db:"amount" json:"amount"`
	Date        time.Time   `db:"date" json:"date"`
	ReceiptRef  string      `db:"receipt_ref" json:"receiptRef,omitempty"`
	Verified    bool        `db:"verified" json:"verified"`
	VerifiedBy  *id.ID      `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time  `db:"verified_at" json:"verifiedAt,omitempty"`
}

func (e *Expenditure) Validate(ctx context.Context) error {
	if strings.TrimSpace(e.Category) == "" {
		return apperror.NewValidation("category is required").WithDetail("field", "category")
	}
	if strings.TrimSpace(e.Description) == "" {
		return apperror.NewValidation("description is required").WithDetail("field", "description")
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	return nil
}

// Filter for listing expenditures. AdminID nil means all admins.
type Filter struct {
	AdminID  *id.ID
	From     *time.Time
	To       *time.Time
	Category string
	Verified *bool
	Limit    int
	Offset   int
}

// Summary totals the rows matched by a filter, ignoring pagination.
type Summary struct {
	Count          int64       `db:"count" json:"total"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
	VerifiedAmount types.Money `db:"verified_amount" json:"verifiedAmount"`
	PendingAmount  types.Money `db:"pending_amount" json:"pendingAmount"`
}
