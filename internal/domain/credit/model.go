// Package credit is the running credit balance of stores and outlets.
// Balances change only through Accrue and Settle, both of which lock the
// owning row for the rest of the caller's transaction.
package credit

import (
	"fmt"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// AccountKind names which table owns the balance.
type AccountKind string

const (
	AccountStore  AccountKind = "store"
	AccountOutlet AccountKind = "outlet"
)

// Account identifies a credit balance.
type Account struct {
	Kind AccountKind `json:"kind"`
	ID   id.ID       `json:"id"`
}

// StoreAccount returns the account of a store.
func StoreAccount(storeID id.ID) Account {
	return Account{Kind: AccountStore, ID: storeID}
}

// OutletAccount returns the account of an outlet.
func OutletAccount(outletID id.ID) Account {
	return Account{Kind: AccountOutlet, ID: outletID}
}

func (a Account) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}

// Validate checks the account reference.
func (a Account) Validate() error {
	if a.Kind != AccountStore && a.Kind != AccountOutlet {
		return apperror.NewValidation("credit account kind must be store or outlet").WithDetail("kind", a.Kind)
	}
	if id.IsNil(a.ID) {
		return apperror.NewValidation("credit account id is required")
	}
	return nil
}

// Balance is the credit state of one account.
type Balance struct {
	Account Account     `json:"account"`
	Current types.Money `json:"currentCredit"`
	Limit   types.Money `json:"creditLimit"`
}

// Available is limit minus current, floored at zero.
func (b Balance) Available() types.Money {
	avail := b.Limit.Sub(b.Current)
	if avail.IsNegative() {
		return types.Zero()
	}
	return avail
}

// Utilization is current/limit, 0 when the limit is 0.
func (b Balance) Utilization() float64 {
	return types.Ratio(b.Current, b.Limit)
}
