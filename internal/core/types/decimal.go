// Package types provides common value types.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Stored as NUMERIC(15,2).
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// LineTotal is quantity × unit price, rounded to cents.
func LineTotal(quantity int64, price Money) Money {
	return price.Mul(decimal.NewFromInt(quantity)).Round(2)
}

// Percent returns part/whole*100 rounded to two places; whole == 0 yields
// the supplied fallback.
func Percent(part, whole int64, fallback float64) float64 {
	if whole == 0 {
		return fallback
	}
	f, _ := decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return f
}

// Ratio returns num/den as a float, 0 when den is zero.
func Ratio(num, den Money) float64 {
	if den.IsZero() {
		return 0
	}
	f, _ := num.Div(den).Round(4).Float64()
	return f
}
