// Package types provides common type aliases and monetary utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
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

// RoundCurrency rounds a monetary value to 2 decimal places, half away
// from zero (the standard commercial rounding used on all totals).
func RoundCurrency(m Money) Money {
	return m.Round(2)
}

// one is the pivot between fractional and percentage rate notation.
var one = decimal.NewFromInt(1)

// hundred divides percentage-notation rates down to fractions.
var hundred = decimal.NewFromInt(100)

// NormalizeRate converts a tax rate into the canonical fractional
// representation. Callers historically passed rates both as fractions (0.22)
// and as whole percentages (22); anything above 1 is treated as a percentage
// and divided by 100 at this boundary.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(one) {
		return rate.Div(hundred)
	}
	return rate
}
