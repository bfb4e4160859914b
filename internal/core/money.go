// Package core provides money parsing and handling utilities.
//
// Prices are kept as decimals and rounded to cents when parsed, so totals
// never accumulate floating-point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative amount in the stand's single currency.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{Amount: decimal.Zero}

// NewMoney builds Money from a float, rounded to cents. Intended for tests and seeds.
func NewMoney(v float64) Money {
	return Money{Amount: decimal.NewFromFloat(v).Round(2)}
}

// ParsePrice converts a user-entered price to Money.
//
// It accepts both dot (12.50) and comma (12,50) decimal separators and rounds
// half-up to cents. Returns ErrInvalidPrice for empty, malformed, negative or
// zero amounts.
//
// Examples:
//
//	ParsePrice("12.5")   -> $12.50, nil
//	ParsePrice("12,345") -> $12.35, nil
//	ParsePrice("0")      -> ErrInvalidPrice
func ParsePrice(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidPrice
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidPrice
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidPrice
	}
	m := Money{Amount: d.Round(2)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MustParsePrice is ParsePrice for literals known to be valid.
func MustParsePrice(s string) Money {
	m, err := ParsePrice(s)
	if err != nil {
		panic("core: invalid price literal " + s)
	}
	return m
}

func (m Money) Validate() error {
	if !m.Amount.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

// Equal compares amounts numerically, so 15 equals 15.00.
func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// Fixed returns the amount with exactly two decimals, without a symbol.
func (m Money) Fixed() string {
	return m.Amount.StringFixed(2)
}

// String renders the amount for display, e.g. "$12.50".
func (m Money) String() string {
	return "$" + m.Fixed()
}

// Float returns the amount as float64 for chart scaling only.
func (m Money) Float() float64 {
	f, _ := m.Amount.Float64()
	return f
}
