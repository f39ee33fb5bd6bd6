// Package core holds the ledger's domain types and the pure computations
// over them.
//
// This file contains parsing of monetary amounts and conversion between
// cents and their decimal representation.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps summed totals far from int64 overflow.
var maxCents = decimal.New(math.MaxInt64/1000, 0)

// ParseAmount converts a decimal string to Money with half-up rounding to
// cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Zero is a valid
// amount; negative values are rejected since the sign lives in Kind.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount("0")      -> 0
//	ParseAmount("-5")     -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Invalid("amount", "is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Invalid("amount", "not a number: %q", s)
	}
	return moneyFromDecimal(d)
}

// AmountFromFloat converts a JSON number to Money.
func AmountFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, Invalid("amount", "not a finite number")
	}
	return moneyFromDecimal(decimal.NewFromFloat(f))
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, Invalid("amount", "must not be negative")
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) {
		return Money{}, Invalid("amount", "too large")
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for JSON output.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String formats the amount with two decimals, e.g. "12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
