// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by the
// user and deciding the stored sign of a transaction amount.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds amounts so they stay exact when stored in a REAL column.
var maxAmount = decimal.New(1, 13)

// ParseAmount converts a user-entered amount to a positive decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// zero, non-numeric text and amounts too large to store are rejected with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// SignedAmount applies the sign convention: income is stored positive,
// expense negative. magnitude must be positive.
func SignedAmount(kind Kind, magnitude decimal.Decimal) decimal.Decimal {
	m := magnitude.Abs()
	if kind == Expense {
		return m.Neg()
	}
	return m
}

// FormatAmount renders a signed amount the way the history list shows it:
// "+$100" for income and "$30.5" for expenses.
func FormatAmount(amount decimal.Decimal) string {
	s := "$" + amount.Abs().String()
	if amount.IsPositive() {
		return "+" + s
	}
	return s
}
