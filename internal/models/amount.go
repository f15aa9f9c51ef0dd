package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeMagnitude is returned by Credit and Debit when the given
// magnitude is below zero. Direction is expressed by choosing the
// constructor, never by the sign of the input.
var ErrNegativeMagnitude = errors.New("amount magnitude cannot be negative")

// Debit returns the signed amount for a debit of the given non-negative
// magnitude. The engine uses a debit-positive convention: debits are
// positive, credits are negative, and a debit and a credit of the same
// magnitude cancel exactly.
func Debit(magnitude decimal.Decimal) (decimal.Decimal, error) {
	if magnitude.IsNegative() {
		return decimal.Zero, ErrNegativeMagnitude
	}
	return magnitude, nil
}

// Credit returns the signed amount for a credit of the given non-negative
// magnitude. Credit(m) is the additive inverse of Debit(m).
func Credit(magnitude decimal.Decimal) (decimal.Decimal, error) {
	if magnitude.IsNegative() {
		return decimal.Zero, ErrNegativeMagnitude
	}
	return magnitude.Neg(), nil
}
