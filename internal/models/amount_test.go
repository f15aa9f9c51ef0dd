package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitCredit_OppositeSigns(t *testing.T) {
	magnitude := decimal.RequireFromString("100")

	debit, err := Debit(magnitude)
	require.NoError(t, err)
	credit, err := Credit(magnitude)
	require.NoError(t, err)

	assert.True(t, debit.IsPositive(), "debit should be positive")
	assert.True(t, credit.IsNegative(), "credit should be negative")
	assert.True(t, debit.Add(credit).IsZero(), "debit and credit of equal magnitude should cancel")
}

func TestDebitCredit_NegationEquivalence(t *testing.T) {
	magnitude := decimal.RequireFromString("42.37")

	debit, err := Debit(magnitude)
	require.NoError(t, err)
	credit, err := Credit(magnitude)
	require.NoError(t, err)

	assert.True(t, debit.Neg().Equal(credit), "negated debit should equal credit")
	assert.True(t, credit.Neg().Equal(debit), "negated credit should equal debit")
}

func TestDebitCredit_RejectNegativeMagnitude(t *testing.T) {
	negative := decimal.RequireFromString("-1")

	_, err := Debit(negative)
	assert.ErrorIs(t, err, ErrNegativeMagnitude)

	_, err = Credit(negative)
	assert.ErrorIs(t, err, ErrNegativeMagnitude)
}

func TestDebitCredit_ZeroMagnitude(t *testing.T) {
	debit, err := Debit(decimal.Zero)
	require.NoError(t, err)
	assert.True(t, debit.IsZero())

	credit, err := Credit(decimal.Zero)
	require.NoError(t, err)
	assert.True(t, credit.IsZero())
}

func TestDebitCredit_ExactDecimalArithmetic(t *testing.T) {
	// 0.1 + 0.2 must equal 0.3 exactly; no float rounding.
	a, err := Debit(decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	b, err := Debit(decimal.RequireFromString("0.2"))
	require.NoError(t, err)

	assert.True(t, a.Add(b).Equal(decimal.RequireFromString("0.3")))
}
