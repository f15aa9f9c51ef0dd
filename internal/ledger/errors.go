package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EmptyTransactionError is returned when a transaction is created with no
// entries.
type EmptyTransactionError struct{}

func (e *EmptyTransactionError) Error() string {
	return "transaction must have at least one ledger entry"
}

// ImbalancedTransactionError is returned when a transaction's entries do
// not sum to zero. Residual carries the non-zero remainder.
type ImbalancedTransactionError struct {
	Residual decimal.Decimal
}

func (e *ImbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction entries do not balance: residual %s", e.Residual)
}

// EvidenceRequiredError is returned when the engine is configured to
// require evidence and a transaction is created without any.
type EvidenceRequiredError struct{}

func (e *EvidenceRequiredError) Error() string {
	return "transaction must reference at least one evidence object"
}

// UnvoidableTransactionError is returned when the target of a void already
// has a voiding transaction. It is a business-rule rejection, not a
// transient fault; retrying will not succeed.
type UnvoidableTransactionError struct {
	TransactionID string
}

func (e *UnvoidableTransactionError) Error() string {
	return fmt.Sprintf("transaction %s has already been voided", e.TransactionID)
}

// TransientError is returned when the void path could not make progress
// within its bounded retry window. The operation made no persisted change
// and may be retried by the caller.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("storage conflict persisted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
