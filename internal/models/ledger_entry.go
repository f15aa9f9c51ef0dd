package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one signed line item: a single amount posted against a
// single ledger, belonging to exactly one transaction. Entries are
// immutable; corrections happen only through new transactions.
type LedgerEntry struct {
	ID            string          `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	LedgerNumber  int64           `json:"ledger_number" db:"ledger_number"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
