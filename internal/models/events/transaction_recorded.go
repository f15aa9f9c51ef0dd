package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryAmount is one ledger's contribution within a published event.
type EntryAmount struct {
	LedgerNumber int64           `json:"ledger_number"`
	Amount       decimal.Decimal `json:"amount"`
}

// TransactionRecorded is published after a transaction has been committed.
type TransactionRecorded struct {
	TransactionID   string          `json:"transaction_id"`
	Type            string          `json:"type"`
	CreatedBy       string          `json:"created_by"`
	PostedTimestamp time.Time       `json:"posted_timestamp"`
	Entries         []EntryAmount   `json:"entries"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// TransactionVoided is published after a voiding transaction has been
// committed. VoidingTransactionID carries the reversal; VoidedTransactionID
// is the original target.
type TransactionVoided struct {
	VoidingTransactionID string        `json:"voiding_transaction_id"`
	VoidedTransactionID  string        `json:"voided_transaction_id"`
	CreatedBy            string        `json:"created_by"`
	PostedTimestamp      time.Time     `json:"posted_timestamp"`
	Entries              []EntryAmount `json:"entries"`
	OccurredAt           time.Time     `json:"occurred_at"`
}
