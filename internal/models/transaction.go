package models

import "time"

// TransactionType classifies a transaction. It is an opaque tag to the
// engine; the set of valid values and their meaning belong to the caller.
type TransactionType string

// Transaction is the aggregate root: an immutable, timestamped record
// grouping a balanced set of ledger entries, the evidence that justifies
// them, and an optional back-reference to the transaction it voids.
//
// PostedTimestamp is the effective accounting time and is distinct from
// CreatedAt, the wall-clock time the record was persisted. Voids, when
// non-nil, names a previously persisted transaction whose entries this
// transaction negates; at most one transaction may reference any given
// target this way.
type Transaction struct {
	ID              string          `json:"id" db:"id"`
	PostedTimestamp time.Time       `json:"posted_timestamp" db:"posted_timestamp"`
	Notes           string          `json:"notes" db:"notes"`
	Type            TransactionType `json:"type" db:"type"`
	CreatedBy       string          `json:"created_by" db:"created_by"`
	Voids           *string         `json:"voids,omitempty" db:"voids_transaction_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	Entries  []LedgerEntry  `json:"entries"`
	Evidence []EvidenceLink `json:"evidence"`
}
