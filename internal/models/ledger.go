package models

// Ledger is a named account that accumulates signed entries. Number is a
// positive integer, unique across all ledgers, and immutable once the
// ledger has been created. Ledgers are created administratively and never
// deleted; entries reference them permanently.
type Ledger struct {
	Number int64  `json:"number" db:"number"`
	Name   string `json:"name" db:"name"`
}
