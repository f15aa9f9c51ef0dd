package interfaces

import (
	"context"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// LedgerStore is the persistence boundary for the transaction engine.
// SaveTransaction must persist the transaction together with all of its
// entries and evidence links as a single all-or-nothing unit, and must
// enforce that at most one transaction references any given target through
// its Voids field (returning ErrDuplicateVoid otherwise).
type LedgerStore interface {
	CreateLedger(ctx context.Context, ledger models.Ledger) error
	GetLedger(ctx context.Context, number int64) (models.Ledger, error)

	SaveTransaction(ctx context.Context, txn models.Transaction) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)

	// GetVoidingTransaction returns the transaction whose Voids field
	// references targetID, or nil if the target has not been voided.
	GetVoidingTransaction(ctx context.Context, targetID string) (*models.Transaction, error)

	GetEntriesByLedger(ctx context.Context, number int64) ([]models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
}
