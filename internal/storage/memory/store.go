package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Store is an in-memory implementation of interfaces.LedgerStore, used in
// tests and local development. All writes for a transaction happen under
// one lock, so readers observe either none or all of a transaction's rows,
// matching the atomicity the engine expects from a real store.
type Store struct {
	mu           sync.Mutex
	ledgers      map[int64]models.Ledger
	transactions map[string]models.Transaction
	entries      []models.LedgerEntry
	voidedBy     map[string]string // target transaction id -> voiding transaction id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		ledgers:      make(map[int64]models.Ledger),
		transactions: make(map[string]models.Transaction),
		voidedBy:     make(map[string]string),
	}
}

func (s *Store) CreateLedger(ctx context.Context, ledger models.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ledger.Number <= 0 {
		return fmt.Errorf("ledger number must be positive, got %d", ledger.Number)
	}
	if _, exists := s.ledgers[ledger.Number]; exists {
		return fmt.Errorf("ledger %d: %w", ledger.Number, interfaces.ErrLedgerExists)
	}
	s.ledgers[ledger.Number] = ledger
	return nil
}

func (s *Store) GetLedger(ctx context.Context, number int64) (models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, ok := s.ledgers[number]
	if !ok {
		return models.Ledger{}, fmt.Errorf("ledger %d: %w", number, interfaces.ErrNotFound)
	}
	return ledger, nil
}

// SaveTransaction persists the transaction with all its entries and
// evidence links under a single lock acquisition. Nothing is written when
// any check fails.
func (s *Store) SaveTransaction(ctx context.Context, txn models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range txn.Entries {
		if _, ok := s.ledgers[entry.LedgerNumber]; !ok {
			return fmt.Errorf("ledger %d: %w", entry.LedgerNumber, interfaces.ErrNotFound)
		}
	}
	if txn.Voids != nil {
		if _, ok := s.transactions[*txn.Voids]; !ok {
			return fmt.Errorf("void target %s: %w", *txn.Voids, interfaces.ErrNotFound)
		}
		if _, voided := s.voidedBy[*txn.Voids]; voided {
			return fmt.Errorf("transaction %s: %w", *txn.Voids, interfaces.ErrDuplicateVoid)
		}
	}

	s.transactions[txn.ID] = copyTransaction(txn)
	s.entries = append(s.entries, txn.Entries...)
	if txn.Voids != nil {
		s.voidedBy[*txn.Voids] = txn.ID
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, interfaces.ErrNotFound)
	}
	return copyTransaction(txn), nil
}

func (s *Store) GetVoidingTransaction(ctx context.Context, targetID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voidingID, ok := s.voidedBy[targetID]
	if !ok {
		return nil, nil
	}
	txn := copyTransaction(s.transactions[voidingID])
	return &txn, nil
}

func (s *Store) GetEntriesByLedger(ctx context.Context, number int64) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.LedgerEntry
	for _, entry := range s.entries {
		if entry.LedgerNumber == number {
			result = append(result, entry)
		}
	}
	return result, nil
}

// GetLedgerEntries returns a copy of every entry so callers cannot mutate
// internal state.
func (s *Store) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]models.LedgerEntry, len(s.entries))
	copy(copied, s.entries)
	return copied, nil
}

func copyTransaction(txn models.Transaction) models.Transaction {
	out := txn
	out.Entries = make([]models.LedgerEntry, len(txn.Entries))
	copy(out.Entries, txn.Entries)
	out.Evidence = make([]models.EvidenceLink, len(txn.Evidence))
	copy(out.Evidence, txn.Evidence)
	if txn.Voids != nil {
		voids := *txn.Voids
		out.Voids = &voids
	}
	return out
}

// Compile-time check: Store implements the LedgerStore interface.
var _ interfaces.LedgerStore = (*Store)(nil)
