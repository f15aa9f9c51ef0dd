package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Store is the PostgreSQL implementation of interfaces.LedgerStore.
//
// Atomicity comes from wrapping each SaveTransaction in one database
// transaction; the at-most-one-void rule comes from the unique index on
// transactions.voids_transaction_id, which turns a losing concurrent void
// into a unique-violation error rather than a second success.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore creates a PostgreSQL ledger store. Every query runs under the
// given timeout.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) CreateLedger(ctx context.Context, ledger models.Ledger) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `INSERT INTO ledgers (number, name) VALUES ($1, $2)`
	if _, err := s.db.ExecContext(ctx, query, ledger.Number, ledger.Name); err != nil {
		return translateError(fmt.Errorf("insert ledger %d: %w", ledger.Number, err))
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, number int64) (models.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `SELECT number, name FROM ledgers WHERE number = $1`
	var ledger models.Ledger
	if err := s.db.GetContext(ctx, &ledger, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Ledger{}, fmt.Errorf("ledger %d: %w", number, interfaces.ErrNotFound)
		}
		return models.Ledger{}, translateError(fmt.Errorf("get ledger %d: %w", number, err))
	}
	return ledger, nil
}

// SaveTransaction persists the transaction and all its entries and
// evidence links inside one database transaction.
func (s *Store) SaveTransaction(ctx context.Context, txn models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translateError(fmt.Errorf("begin transaction: %w", err))
	}
	defer dbTx.Rollback()

	const insertTxn = `
		INSERT INTO transactions (id, posted_timestamp, notes, type, created_by, voids_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := dbTx.ExecContext(ctx, insertTxn,
		txn.ID, txn.PostedTimestamp, txn.Notes, txn.Type,
		txn.CreatedBy, txn.Voids, txn.CreatedAt); err != nil {
		return translateError(fmt.Errorf("insert transaction %s: %w", txn.ID, err))
	}

	const insertEntry = `
		INSERT INTO ledger_entries (id, transaction_id, ledger_number, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	for _, entry := range txn.Entries {
		if _, err := dbTx.ExecContext(ctx, insertEntry,
			entry.ID, entry.TransactionID, entry.LedgerNumber,
			entry.Amount, entry.CreatedAt); err != nil {
			return translateError(fmt.Errorf("insert entry for ledger %d: %w", entry.LedgerNumber, err))
		}
	}

	const insertEvidence = `
		INSERT INTO evidence_links (transaction_id, entity_type, entity_id)
		VALUES ($1, $2, $3)`
	for _, link := range txn.Evidence {
		if _, err := dbTx.ExecContext(ctx, insertEvidence,
			link.TransactionID, link.EntityType, link.EntityID); err != nil {
			return translateError(fmt.Errorf("insert evidence link %s/%s: %w", link.EntityType, link.EntityID, err))
		}
	}

	if err := dbTx.Commit(); err != nil {
		return translateError(fmt.Errorf("commit transaction %s: %w", txn.ID, err))
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT id, posted_timestamp, notes, type, created_by, voids_transaction_id, created_at
		FROM transactions WHERE id = $1`
	var txn models.Transaction
	if err := s.db.GetContext(ctx, &txn, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, interfaces.ErrNotFound)
		}
		return models.Transaction{}, translateError(fmt.Errorf("get transaction %s: %w", id, err))
	}
	if err := s.loadChildren(ctx, &txn); err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

func (s *Store) GetVoidingTransaction(ctx context.Context, targetID string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT id, posted_timestamp, notes, type, created_by, voids_transaction_id, created_at
		FROM transactions WHERE voids_transaction_id = $1`
	var txn models.Transaction
	if err := s.db.GetContext(ctx, &txn, query, targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("get voiding transaction for %s: %w", targetID, err))
	}
	if err := s.loadChildren(ctx, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Store) loadChildren(ctx context.Context, txn *models.Transaction) error {
	const entryQuery = `
		SELECT id, transaction_id, ledger_number, amount, created_at
		FROM ledger_entries WHERE transaction_id = $1 ORDER BY id`
	if err := s.db.SelectContext(ctx, &txn.Entries, entryQuery, txn.ID); err != nil {
		return translateError(fmt.Errorf("load entries for %s: %w", txn.ID, err))
	}

	const evidenceQuery = `
		SELECT transaction_id, entity_type, entity_id
		FROM evidence_links WHERE transaction_id = $1 ORDER BY entity_type, entity_id`
	if err := s.db.SelectContext(ctx, &txn.Evidence, evidenceQuery, txn.ID); err != nil {
		return translateError(fmt.Errorf("load evidence for %s: %w", txn.ID, err))
	}
	return nil
}

func (s *Store) GetEntriesByLedger(ctx context.Context, number int64) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT id, transaction_id, ledger_number, amount, created_at
		FROM ledger_entries WHERE ledger_number = $1 ORDER BY created_at, id`
	var entries []models.LedgerEntry
	if err := s.db.SelectContext(ctx, &entries, query, number); err != nil {
		return nil, translateError(fmt.Errorf("entries for ledger %d: %w", number, err))
	}
	return entries, nil
}

func (s *Store) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT id, transaction_id, ledger_number, amount, created_at
		FROM ledger_entries ORDER BY created_at, id`
	var entries []models.LedgerEntry
	if err := s.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, translateError(fmt.Errorf("list entries: %w", err))
	}
	return entries, nil
}

// translateError maps PostgreSQL error codes onto the store sentinels the
// engine branches on. Unique violations are split by constraint: the voids
// index means a concurrent void won, the ledgers key means a duplicate
// ledger number. Serialization failures, deadlocks, and lock timeouts are
// transient.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		if strings.Contains(pqErr.Constraint, "voids") {
			return fmt.Errorf("%v: %w", err, interfaces.ErrDuplicateVoid)
		}
		if strings.Contains(pqErr.Constraint, "ledgers") {
			return fmt.Errorf("%v: %w", err, interfaces.ErrLedgerExists)
		}
		return err
	case "23503": // foreign_key_violation
		return fmt.Errorf("%v: %w", err, interfaces.ErrNotFound)
	case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
		return fmt.Errorf("%v: %w", err, interfaces.ErrConflict)
	}
	return err
}

// Compile-time check: Store implements the LedgerStore interface.
var _ interfaces.LedgerStore = (*Store)(nil)
