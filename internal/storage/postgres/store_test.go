package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func sampleTransaction() models.Transaction {
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return models.Transaction{
		ID:              "txn-1",
		PostedTimestamp: now,
		Notes:           "invoice 42",
		Type:            "manual",
		CreatedBy:       "bookkeeper",
		CreatedAt:       now,
		Entries: []models.LedgerEntry{
			{ID: "entry-1", TransactionID: "txn-1", LedgerNumber: 1100, Amount: decimal.RequireFromString("100"), CreatedAt: now},
			{ID: "entry-2", TransactionID: "txn-1", LedgerNumber: 4000, Amount: decimal.RequireFromString("-100"), CreatedAt: now},
		},
		Evidence: []models.EvidenceLink{
			{TransactionID: "txn-1", EntityType: "payment", EntityID: "pay-1"},
		},
	}
}

func TestSaveTransaction_CommitsAllRows(t *testing.T) {
	store, mock := newMockStore(t)
	txn := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.PostedTimestamp, txn.Notes, txn.Type, txn.CreatedBy, nil, txn.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for _, entry := range txn.Entries {
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(entry.ID, entry.TransactionID, entry.LedgerNumber, entry.Amount, entry.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO evidence_links").
		WithArgs(txn.ID, "payment", "pay-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveTransaction(context.Background(), txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTransaction_DuplicateVoidRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	target := "txn-0"
	txn := sampleTransaction()
	txn.Voids = &target

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnError(&pq.Error{
			Code:       "23505",
			Constraint: "transactions_voids_transaction_id_key",
		})
	mock.ExpectRollback()

	err := store.SaveTransaction(context.Background(), txn)
	require.ErrorIs(t, err, interfaces.ErrDuplicateVoid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTransaction_EntryFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	txn := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "ledger_entries_ledger_number_fkey"})
	mock.ExpectRollback()

	err := store.SaveTransaction(context.Background(), txn)
	require.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVoidingTransaction_NoneFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE voids_transaction_id").
		WithArgs("txn-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "posted_timestamp", "notes", "type", "created_by", "voids_transaction_id", "created_at",
		}))

	voiding, err := store.GetVoidingTransaction(context.Background(), "txn-1")
	require.NoError(t, err)
	assert.Nil(t, voiding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntriesByLedger(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM ledger_entries WHERE ledger_number").
		WithArgs(int64(1100)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "transaction_id", "ledger_number", "amount", "created_at",
		}).
			AddRow("entry-1", "txn-1", int64(1100), "100", now).
			AddRow("entry-2", "txn-2", int64(1100), "-40", now))

	entries, err := store.GetEntriesByLedger(context.Background(), 1100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("100")))
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("-40")))
}

func TestGetLedger_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT number, name FROM ledgers").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"number", "name"}))

	_, err := store.GetLedger(context.Background(), 999)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unique violation on voids index",
			err:  &pq.Error{Code: "23505", Constraint: "transactions_voids_transaction_id_key"},
			want: interfaces.ErrDuplicateVoid,
		},
		{
			name: "unique violation on ledger number",
			err:  &pq.Error{Code: "23505", Constraint: "ledgers_pkey"},
			want: interfaces.ErrLedgerExists,
		},
		{
			name: "serialization failure",
			err:  &pq.Error{Code: "40001"},
			want: interfaces.ErrConflict,
		},
		{
			name: "deadlock",
			err:  &pq.Error{Code: "40P01"},
			want: interfaces.ErrConflict,
		},
		{
			name: "lock timeout",
			err:  &pq.Error{Code: "55P03"},
			want: interfaces.ErrConflict,
		},
		{
			name: "foreign key violation",
			err:  &pq.Error{Code: "23503"},
			want: interfaces.ErrNotFound,
		},
		{
			name: "unique violation on unrelated constraint stays raw",
			err:  &pq.Error{Code: "23505", Constraint: "transactions_pkey"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(fmt.Errorf("query failed: %w", tt.err))
			if tt.want == nil {
				assert.NotErrorIs(t, got, interfaces.ErrDuplicateVoid)
				assert.NotErrorIs(t, got, interfaces.ErrLedgerExists)
				assert.ErrorIs(t, got, tt.err)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
