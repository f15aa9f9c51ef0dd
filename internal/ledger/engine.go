package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models/events"
)

// Topics for published events.
const (
	TopicTransactionRecorded = "transaction_recorded"
	TopicTransactionVoided   = "transaction_voided"
)

const (
	defaultVoidAttempts = 3
	defaultRetryDelay   = 50 * time.Millisecond
)

// Options configures an Engine. The zero value gives a silent engine with
// a "manual" default type, optional evidence, and three void attempts.
type Options struct {
	// Publisher receives TransactionRecorded and TransactionVoided events
	// after commit. Nil disables publishing.
	Publisher interfaces.EventPublisher

	// DefaultType is used when a transaction is created without an
	// explicit classification.
	DefaultType models.TransactionType

	// RequireEvidence makes transaction creation fail unless at least one
	// evidence reference is supplied.
	RequireEvidence bool

	// VoidAttempts bounds how many times a void is retried on transient
	// storage conflicts before giving up with a TransientError.
	VoidAttempts int

	// RetryDelay is the base backoff between void attempts; it grows
	// linearly with the attempt number.
	RetryDelay time.Duration

	// Logger scopes the engine's log output. Nil falls back to the
	// global logger.
	Logger *zerolog.Logger
}

// Engine validates and atomically persists transactions, computes derived
// ledger balances, and synthesizes reversing transactions. It holds no
// mutable state of its own; all coordination happens through the store.
type Engine struct {
	store           interfaces.LedgerStore
	publisher       interfaces.EventPublisher
	defaultType     models.TransactionType
	requireEvidence bool
	voidAttempts    int
	retryDelay      time.Duration
	log             zerolog.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(store interfaces.LedgerStore, opts Options) *Engine {
	if opts.DefaultType == "" {
		opts.DefaultType = "manual"
	}
	if opts.VoidAttempts <= 0 {
		opts.VoidAttempts = defaultVoidAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Engine{
		store:           store,
		publisher:       opts.Publisher,
		defaultType:     opts.DefaultType,
		requireEvidence: opts.RequireEvidence,
		voidAttempts:    opts.VoidAttempts,
		retryDelay:      opts.RetryDelay,
		log:             logger,
	}
}

// EntrySpec is one (ledger, amount) pair to materialize as a ledger entry.
type EntrySpec struct {
	LedgerNumber int64
	Amount       decimal.Decimal
}

// CreateParams are the inputs to CreateTransaction. PostedTimestamp
// defaults to the current time and Type to the engine's default when left
// zero.
type CreateParams struct {
	User            string
	Entries         []EntrySpec
	Evidence        []models.Referenceable
	PostedTimestamp time.Time
	Notes           string
	Type            models.TransactionType
}

// VoidParams are optional overrides for VoidTransaction. Zero fields fall
// back to the target transaction's values (and, for Notes, to a generated
// "Voiding transaction {id}" message).
type VoidParams struct {
	Type            models.TransactionType
	Notes           string
	PostedTimestamp time.Time
}

// CreateTransaction validates the entry set and persists one new
// transaction with all its entries and evidence links as a single atomic
// unit. It returns EmptyTransactionError for an empty entry list and
// ImbalancedTransactionError when the amounts do not sum to zero. No
// existing record is ever mutated.
func (e *Engine) CreateTransaction(ctx context.Context, p CreateParams) (*models.Transaction, error) {
	txn, err := e.create(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	e.publishRecorded(ctx, txn)
	return txn, nil
}

// create is the single write path shared by creation and voiding.
func (e *Engine) create(ctx context.Context, p CreateParams, voids *string) (*models.Transaction, error) {
	if len(p.Entries) == 0 {
		return nil, &EmptyTransactionError{}
	}
	residual := decimal.Zero
	for _, spec := range p.Entries {
		residual = residual.Add(spec.Amount)
	}
	if !residual.IsZero() {
		return nil, &ImbalancedTransactionError{Residual: residual}
	}
	if e.requireEvidence && len(p.Evidence) == 0 {
		return nil, &EvidenceRequiredError{}
	}

	now := time.Now().UTC()
	posted := p.PostedTimestamp
	if posted.IsZero() {
		posted = now
	}
	ttype := p.Type
	if ttype == "" {
		ttype = e.defaultType
	}

	txn := models.Transaction{
		ID:              uuid.New().String(),
		PostedTimestamp: posted,
		Notes:           p.Notes,
		Type:            ttype,
		CreatedBy:       p.User,
		Voids:           voids,
		CreatedAt:       now,
	}
	txn.Entries = make([]models.LedgerEntry, 0, len(p.Entries))
	for _, spec := range p.Entries {
		txn.Entries = append(txn.Entries, models.LedgerEntry{
			ID:            uuid.New().String(),
			TransactionID: txn.ID,
			LedgerNumber:  spec.LedgerNumber,
			Amount:        spec.Amount,
			CreatedAt:     now,
		})
	}
	// Duplicate references to one object collapse to a single link; the
	// postgres schema keys evidence on (transaction, type, id).
	seen := make(map[models.EvidenceLink]struct{}, len(p.Evidence))
	for _, ev := range p.Evidence {
		link := models.EvidenceLink{
			TransactionID: txn.ID,
			EntityType:    ev.TypeTag(),
			EntityID:      ev.RefID(),
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		txn.Evidence = append(txn.Evidence, link)
	}

	if err := e.store.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	e.log.Debug().
		Str("transaction_id", txn.ID).
		Int("entries", len(txn.Entries)).
		Msg("transaction recorded")
	return &txn, nil
}

// VoidTransaction reverses the target transaction by creating a new
// transaction whose entries are the exact negation of the target's, with
// the target's evidence copied verbatim and a back-reference recorded in
// Voids. A target can be voided at most once: if a voiding transaction
// already exists, or a concurrent void wins the race at the store,
// UnvoidableTransactionError is returned and nothing is written.
func (e *Engine) VoidTransaction(ctx context.Context, targetID, user string, p VoidParams) (*models.Transaction, error) {
	target, err := e.store.GetTransaction(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load void target: %w", err)
	}

	// Fast-path check; the store's uniqueness enforcement closes the race
	// this check alone would leave open.
	existing, err := e.store.GetVoidingTransaction(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("check void state: %w", err)
	}
	if existing != nil {
		return nil, &UnvoidableTransactionError{TransactionID: targetID}
	}

	entries := make([]EntrySpec, 0, len(target.Entries))
	for _, entry := range target.Entries {
		entries = append(entries, EntrySpec{
			LedgerNumber: entry.LedgerNumber,
			Amount:       entry.Amount.Neg(),
		})
	}
	evidence := make([]models.Referenceable, 0, len(target.Evidence))
	for _, link := range target.Evidence {
		evidence = append(evidence, link)
	}

	params := CreateParams{
		User:            user,
		Entries:         entries,
		Evidence:        evidence,
		PostedTimestamp: p.PostedTimestamp,
		Notes:           p.Notes,
		Type:            p.Type,
	}
	if params.PostedTimestamp.IsZero() {
		params.PostedTimestamp = target.PostedTimestamp
	}
	if params.Notes == "" {
		params.Notes = fmt.Sprintf("Voiding transaction %s", target.ID)
	}
	if params.Type == "" {
		params.Type = target.Type
	}

	var txn *models.Transaction
	for attempt := 1; ; attempt++ {
		txn, err = e.create(ctx, params, &target.ID)
		if err == nil {
			break
		}
		if errors.Is(err, interfaces.ErrDuplicateVoid) {
			return nil, &UnvoidableTransactionError{TransactionID: targetID}
		}
		if !errors.Is(err, interfaces.ErrConflict) {
			return nil, err
		}
		if attempt >= e.voidAttempts {
			return nil, &TransientError{Attempts: attempt, Err: err}
		}
		e.log.Warn().
			Str("transaction_id", targetID).
			Int("attempt", attempt).
			Msg("void hit storage conflict, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.retryDelay * time.Duration(attempt)):
		}
	}
	e.publishVoided(ctx, txn, targetID)
	return txn, nil
}

// GetBalance returns the signed sum of all entries posted against the
// ledger, computed at call time. There is no cached running balance.
func (e *Engine) GetBalance(ctx context.Context, ledgerNumber int64) (decimal.Decimal, error) {
	entries, err := e.store.GetEntriesByLedger(ctx, ledgerNumber)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}

// GetTransaction loads a transaction with its entries and evidence.
func (e *Engine) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return e.store.GetTransaction(ctx, id)
}

// GetLedgerEntries returns every entry across all ledgers.
func (e *Engine) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	return e.store.GetLedgerEntries(ctx)
}

func entryAmounts(entries []models.LedgerEntry) []events.EntryAmount {
	amounts := make([]events.EntryAmount, 0, len(entries))
	for _, entry := range entries {
		amounts = append(amounts, events.EntryAmount{
			LedgerNumber: entry.LedgerNumber,
			Amount:       entry.Amount,
		})
	}
	return amounts
}

func (e *Engine) publishRecorded(ctx context.Context, txn *models.Transaction) {
	if e.publisher == nil {
		return
	}
	event := events.TransactionRecorded{
		TransactionID:   txn.ID,
		Type:            string(txn.Type),
		CreatedBy:       txn.CreatedBy,
		PostedTimestamp: txn.PostedTimestamp,
		Entries:         entryAmounts(txn.Entries),
		OccurredAt:      time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, TopicTransactionRecorded, event); err != nil {
		e.log.Error().Err(err).Str("transaction_id", txn.ID).Msg("failed to publish transaction_recorded")
	}
}

func (e *Engine) publishVoided(ctx context.Context, txn *models.Transaction, targetID string) {
	if e.publisher == nil {
		return
	}
	event := events.TransactionVoided{
		VoidingTransactionID: txn.ID,
		VoidedTransactionID:  targetID,
		CreatedBy:            txn.CreatedBy,
		PostedTimestamp:      txn.PostedTimestamp,
		Entries:              entryAmounts(txn.Entries),
		OccurredAt:           time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, TopicTransactionVoided, event); err != nil {
		e.log.Error().Err(err).Str("transaction_id", txn.ID).Msg("failed to publish transaction_voided")
	}
}
