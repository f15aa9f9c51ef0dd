package interfaces

import "errors"

// Sentinel errors every LedgerStore implementation maps its backend's
// failures onto, so the engine can branch without knowing the backend.
var (
	// ErrNotFound indicates the referenced ledger or transaction does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrLedgerExists indicates a ledger with the same number already
	// exists.
	ErrLedgerExists = errors.New("ledger number already in use")

	// ErrDuplicateVoid indicates another transaction already voids the
	// same target. Raised by the store's uniqueness enforcement, so it
	// holds even when two writers race past an application-level check.
	ErrDuplicateVoid = errors.New("transaction already voided")

	// ErrConflict indicates a transient persistence conflict (lock
	// contention, serialization failure). Safe to retry.
	ErrConflict = errors.New("transient storage conflict")
)
