/*
store.go - Persistence interfaces for the accounting engine

PURPOSE:
  Defines the contract between the engine's lifecycle services and the
  storage collaborator. The engine is free of persistence mechanics;
  different implementations can use SQLite, PostgreSQL, or in-memory
  storage.

ATOMICITY CONTRACT:
  Every mutating operation in the engine follows the same shape:
    1. re-read current entity state
    2. check preconditions, fail fast on violation
    3. save the new state
  Steps 1-3 run inside WithTx. The store MUST serialize concurrent
  attempts on the same entity (row locking, a transaction with retry, or
  a coarse mutex) so that two racing clock-ins or approvals cannot both
  pass the precondition check. Without that, the AlreadyClockedIn /
  AlreadyApproved / AlreadyReviewed guards can be raced past.

UNIQUENESS:
  At most one open entry (ClockOutTime == nil) per (UserID, EntryDate).
  Implementations enforce this structurally: the SQLite store with a
  partial unique index, the memory store with an open-entry key map.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - engine/store/memory.go: in-memory for testing/dev

SEE ALSO:
  - entry.go, exception.go: the services driving these interfaces
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// TIME ENTRY STORE
// =============================================================================

// EntryFilter narrows ListEntries. Zero values mean "no filter".
type EntryFilter struct {
	UserID UserID
	Day    time.Time // day-truncated; matches EntryDate
}

// EntryStore persists time entries.
// Get* methods return (nil, nil) when the entity does not exist; the
// services translate absence into NotFoundError.
type EntryStore interface {
	GetEntry(ctx context.Context, id EntryID) (*TimeEntry, error)

	// FindOpenEntry returns the open entry for (userID, day), or nil.
	FindOpenEntry(ctx context.Context, userID UserID, day time.Time) (*TimeEntry, error)

	// ListEntries returns entries matching the filter, newest first.
	ListEntries(ctx context.Context, f EntryFilter) ([]*TimeEntry, error)

	// SaveEntry inserts or replaces the entry. Must fail if saving would
	// create a second open entry for the same (UserID, EntryDate).
	SaveEntry(ctx context.Context, e *TimeEntry) error

	DeleteEntry(ctx context.Context, id EntryID) error
}

// EntryTxStore wraps EntryStore with transaction support.
type EntryTxStore interface {
	EntryStore

	// WithTx executes fn atomically with respect to other WithTx calls.
	// If fn returns an error the transaction is rolled back.
	WithTx(ctx context.Context, fn func(EntryStore) error) error
}

// =============================================================================
// DEADLINE STORE
// =============================================================================

// DeadlineFilter narrows ListDeadlines. Zero values mean "no filter".
type DeadlineFilter struct {
	ProviderID ProviderID
}

// DeadlineStore persists compliance deadlines. The engine only reads and
// classifies; MarkMet is the write path reserved for the external
// collaborator that completes the triggering artifact.
type DeadlineStore interface {
	GetDeadline(ctx context.Context, id DeadlineID) (*ComplianceDeadline, error)
	ListDeadlines(ctx context.Context, f DeadlineFilter) ([]*ComplianceDeadline, error)
	SaveDeadline(ctx context.Context, d *ComplianceDeadline) error

	// MarkMet flips IsMet exactly once, recording when. A second call is a
	// no-op returning the stored state.
	MarkMet(ctx context.Context, id DeadlineID, at time.Time) (*ComplianceDeadline, error)
}

// =============================================================================
// EXCEPTION STORE
// =============================================================================

// ExceptionFilter narrows ListExceptions. Zero values mean "no filter".
type ExceptionFilter struct {
	ProviderID ProviderID
	Status     ExceptionStatus
}

type ExceptionStore interface {
	GetException(ctx context.Context, id ExceptionID) (*DeadlineExceptionRequest, error)
	ListExceptions(ctx context.Context, f ExceptionFilter) ([]*DeadlineExceptionRequest, error)
	SaveException(ctx context.Context, r *DeadlineExceptionRequest) error
	DeleteException(ctx context.Context, id ExceptionID) error
}

// ExceptionTxStore wraps ExceptionStore with transaction support, required
// for the terminal-review guard.
type ExceptionTxStore interface {
	ExceptionStore

	WithTx(ctx context.Context, fn func(ExceptionStore) error) error
}
