/*
errors.go - Centralized error types for the accounting engine

PURPOSE:
  All failure kinds in one place for consistency and discoverability.
  Callers (the API layer) translate these into transport responses; the
  engine itself never does that translation.

ERROR CATEGORIES:
  1. Lookup failures  - ErrNotFound
  2. Conflict guards  - ErrAlreadyClockedIn, ErrAlreadyClockedOut,
                        ErrAlreadyApproved, ErrAlreadyReviewed
  3. State violations - ErrInvalidState
  4. Range violations - ErrInvalidTimeRange

USAGE:
  if errors.Is(err, engine.ErrAlreadyClockedIn) { ... }

  var rangeErr *engine.InvalidTimeRangeError
  if errors.As(err, &rangeErr) { ... }

SEE ALSO:
  - entry.go, exception.go: where the guards fire
  - classify.go: raises only ErrInvalidTimeRange
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClockedIn is returned when an open entry already exists
	// for the worker on the requested day.
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrAlreadyClockedOut is returned when clocking out a closed entry.
	ErrAlreadyClockedOut = errors.New("already clocked out")

	// ErrAlreadyApproved is returned when approving an approved entry, or
	// requesting an update on one.
	ErrAlreadyApproved = errors.New("already approved")

	// ErrAlreadyReviewed is returned when reviewing an exception request
	// that has already been approved or rejected. Review is terminal.
	ErrAlreadyReviewed = errors.New("already reviewed")

	// ErrInvalidState is returned when an operation is not valid for the
	// entity's current lifecycle state (e.g., editing breaks on an open entry).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidTimeRange is returned for non-positive spans (clock-out at
	// or before clock-in, break end at or before break start) and for
	// sessions that violate the same-day precondition.
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "time entry", "deadline", "exception request"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyClockedInError reports the open entry blocking a clock-in.
type AlreadyClockedInError struct {
	UserID     UserID
	Date       time.Time
	ExistingID EntryID
}

func (e *AlreadyClockedInError) Error() string {
	return fmt.Sprintf("user %s already clocked in on %s (entry: %s)",
		e.UserID, e.Date.Format("2006-01-02"), e.ExistingID)
}

func (e *AlreadyClockedInError) Unwrap() error { return ErrAlreadyClockedIn }

// InvalidTimeRangeError describes which interval was malformed.
type InvalidTimeRangeError struct {
	Field string // "work", "break", "extension"
	Start time.Time
	End   time.Time
}

func (e *InvalidTimeRangeError) Error() string {
	return fmt.Sprintf("invalid %s interval: end %s not after start %s",
		e.Field, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

func (e *InvalidTimeRangeError) Unwrap() error { return ErrInvalidTimeRange }

// CrossMidnightError is raised when a session spans calendar days. The
// classifier assumes same-day sessions; multi-day splits are not defined.
type CrossMidnightError struct {
	ClockIn  time.Time
	ClockOut time.Time
}

func (e *CrossMidnightError) Error() string {
	return fmt.Sprintf("session spans calendar days: in %s, out %s",
		e.ClockIn.Format(time.RFC3339), e.ClockOut.Format(time.RFC3339))
}

func (e *CrossMidnightError) Unwrap() error { return ErrInvalidTimeRange }

// InvalidStateError explains which operation was rejected and why.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict returns true for idempotency/uniqueness guard failures.
// These map to 409 at the transport layer.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrAlreadyClockedOut) ||
		errors.Is(err, ErrAlreadyApproved) ||
		errors.Is(err, ErrAlreadyReviewed)
}

// IsClientError returns true if the error is due to invalid caller input
// or an operation invalid for the current state.
func IsClientError(err error) bool {
	return IsConflict(err) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidTimeRange)
}
