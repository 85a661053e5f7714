/*
Package engine implements the time & compliance accounting core.

PURPOSE:
  This package contains the domain types and algorithms for converting raw
  clock-in/clock-out events into classified, auditable work-hour records,
  and for governing the lifecycle of those records and related compliance
  artifacts (deadlines, exception requests) through approval workflows.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: one worker's clock record for a single calendar day
  - HourBreakdown: classified hours produced by the duration classifier
  - ComplianceDeadline: a provider-scoped obligation with a due instant
  - DeadlineExceptionRequest: a reviewable request to extend a deadline
  - Typed identifiers: EntryID, UserID, ProviderID, ...

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all hour fields, rounded to 2 places
  2. Determinism: wall-clock reads go through an injected Clock (clock.go)
  3. Explicit actors: every mutating operation takes the acting id as a
     parameter; there is no ambient "current user"
  4. Auditability: approval-state changes append to an audit trail (audit.go)

SEE ALSO:
  - classify.go: duration classification algorithm
  - entry.go: time entry lifecycle operations
  - deadline.go: deadline classification and statistics
  - exception.go: exception request review workflow
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type UserID string
type ProviderID string
type DeadlineID string
type ExceptionID string

// =============================================================================
// HOUR BREAKDOWN - Output of the duration classifier
// =============================================================================

// HourBreakdown is the classified result for a single closed work interval.
// All values are non-negative and rounded to 2 decimal places.
//
// Evening and weekend hours are NOT mutually exclusive: a Saturday evening
// shift reports its hours in both buckets. Pay differentials downstream are
// applied per bucket, so double classification is the intended convention.
type HourBreakdown struct {
	Total   decimal.Decimal
	Regular decimal.Decimal
	Evening decimal.Decimal
	Weekend decimal.Decimal
}

// =============================================================================
// TIME ENTRY - One worker's record for one calendar day
// =============================================================================

type TimeEntry struct {
	ID        EntryID
	UserID    UserID
	EntryDate time.Time // day-truncated; the entry's calendar day

	ClockInTime    time.Time
	ClockOutTime   *time.Time // nil while the session is open
	BreakStartTime *time.Time // both break fields set, or neither
	BreakEndTime   *time.Time

	// Derived fields, written only by the classifier on close or break edit.
	// Stale (zero) while ClockOutTime is nil.
	TotalHours   decimal.Decimal
	RegularHours decimal.Decimal
	EveningHours decimal.Decimal
	WeekendHours decimal.Decimal

	IsApproved bool
	ApprovedBy *UserID    // last actor to touch approval state
	ApprovedAt *time.Time // when they touched it
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the worker is still clocked in on this entry.
func (e *TimeEntry) IsOpen() bool { return e.ClockOutTime == nil }

// HasBreak reports whether a break interval is recorded.
func (e *TimeEntry) HasBreak() bool { return e.BreakStartTime != nil && e.BreakEndTime != nil }

// ApplyBreakdown writes classifier output into the derived fields.
func (e *TimeEntry) ApplyBreakdown(b HourBreakdown) {
	e.TotalHours = b.Total
	e.RegularHours = b.Regular
	e.EveningHours = b.Evening
	e.WeekendHours = b.Weekend
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate persisted state behind the engine's back.
func (e *TimeEntry) Clone() *TimeEntry {
	c := *e
	c.ClockOutTime = cloneTime(e.ClockOutTime)
	c.BreakStartTime = cloneTime(e.BreakStartTime)
	c.BreakEndTime = cloneTime(e.BreakEndTime)
	c.ApprovedAt = cloneTime(e.ApprovedAt)
	if e.ApprovedBy != nil {
		v := *e.ApprovedBy
		c.ApprovedBy = &v
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// DayOf truncates an instant to its calendar day, preserving location.
// Entry dates are timezone-naive days keyed this way.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// =============================================================================
// COMPLIANCE DEADLINE - Provider-scoped obligation with a due instant
// =============================================================================

// ComplianceDeadline tracks a single obligation. The engine classifies
// deadlines against a reference clock; it never flips IsMet itself. That
// write belongs to the external collaborator that completes the triggering
// artifact (see DeadlineStore.MarkMet).
type ComplianceDeadline struct {
	ID           DeadlineID
	ProviderID   ProviderID
	DeadlineType string
	DeadlineDate time.Time
	IsMet        bool
	MetAt        *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOverdue reports whether the deadline is unmet and past due at now.
func (d *ComplianceDeadline) IsOverdue(now time.Time) bool {
	return !d.IsMet && d.DeadlineDate.Before(now)
}

// IsPending reports whether the deadline is unmet but not yet due at now.
func (d *ComplianceDeadline) IsPending(now time.Time) bool {
	return !d.IsMet && !d.DeadlineDate.Before(now)
}

func (d *ComplianceDeadline) Clone() *ComplianceDeadline {
	c := *d
	c.MetAt = cloneTime(d.MetAt)
	return &c
}

// =============================================================================
// DEADLINE EXCEPTION REQUEST - Extension request under review
// =============================================================================

type ExceptionStatus string

const (
	ExceptionPending  ExceptionStatus = "pending"
	ExceptionApproved ExceptionStatus = "approved"
	ExceptionRejected ExceptionStatus = "rejected"
)

// DeadlineExceptionRequest asks for a deadline extension. Status moves from
// pending to exactly one of approved/rejected; both are terminal.
type DeadlineExceptionRequest struct {
	ID                      ExceptionID
	ProviderID              ProviderID
	RequestedExtensionUntil time.Time
	Reason                  string

	Status      ExceptionStatus
	ReviewedBy  *UserID
	ReviewedAt  *time.Time
	ReviewNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *DeadlineExceptionRequest) IsReviewed() bool { return r.Status != ExceptionPending }

func (r *DeadlineExceptionRequest) Clone() *DeadlineExceptionRequest {
	c := *r
	c.ReviewedAt = cloneTime(r.ReviewedAt)
	if r.ReviewedBy != nil {
		v := *r.ReviewedBy
		c.ReviewedBy = &v
	}
	return &c
}
