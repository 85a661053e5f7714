/*
audit.go - Append-only approval audit trail

PURPOSE:
  Records who touched approval state, when, and how. The entry itself only
  carries the LAST approval actor/timestamp (ApprovedBy/ApprovedAt, which
  a request-update deliberately overwrites); the trail keeps the full
  history as (actor, action, timestamp) records so nothing is lost to
  field reuse.

APPEND-ONLY:
  Audit records are never updated or deleted. The interface has no write
  operation other than Append.

SEE ALSO:
  - entry.go, exception.go: emit records on every approval-state mutation
*/
package engine

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditClockIn           AuditAction = "clock_in"
	AuditClockOut          AuditAction = "clock_out"
	AuditEntryCreated      AuditAction = "entry_created"
	AuditEntryUpdated      AuditAction = "entry_updated"
	AuditBreakUpdated      AuditAction = "break_updated"
	AuditEntryApproved     AuditAction = "entry_approved"
	AuditUpdateRequested   AuditAction = "update_requested"
	AuditExceptionCreated  AuditAction = "exception_created"
	AuditExceptionApproved AuditAction = "exception_approved"
	AuditExceptionRejected AuditAction = "exception_rejected"
)

// AuditRecord is one immutable line in the trail.
type AuditRecord struct {
	ID       string
	TargetID string // id of the entry or exception request acted upon
	ActorID  string
	Action   AuditAction
	Note     string
	At       time.Time
}

// AuditLog stores audit records. Append-only.
type AuditLog interface {
	Append(ctx context.Context, rec AuditRecord) error

	// ByTarget returns the trail for one entity, oldest first.
	ByTarget(ctx context.Context, targetID string) ([]AuditRecord, error)
}
