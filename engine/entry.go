/*
entry.go - Time entry lifecycle

PURPOSE:
  Owns the state machine for a single worker's daily time record:

    (no entry) --clock-in--> Open --clock-out--> Closed --approve--> Approved
                                                   |  ^
                                   request-update  |  |  (reviewer note,
                                                   v  |   approval cleared)
                                              UpdateRequested

  Closing and break edits invoke the duration classifier and persist the
  derived hour fields; approval operations mutate approval state under the
  store's atomicity contract and append to the audit trail.

GUARDS:
  clock-in        AlreadyClockedIn when an open entry exists for (user, day)
  clock-out       AlreadyClockedOut when the entry is already closed
  break edit      InvalidState on an open entry; AlreadyApproved after
                  approval (break corrections are locked by approval, plain
                  field updates are not - preserve this asymmetry)
  approve         AlreadyApproved on a second approval
  request-update  AlreadyApproved on an approved entry

APPROVAL FIELDS:
  A request-update overwrites ApprovedBy/ApprovedAt with the requester and
  their timestamp: the pair means "who last touched approval state", not
  "who approved". The audit trail (audit.go) carries the full history.

SEE ALSO:
  - classify.go: derived hour computation
  - store.go: the atomicity contract these operations rely on
*/
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// EntryService exposes the time entry lifecycle operations. Every mutation
// re-reads current state inside a store transaction, fails fast when a
// precondition no longer holds, and writes through synchronously.
type EntryService struct {
	Store EntryTxStore
	Audit AuditLog
	Clock Clock
}

func NewEntryService(store EntryTxStore, audit AuditLog, clock Clock) *EntryService {
	return &EntryService{Store: store, Audit: audit, Clock: clock}
}

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

// ClockIn opens a new entry for the worker on today's date.
// Fails with AlreadyClockedIn if an open entry already exists for the day.
func (s *EntryService) ClockIn(ctx context.Context, userID UserID) (*TimeEntry, error) {
	now := s.Clock.Now()
	day := DayOf(now)

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		existing, err := st.FindOpenEntry(ctx, userID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			return &AlreadyClockedInError{UserID: userID, Date: day, ExistingID: existing.ID}
		}

		entry = &TimeEntry{
			ID:          EntryID(uuid.NewString()),
			UserID:      userID,
			EntryDate:   day,
			ClockInTime: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(userID), AuditClockIn, "", now)
	return entry, nil
}

// ClockOut closes the entry and computes the derived hour fields.
// Fails with NotFound if missing, AlreadyClockedOut if already closed.
func (s *EntryService) ClockOut(ctx context.Context, id EntryID) (*TimeEntry, error) {
	now := s.Clock.Now()

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		var err error
		entry, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if !entry.IsOpen() {
			return fmt.Errorf("entry %s: %w", id, ErrAlreadyClockedOut)
		}

		breakdown, err := Classify(entry.ClockInTime, now, entry.BreakStartTime, entry.BreakEndTime)
		if err != nil {
			return err
		}

		entry.ClockOutTime = &now
		entry.ApplyBreakdown(breakdown)
		entry.UpdatedAt = now
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(entry.UserID), AuditClockOut, "", now)
	return entry, nil
}

// =============================================================================
// BREAK AND FIELD EDITS
// =============================================================================

// UpdateBreakTimes replaces the break interval on a closed entry and
// recomputes derived hours with the existing clock-in/out pair.
// Fails with InvalidState while the session is open and with
// AlreadyApproved once the entry is approved.
func (s *EntryService) UpdateBreakTimes(ctx context.Context, id EntryID, actorID UserID, breakStart, breakEnd *time.Time) (*TimeEntry, error) {
	now := s.Clock.Now()

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		var err error
		entry, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if entry.IsOpen() {
			return &InvalidStateError{Op: "update break times", Reason: "entry is still open"}
		}
		if entry.IsApproved {
			return fmt.Errorf("entry %s: break edit on approved entry: %w", id, ErrAlreadyApproved)
		}

		breakdown, err := Classify(entry.ClockInTime, *entry.ClockOutTime, breakStart, breakEnd)
		if err != nil {
			return err
		}

		entry.BreakStartTime = breakStart
		entry.BreakEndTime = breakEnd
		entry.ApplyBreakdown(breakdown)
		entry.UpdatedAt = now
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(actorID), AuditBreakUpdated, "", now)
	return entry, nil
}

// EntryPatch carries direct field updates. Nil means "leave unchanged";
// clearing a set field is not supported.
type EntryPatch struct {
	EntryDate      *time.Time
	ClockInTime    *time.Time
	ClockOutTime   *time.Time
	BreakStartTime *time.Time
	BreakEndTime   *time.Time
	Notes          *string
}

func (p EntryPatch) touchesInterval() bool {
	return p.ClockInTime != nil || p.ClockOutTime != nil ||
		p.BreakStartTime != nil || p.BreakEndTime != nil
}

// Update applies a patch. When interval fields change and the entry is
// closed, derived hours are recomputed using new values where given and
// stored values otherwise. Approval does not block plain field updates.
func (s *EntryService) Update(ctx context.Context, id EntryID, actorID UserID, patch EntryPatch) (*TimeEntry, error) {
	now := s.Clock.Now()

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		var err error
		entry, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}

		if patch.EntryDate != nil {
			entry.EntryDate = DayOf(*patch.EntryDate)
		}
		if patch.ClockInTime != nil {
			entry.ClockInTime = *patch.ClockInTime
		}
		if patch.ClockOutTime != nil {
			entry.ClockOutTime = cloneTime(patch.ClockOutTime)
		}
		if patch.BreakStartTime != nil {
			entry.BreakStartTime = cloneTime(patch.BreakStartTime)
		}
		if patch.BreakEndTime != nil {
			entry.BreakEndTime = cloneTime(patch.BreakEndTime)
		}
		if patch.Notes != nil {
			entry.Notes = *patch.Notes
		}

		if patch.touchesInterval() {
			if entry.IsOpen() {
				if err := ValidateBreak(entry.BreakStartTime, entry.BreakEndTime); err != nil {
					return err
				}
			} else {
				breakdown, err := Classify(entry.ClockInTime, *entry.ClockOutTime, entry.BreakStartTime, entry.BreakEndTime)
				if err != nil {
					return err
				}
				entry.ApplyBreakdown(breakdown)
			}
		}

		entry.UpdatedAt = now
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(actorID), AuditEntryUpdated, "", now)
	return entry, nil
}

// =============================================================================
// APPROVAL
// =============================================================================

// Approve marks the entry approved by approverID.
// Fails with AlreadyApproved on a second approval; the failed call leaves
// the entry unchanged.
func (s *EntryService) Approve(ctx context.Context, id EntryID, approverID UserID) (*TimeEntry, error) {
	now := s.Clock.Now()

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		var err error
		entry, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if entry.IsApproved {
			return fmt.Errorf("entry %s: %w", id, ErrAlreadyApproved)
		}

		entry.IsApproved = true
		entry.ApprovedBy = &approverID
		entry.ApprovedAt = &now
		entry.UpdatedAt = now
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(approverID), AuditEntryApproved, "", now)
	return entry, nil
}

// RequestUpdate appends a timestamped reviewer note asking the worker to
// correct the entry. Approval state stays false and ApprovedBy/ApprovedAt
// record the requester as the last approval-state actor.
// Fails with AlreadyApproved if the entry has already been approved.
func (s *EntryService) RequestUpdate(ctx context.Context, id EntryID, requesterID UserID, note string) (*TimeEntry, error) {
	now := s.Clock.Now()

	var entry *TimeEntry
	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		var err error
		entry, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if entry.IsApproved {
			return fmt.Errorf("entry %s: update request on approved entry: %w", id, ErrAlreadyApproved)
		}

		line := fmt.Sprintf("[Update requested by %s on %s]", requesterID, now.Format("2006-01-02 15:04"))
		if note != "" {
			line += " " + note
		}
		if entry.Notes != "" {
			entry.Notes += "\n"
		}
		entry.Notes += line

		entry.IsApproved = false
		entry.ApprovedBy = &requesterID
		entry.ApprovedAt = &now
		entry.UpdatedAt = now
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(requesterID), AuditUpdateRequested, note, now)
	return entry, nil
}

// =============================================================================
// MANUAL ENTRY, READS, REMOVAL
// =============================================================================

// CreateEntryInput is a manual entry supplied by an administrator, e.g.
// backfilling a day the worker forgot to clock.
type CreateEntryInput struct {
	UserID         UserID
	EntryDate      time.Time
	ClockInTime    time.Time
	ClockOutTime   *time.Time
	BreakStartTime *time.Time
	BreakEndTime   *time.Time
	Notes          string
}

// CreateEntry persists a manual entry. Derived hours are computed when the
// entry arrives closed; an open manual entry is subject to the same
// one-open-entry uniqueness as ClockIn.
func (s *EntryService) CreateEntry(ctx context.Context, actorID UserID, in CreateEntryInput) (*TimeEntry, error) {
	now := s.Clock.Now()
	day := DayOf(in.EntryDate)

	entry := &TimeEntry{
		ID:             EntryID(uuid.NewString()),
		UserID:         in.UserID,
		EntryDate:      day,
		ClockInTime:    in.ClockInTime,
		ClockOutTime:   cloneTime(in.ClockOutTime),
		BreakStartTime: cloneTime(in.BreakStartTime),
		BreakEndTime:   cloneTime(in.BreakEndTime),
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if entry.ClockOutTime != nil {
		breakdown, err := Classify(entry.ClockInTime, *entry.ClockOutTime, entry.BreakStartTime, entry.BreakEndTime)
		if err != nil {
			return nil, err
		}
		entry.ApplyBreakdown(breakdown)
	} else if err := ValidateBreak(entry.BreakStartTime, entry.BreakEndTime); err != nil {
		// A closed entry gets this from Classify; an open one must not be
		// persisted with a half break either, or clock-out would fail.
		return nil, err
	}

	err := s.Store.WithTx(ctx, func(st EntryStore) error {
		if entry.IsOpen() {
			existing, err := st.FindOpenEntry(ctx, in.UserID, day)
			if err != nil {
				return err
			}
			if existing != nil {
				return &AlreadyClockedInError{UserID: in.UserID, Date: day, ExistingID: existing.ID}
			}
		}
		return st.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, string(entry.ID), string(actorID), AuditEntryCreated, "", now)
	return entry, nil
}

// GetEntry returns the entry or NotFound.
func (s *EntryService) GetEntry(ctx context.Context, id EntryID) (*TimeEntry, error) {
	entry, err := s.Store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &NotFoundError{Kind: "time entry", ID: string(id)}
	}
	return entry, nil
}

// ListEntries returns entries matching the filter, newest first.
func (s *EntryService) ListEntries(ctx context.Context, f EntryFilter) ([]*TimeEntry, error) {
	return s.Store.ListEntries(ctx, f)
}

// ActiveEntry returns the worker's open entry for today, or nil.
func (s *EntryService) ActiveEntry(ctx context.Context, userID UserID) (*TimeEntry, error) {
	return s.Store.FindOpenEntry(ctx, userID, DayOf(s.Clock.Now()))
}

// DeleteEntry removes an entry. Administrative escape hatch; the lifecycle
// itself never deletes.
func (s *EntryService) DeleteEntry(ctx context.Context, id EntryID) error {
	if _, err := s.GetEntry(ctx, id); err != nil {
		return err
	}
	return s.Store.DeleteEntry(ctx, id)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *EntryService) mustGet(ctx context.Context, st EntryStore, id EntryID) (*TimeEntry, error) {
	entry, err := st.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &NotFoundError{Kind: "time entry", ID: string(id)}
	}
	return entry, nil
}

// record appends to the audit trail. It runs after the entity mutation has
// committed, so a failed append is logged rather than surfaced; otherwise
// the caller would see an error for an operation that already happened.
func (s *EntryService) record(ctx context.Context, targetID, actorID string, action AuditAction, note string, at time.Time) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.Append(ctx, AuditRecord{
		ID:       uuid.NewString(),
		TargetID: targetID,
		ActorID:  actorID,
		Action:   action,
		Note:     note,
		At:       at,
	})
	if err != nil {
		log.Printf("audit append failed: %s on %s: %v", action, targetID, err)
	}
}
