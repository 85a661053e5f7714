package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/engine"
	"github.com/warp/compliance-engine/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newEntryService(clock engine.Clock) (*engine.EntryService, *store.Memory) {
	mem := store.NewMemory()
	return engine.NewEntryService(mem.Entries(), mem.Audit(), clock), mem
}

func stepClock(times ...time.Time) *engine.StepClock {
	return &engine.StepClock{Times: times}
}

// =============================================================================
// CLOCK IN
// =============================================================================

func TestClockIn_CreatesOpenEntry(t *testing.T) {
	// GIVEN: No entry for the worker today
	// WHEN: Clocking in at 09:00
	// THEN: An open entry exists with the day's date and zero derived hours

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	assert.True(t, entry.IsOpen())
	assert.Equal(t, engine.UserID("worker-1"), entry.UserID)
	assert.Equal(t, monday, entry.EntryDate)
	assert.True(t, entry.TotalHours.IsZero())
}

func TestClockIn_Twice_SameDay_Rejected(t *testing.T) {
	// GIVEN: Worker already clocked in today
	// WHEN: Clocking in again
	// THEN: AlreadyClockedIn, carrying the existing entry's id

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	first, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.ClockIn(ctx, "worker-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyClockedIn)

	var dupErr *engine.AlreadyClockedInError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, first.ID, dupErr.ExistingID)
}

func TestClockIn_DifferentWorkers_Independent(t *testing.T) {
	// GIVEN: worker-1 clocked in
	// WHEN: worker-2 clocks in
	// THEN: Both sessions are open; the guard is per (user, day)

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockIn(ctx, "worker-2")
	assert.NoError(t, err)
}

func TestClockIn_AfterClockOut_NewSessionAllowed(t *testing.T) {
	// GIVEN: Worker clocked in and out this morning
	// WHEN: Clocking in again in the afternoon
	// THEN: A second entry opens; only OPEN entries block

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 12, 0), at(monday, 13, 0)))
	ctx := context.Background()

	first, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, first.ID)
	require.NoError(t, err)

	second, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

// =============================================================================
// CLOCK OUT
// =============================================================================

func TestClockOut_ComputesBreakdown(t *testing.T) {
	// GIVEN: Worker clocked in at 17:00 on a weekday
	// WHEN: Clocking out at 19:00
	// THEN: Entry is closed with total 2.0 and evening 1.0

	svc, _ := newEntryService(stepClock(at(monday, 17, 0), at(monday, 19, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	closed, err := svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	assert.False(t, closed.IsOpen())
	assert.True(t, closed.TotalHours.Equal(dec(2.0)))
	assert.True(t, closed.EveningHours.Equal(dec(1.0)))
	assert.True(t, closed.RegularHours.Equal(dec(2.0)))
	assert.True(t, closed.WeekendHours.IsZero())
}

func TestClockOut_Twice_Rejected(t *testing.T) {
	// GIVEN: A closed entry
	// WHEN: Clocking out again
	// THEN: AlreadyClockedOut

	svc, _ := newEntryService(stepClock(at(monday, 9, 0), at(monday, 17, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.ClockOut(ctx, entry.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyClockedOut)
}

func TestClockOut_UnknownEntry_NotFound(t *testing.T) {
	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 17, 0)})

	_, err := svc.ClockOut(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestClockOut_PastMidnight_Rejected(t *testing.T) {
	// GIVEN: Worker clocked in at 22:00
	// WHEN: Clocking out at 02:00 the next day
	// THEN: The session is rejected and stays open

	svc, mem := newEntryService(stepClock(
		at(monday, 22, 0), at(monday.AddDate(0, 0, 1), 2, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.ClockOut(ctx, entry.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)

	stored, err := mem.Entries().GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen(), "rejected clock-out must not close the entry")
}

// =============================================================================
// BREAK EDITS
// =============================================================================

func TestUpdateBreakTimes_Recomputes(t *testing.T) {
	// GIVEN: A closed 09:00-17:00 entry without a break
	// WHEN: Adding a 12:00-12:30 break
	// THEN: Total drops from 8.0 to 7.5

	svc, _ := newEntryService(stepClock(at(monday, 9, 0), at(monday, 17, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	closed, err := svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, closed.TotalHours.Equal(dec(8.0)))

	updated, err := svc.UpdateBreakTimes(ctx, entry.ID, "admin-1",
		atPtr(monday, 12, 0), atPtr(monday, 12, 30))
	require.NoError(t, err)

	assert.True(t, updated.TotalHours.Equal(dec(7.5)))
	assert.True(t, updated.HasBreak())
}

func TestUpdateBreakTimes_OpenEntry_Rejected(t *testing.T) {
	// GIVEN: An open entry
	// WHEN: Editing break times
	// THEN: InvalidState; breaks are edited after clock-out

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.UpdateBreakTimes(ctx, entry.ID, "admin-1",
		atPtr(monday, 12, 0), atPtr(monday, 12, 30))

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidState)
}

func TestUpdateBreakTimes_ApprovedEntry_Rejected(t *testing.T) {
	// GIVEN: An approved entry
	// WHEN: Editing break times
	// THEN: AlreadyApproved; approval locks break corrections

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	_, err = svc.UpdateBreakTimes(ctx, entry.ID, "admin-1",
		atPtr(monday, 12, 0), atPtr(monday, 12, 30))

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyApproved)
}

// =============================================================================
// FIELD UPDATES
// =============================================================================

func TestUpdate_IntervalChange_RecomputesHours(t *testing.T) {
	// GIVEN: A closed 09:00-17:00 entry
	// WHEN: Patching clock-out to 19:00
	// THEN: Total and evening are recomputed

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 20, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, entry.ID, "admin-1", engine.EntryPatch{
		ClockOutTime: atPtr(monday, 19, 0),
	})
	require.NoError(t, err)

	assert.True(t, updated.TotalHours.Equal(dec(10.0)))
	assert.True(t, updated.EveningHours.Equal(dec(1.0)))
}

func TestUpdate_NotesOnly_HoursUntouched(t *testing.T) {
	// GIVEN: A closed entry
	// WHEN: Patching only the notes
	// THEN: Derived hours stay as computed at clock-out

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	closed, err := svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	notes := "forgot badge, entered via side door"
	updated, err := svc.Update(ctx, entry.ID, "admin-1", engine.EntryPatch{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.TotalHours.Equal(closed.TotalHours))
}

func TestUpdate_ApprovedEntry_PlainFieldsAllowed(t *testing.T) {
	// GIVEN: An approved entry
	// WHEN: Patching notes
	// THEN: The update succeeds. Approval locks break edits only, not
	//       plain field updates.

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0), at(monday, 18, 30)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	notes := "corrected cost center"
	updated, err := svc.Update(ctx, entry.ID, "admin-1", engine.EntryPatch{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.IsApproved)
}

// =============================================================================
// APPROVAL
// =============================================================================

func TestApprove_SetsApprovalFields(t *testing.T) {
	// GIVEN: A closed entry
	// WHEN: A manager approves it
	// THEN: IsApproved with approver and timestamp recorded

	approveAt := at(monday, 18, 0)
	svc, _ := newEntryService(stepClock(at(monday, 9, 0), at(monday, 17, 0), approveAt))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, engine.UserID("manager-1"), *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(approveAt))
}

func TestApprove_Twice_RejectedAndUnchanged(t *testing.T) {
	// GIVEN: An entry approved by manager-1
	// WHEN: manager-2 tries to approve it again
	// THEN: AlreadyApproved, and the stored approval state is untouched

	svc, mem := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0), at(monday, 19, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	first, err := svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, entry.ID, "manager-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyApproved)

	stored, err := mem.Entries().GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.UserID("manager-1"), *stored.ApprovedBy)
	assert.True(t, stored.ApprovedAt.Equal(*first.ApprovedAt))
}

// =============================================================================
// REQUEST UPDATE
// =============================================================================

func TestRequestUpdate_AppendsReviewerNote(t *testing.T) {
	// GIVEN: A closed entry with existing worker notes
	// WHEN: A reviewer requests an update with a note
	// THEN: A timestamped line is appended; approval stays false and the
	//       approval fields record the requester as last actor

	reqAt := at(monday, 18, 0)
	svc, _ := newEntryService(stepClock(at(monday, 9, 0), at(monday, 17, 0), reqAt))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)

	updated, err := svc.RequestUpdate(ctx, entry.ID, "manager-1", "break looks wrong")
	require.NoError(t, err)

	assert.Contains(t, updated.Notes, "[Update requested by manager-1 on 2025-03-10 18:00]")
	assert.Contains(t, updated.Notes, "break looks wrong")
	assert.False(t, updated.IsApproved)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, engine.UserID("manager-1"), *updated.ApprovedBy)
}

func TestRequestUpdate_PreservesExistingNotes(t *testing.T) {
	// GIVEN: An entry with worker notes
	// WHEN: Requesting an update
	// THEN: The original notes survive on their own line

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 17, 30), at(monday, 18, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	notes := "client visit in the afternoon"
	_, err = svc.Update(ctx, entry.ID, "worker-1", engine.EntryPatch{Notes: &notes})
	require.NoError(t, err)

	updated, err := svc.RequestUpdate(ctx, entry.ID, "manager-1", "")
	require.NoError(t, err)

	assert.Contains(t, updated.Notes, notes)
	assert.Contains(t, updated.Notes, "\n[Update requested by manager-1")
}

func TestRequestUpdate_ApprovedEntry_Rejected(t *testing.T) {
	// GIVEN: An approved entry
	// WHEN: Requesting an update
	// THEN: AlreadyApproved; corrections need the approval to be undone first

	svc, _ := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0), at(monday, 19, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	_, err = svc.RequestUpdate(ctx, entry.ID, "manager-2", "please fix")

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyApproved)
}

// =============================================================================
// MANUAL ENTRIES AND READS
// =============================================================================

func TestCreateEntry_ClosedManualEntry_HoursComputed(t *testing.T) {
	// GIVEN: An administrator backfills a full Saturday shift
	// WHEN: Creating the entry
	// THEN: Derived hours are computed, including the weekend bucket

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, "admin-1", engine.CreateEntryInput{
		UserID:       "worker-1",
		EntryDate:    saturday,
		ClockInTime:  at(saturday, 16, 0),
		ClockOutTime: atPtr(saturday, 21, 0),
		Notes:        "inventory count",
	})
	require.NoError(t, err)

	assert.True(t, entry.TotalHours.Equal(dec(5.0)))
	assert.True(t, entry.EveningHours.Equal(dec(3.0)))
	assert.True(t, entry.WeekendHours.Equal(dec(5.0)))
}

func TestCreateEntry_OpenManualEntry_UniquenessEnforced(t *testing.T) {
	// GIVEN: Worker already has an open entry today
	// WHEN: Backfilling another OPEN entry for the same day
	// THEN: AlreadyClockedIn

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, "admin-1", engine.CreateEntryInput{
		UserID:      "worker-1",
		EntryDate:   monday,
		ClockInTime: at(monday, 8, 0),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyClockedIn)
}

func TestCreateEntry_OpenManualEntry_HalfBreak_Rejected(t *testing.T) {
	// GIVEN: A backfilled OPEN entry carrying only a break start
	// WHEN: Creating it
	// THEN: InvalidTimeRange; nothing is persisted

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, "admin-1", engine.CreateEntryInput{
		UserID:         "worker-1",
		EntryDate:      monday,
		ClockInTime:    at(monday, 8, 0),
		BreakStartTime: atPtr(monday, 12, 0),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)

	open, err := svc.ActiveEntry(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestUpdate_OpenEntry_HalfBreak_Rejected(t *testing.T) {
	// GIVEN: An open session
	// WHEN: Patching only the break end
	// THEN: InvalidTimeRange; the stored entry keeps no break

	svc, mem := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.Update(ctx, entry.ID, "admin-1", engine.EntryPatch{
		BreakEndTime: atPtr(monday, 12, 30),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)

	stored, err := mem.Entries().GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BreakStartTime)
	assert.Nil(t, stored.BreakEndTime)
}

func TestUpdate_OpenEntry_InvertedBreak_Rejected(t *testing.T) {
	// GIVEN: An open session
	// WHEN: Patching a break whose end precedes its start
	// THEN: InvalidTimeRange

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	_, err = svc.Update(ctx, entry.ID, "admin-1", engine.EntryPatch{
		BreakStartTime: atPtr(monday, 12, 30),
		BreakEndTime:   atPtr(monday, 12, 0),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)
}

func TestListEntries_FiltersByUserAndDay(t *testing.T) {
	// GIVEN: Entries for two workers across two days
	// WHEN: Listing with a user filter and a day filter
	// THEN: Only matching entries return

	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})
	ctx := context.Background()

	mk := func(user engine.UserID, day time.Time) {
		_, err := svc.CreateEntry(ctx, "admin-1", engine.CreateEntryInput{
			UserID:       user,
			EntryDate:    day,
			ClockInTime:  at(day, 9, 0),
			ClockOutTime: atPtr(day, 17, 0),
		})
		require.NoError(t, err)
	}
	mk("worker-1", monday)
	mk("worker-1", saturday)
	mk("worker-2", monday)

	byUser, err := svc.ListEntries(ctx, engine.EntryFilter{UserID: "worker-1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byDay, err := svc.ListEntries(ctx, engine.EntryFilter{UserID: "worker-1", Day: monday})
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.Equal(t, monday, byDay[0].EntryDate)
}

func TestActiveEntry_ReturnsNilWhenNoneOpen(t *testing.T) {
	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})

	entry, err := svc.ActiveEntry(context.Background(), "worker-1")

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDeleteEntry_UnknownEntry_NotFound(t *testing.T) {
	svc, _ := newEntryService(engine.FixedClock{At: at(monday, 10, 0)})

	err := svc.DeleteEntry(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestLifecycle_WritesAuditTrail(t *testing.T) {
	// GIVEN: A clock-in, clock-out, approve sequence
	// WHEN: Reading the entry's trail
	// THEN: Three records in order, with the right actors

	svc, mem := newEntryService(stepClock(
		at(monday, 9, 0), at(monday, 17, 0), at(monday, 18, 0)))
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)
	_, err = svc.ClockOut(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, entry.ID, "manager-1")
	require.NoError(t, err)

	recs, err := mem.Audit().ByTarget(ctx, string(entry.ID))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, engine.AuditClockIn, recs[0].Action)
	assert.Equal(t, engine.AuditClockOut, recs[1].Action)
	assert.Equal(t, engine.AuditEntryApproved, recs[2].Action)
	assert.Equal(t, "manager-1", recs[2].ActorID)
}

// brokenAuditLog fails every append.
type brokenAuditLog struct{}

func (brokenAuditLog) Append(ctx context.Context, rec engine.AuditRecord) error {
	return errors.New("audit sink unavailable")
}

func (brokenAuditLog) ByTarget(ctx context.Context, targetID string) ([]engine.AuditRecord, error) {
	return nil, nil
}

func TestClockIn_AuditFailure_DoesNotFailOperation(t *testing.T) {
	// GIVEN: An audit log that cannot accept records
	// WHEN: Clocking in
	// THEN: The entry is created and persisted; the trail is best effort

	mem := store.NewMemory()
	svc := engine.NewEntryService(mem.Entries(), brokenAuditLog{}, engine.FixedClock{At: at(monday, 9, 0)})
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "worker-1")
	require.NoError(t, err)

	stored, err := mem.Entries().GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsOpen())
}
