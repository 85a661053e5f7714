package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/engine"
	"github.com/warp/compliance-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var statsNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// deadlineAt builds a deadline record directly; UpdatedAt doubles as the
// completion timestamp for met deadlines.
func deadlineAt(id string, due time.Time, met bool, updatedAt time.Time) *engine.ComplianceDeadline {
	d := &engine.ComplianceDeadline{
		ID:           engine.DeadlineID(id),
		ProviderID:   "prov-1",
		DeadlineType: "training",
		DeadlineDate: due,
		IsMet:        met,
		CreatedAt:    due.AddDate(0, -1, 0),
		UpdatedAt:    updatedAt,
	}
	if met {
		at := updatedAt
		d.MetAt = &at
	}
	return d
}

func daysFrom(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// =============================================================================
// PARTITION
// =============================================================================

func TestPartitionDeadlines_ThreeWaySplit(t *testing.T) {
	// GIVEN: One met, one unmet past-due, one unmet future deadline
	// WHEN: Partitioning at now
	// THEN: Each lands in its own bucket

	met := deadlineAt("d-met", daysFrom(statsNow, -10), true, daysFrom(statsNow, -8))
	overdue := deadlineAt("d-over", daysFrom(statsNow, -5), false, daysFrom(statsNow, -5))
	pending := deadlineAt("d-pend", daysFrom(statsNow, 5), false, daysFrom(statsNow, -5))

	p := engine.PartitionDeadlines(statsNow, []*engine.ComplianceDeadline{met, overdue, pending})

	require.Len(t, p.Met, 1)
	require.Len(t, p.Overdue, 1)
	require.Len(t, p.Pending, 1)
	assert.Equal(t, engine.DeadlineID("d-met"), p.Met[0].ID)
	assert.Equal(t, engine.DeadlineID("d-over"), p.Overdue[0].ID)
	assert.Equal(t, engine.DeadlineID("d-pend"), p.Pending[0].ID)
}

func TestPartitionDeadlines_MetPastDue_NotOverdue(t *testing.T) {
	// GIVEN: A met deadline whose due date has passed
	// WHEN: Partitioning
	// THEN: Met wins; overdue only applies to unmet deadlines

	d := deadlineAt("d-1", daysFrom(statsNow, -30), true, daysFrom(statsNow, -2))

	p := engine.PartitionDeadlines(statsNow, []*engine.ComplianceDeadline{d})

	assert.Len(t, p.Met, 1)
	assert.Empty(t, p.Overdue)
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestComputeDeadlineStats_Rates(t *testing.T) {
	// GIVEN: 3 deadlines: 1 met, 1 overdue, 1 pending
	// WHEN: Computing statistics
	// THEN: completionRate 33.33, overdueRate 33.33 (2dp rounding)

	deadlines := []*engine.ComplianceDeadline{
		deadlineAt("d-1", daysFrom(statsNow, -10), true, daysFrom(statsNow, -8)),
		deadlineAt("d-2", daysFrom(statsNow, -5), false, daysFrom(statsNow, -5)),
		deadlineAt("d-3", daysFrom(statsNow, 5), false, daysFrom(statsNow, -5)),
	}

	stats := engine.ComputeDeadlineStats(statsNow, deadlines)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Met)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.Pending)
	assert.True(t, stats.CompletionRate.Equal(dec(33.33)), "completion rate = %s", stats.CompletionRate)
	assert.True(t, stats.OverdueRate.Equal(dec(33.33)), "overdue rate = %s", stats.OverdueRate)
}

func TestComputeDeadlineStats_Empty_ZeroRates(t *testing.T) {
	// GIVEN: No deadlines
	// WHEN: Computing statistics
	// THEN: Rates are 0, not NaN or a division error

	stats := engine.ComputeDeadlineStats(statsNow, nil)

	assert.Equal(t, 0, stats.Total)
	assert.True(t, stats.CompletionRate.IsZero())
	assert.True(t, stats.OverdueRate.IsZero())
	assert.True(t, stats.AverageCompletionDays.IsZero())
}

func TestComputeDeadlineStats_AverageCompletionDays(t *testing.T) {
	// GIVEN: Two met deadlines completed 2 and 4 days late
	// WHEN: Computing statistics
	// THEN: Average completion lag is 3 days

	deadlines := []*engine.ComplianceDeadline{
		deadlineAt("d-1", daysFrom(statsNow, -10), true, daysFrom(statsNow, -8)),
		deadlineAt("d-2", daysFrom(statsNow, -10), true, daysFrom(statsNow, -6)),
	}

	stats := engine.ComputeDeadlineStats(statsNow, deadlines)

	assert.True(t, stats.AverageCompletionDays.Equal(dec(3.0)), "avg = %s", stats.AverageCompletionDays)
}

func TestComputeDeadlineStats_EarlyCompletion_ExcludedFromAverage(t *testing.T) {
	// GIVEN: One deadline met 2 days late, one met 5 days EARLY
	// WHEN: Computing statistics
	// THEN: The early completion is excluded, not averaged in as negative.
	//       Reports are calibrated against this asymmetry.

	deadlines := []*engine.ComplianceDeadline{
		deadlineAt("late", daysFrom(statsNow, -10), true, daysFrom(statsNow, -8)),
		deadlineAt("early", daysFrom(statsNow, 5), true, statsNow),
	}

	stats := engine.ComputeDeadlineStats(statsNow, deadlines)

	assert.True(t, stats.AverageCompletionDays.Equal(dec(2.0)), "avg = %s", stats.AverageCompletionDays)
}

func TestComputeDeadlineStats_OnlyEarlyCompletions_ZeroAverage(t *testing.T) {
	// GIVEN: All met deadlines were completed early
	// WHEN: Computing statistics
	// THEN: Average is 0; nothing qualifies for the mean

	deadlines := []*engine.ComplianceDeadline{
		deadlineAt("early-1", daysFrom(statsNow, 5), true, statsNow),
		deadlineAt("early-2", daysFrom(statsNow, 8), true, statsNow),
	}

	stats := engine.ComputeDeadlineStats(statsNow, deadlines)

	assert.True(t, stats.AverageCompletionDays.IsZero())
}

// =============================================================================
// TRACKER
// =============================================================================

func newTracker(clock engine.Clock) (*engine.DeadlineTracker, *store.Memory) {
	mem := store.NewMemory()
	return engine.NewDeadlineTracker(mem.Deadlines(), clock), mem
}

func TestTracker_CreateAndList(t *testing.T) {
	// GIVEN: Two providers with one deadline each
	// WHEN: Listing with a provider filter
	// THEN: Only that provider's deadline returns

	tracker, _ := newTracker(engine.FixedClock{At: statsNow})
	ctx := context.Background()

	_, err := tracker.Create(ctx, engine.CreateDeadlineInput{
		ProviderID: "prov-1", DeadlineType: "training", DeadlineDate: daysFrom(statsNow, 10),
	})
	require.NoError(t, err)
	_, err = tracker.Create(ctx, engine.CreateDeadlineInput{
		ProviderID: "prov-2", DeadlineType: "audit", DeadlineDate: daysFrom(statsNow, 20),
	})
	require.NoError(t, err)

	got, err := tracker.List(ctx, engine.DeadlineFilter{ProviderID: "prov-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.ProviderID("prov-1"), got[0].ProviderID)
}

func TestTracker_MarkMet_Idempotent(t *testing.T) {
	// GIVEN: A deadline marked met at t1
	// WHEN: Marking it met again at t2
	// THEN: The second call is a no-op; MetAt keeps t1

	clock := stepClock(statsNow, daysFrom(statsNow, 1), daysFrom(statsNow, 2))
	tracker, _ := newTracker(clock)
	ctx := context.Background()

	d, err := tracker.Create(ctx, engine.CreateDeadlineInput{
		ProviderID: "prov-1", DeadlineDate: daysFrom(statsNow, 10),
	})
	require.NoError(t, err)

	first, err := tracker.MarkMet(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, first.IsMet)
	require.NotNil(t, first.MetAt)

	second, err := tracker.MarkMet(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, second.IsMet)
	assert.True(t, second.MetAt.Equal(*first.MetAt), "MetAt must not move on a second call")
}

func TestTracker_MarkMet_Unknown_NotFound(t *testing.T) {
	tracker, _ := newTracker(engine.FixedClock{At: statsNow})

	_, err := tracker.MarkMet(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestTracker_Stats_EndToEnd(t *testing.T) {
	// GIVEN: A created deadline that gets marked met before its due date,
	//        plus one left pending
	// WHEN: Computing stats through the tracker
	// THEN: 50% completion, zero overdue

	tracker, _ := newTracker(engine.FixedClock{At: statsNow})
	ctx := context.Background()

	d, err := tracker.Create(ctx, engine.CreateDeadlineInput{
		ProviderID: "prov-1", DeadlineDate: daysFrom(statsNow, 10),
	})
	require.NoError(t, err)
	_, err = tracker.MarkMet(ctx, d.ID)
	require.NoError(t, err)

	_, err = tracker.Create(ctx, engine.CreateDeadlineInput{
		ProviderID: "prov-1", DeadlineDate: daysFrom(statsNow, 20),
	})
	require.NoError(t, err)

	stats, err := tracker.Stats(ctx, engine.DeadlineFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Met)
	assert.Equal(t, 0, stats.Overdue)
	assert.True(t, stats.CompletionRate.Equal(dec(50.0)))
}
