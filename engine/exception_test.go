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
// TEST SETUP
// =============================================================================

var reviewNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newExceptionService(clock engine.Clock) (*engine.ExceptionService, *store.Memory) {
	mem := store.NewMemory()
	return engine.NewExceptionService(mem.Exceptions(), mem.Audit(), clock), mem
}

func createPending(t *testing.T, svc *engine.ExceptionService) *engine.DeadlineExceptionRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), engine.CreateExceptionInput{
		ProviderID:              "prov-1",
		RequestedExtensionUntil: reviewNow.AddDate(0, 1, 0),
		Reason:                  "awaiting third-party certification",
	})
	require.NoError(t, err)
	return req
}

// =============================================================================
// CREATE
// =============================================================================

func TestExceptionCreate_StartsPending(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})

	req := createPending(t, svc)

	assert.Equal(t, engine.ExceptionPending, req.Status)
	assert.False(t, req.IsReviewed())
	assert.Nil(t, req.ReviewedBy)
	assert.Nil(t, req.ReviewedAt)
}

func TestExceptionCreate_PastExtension_Rejected(t *testing.T) {
	// GIVEN: A requested extension date already in the past
	// WHEN: Creating the request
	// THEN: InvalidTimeRange; an expired extension is meaningless

	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})

	_, err := svc.Create(context.Background(), engine.CreateExceptionInput{
		ProviderID:              "prov-1",
		RequestedExtensionUntil: reviewNow.AddDate(0, 0, -1),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)
}

// =============================================================================
// REVIEW - terminal transition
// =============================================================================

func TestExceptionApprove_RecordsReviewer(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	req := createPending(t, svc)

	approved, err := svc.Approve(context.Background(), req.ID, "officer-1", "granted, one month")
	require.NoError(t, err)

	assert.Equal(t, engine.ExceptionApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, engine.UserID("officer-1"), *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, "granted, one month", approved.ReviewNotes)
}

func TestExceptionReject_RecordsReviewer(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	req := createPending(t, svc)

	rejected, err := svc.Reject(context.Background(), req.ID, "officer-1", "no justification")
	require.NoError(t, err)

	assert.Equal(t, engine.ExceptionRejected, rejected.Status)
	assert.Equal(t, "no justification", rejected.ReviewNotes)
}

func TestExceptionReview_ApproveThenReject_Rejected(t *testing.T) {
	// GIVEN: A request already approved by officer-1
	// WHEN: officer-2 tries to reject it
	// THEN: AlreadyReviewed, and the approved status survives

	svc, mem := newExceptionService(engine.FixedClock{At: reviewNow})
	ctx := context.Background()
	req := createPending(t, svc)

	_, err := svc.Approve(ctx, req.ID, "officer-1", "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, req.ID, "officer-2", "changed my mind")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyReviewed)

	stored, err := mem.Exceptions().GetException(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ExceptionApproved, stored.Status)
	assert.Equal(t, engine.UserID("officer-1"), *stored.ReviewedBy)
}

func TestExceptionReview_Twice_SameDecision_StillRejected(t *testing.T) {
	// GIVEN: An already rejected request
	// WHEN: Rejecting it again
	// THEN: AlreadyReviewed; review is terminal regardless of direction

	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	ctx := context.Background()
	req := createPending(t, svc)

	_, err := svc.Reject(ctx, req.ID, "officer-1", "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, req.ID, "officer-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrAlreadyReviewed)
}

func TestExceptionReview_Unknown_NotFound(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})

	_, err := svc.Approve(context.Background(), "missing", "officer-1", "")

	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// PENDING EDITS
// =============================================================================

func TestExceptionUpdatePending_EditsFields(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	req := createPending(t, svc)

	until := reviewNow.AddDate(0, 2, 0)
	reason := "certification vendor delayed again"
	updated, err := svc.UpdatePending(context.Background(), req.ID, engine.ExceptionPatch{
		RequestedExtensionUntil: &until,
		Reason:                  &reason,
	})
	require.NoError(t, err)

	assert.True(t, updated.RequestedExtensionUntil.Equal(until))
	assert.Equal(t, reason, updated.Reason)
	assert.Equal(t, engine.ExceptionPending, updated.Status)
}

func TestExceptionUpdatePending_AfterReview_Rejected(t *testing.T) {
	// GIVEN: An approved request
	// WHEN: Editing its extension date
	// THEN: InvalidState; reviewed requests are frozen

	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	ctx := context.Background()
	req := createPending(t, svc)

	_, err := svc.Approve(ctx, req.ID, "officer-1", "")
	require.NoError(t, err)

	until := reviewNow.AddDate(0, 2, 0)
	_, err = svc.UpdatePending(ctx, req.ID, engine.ExceptionPatch{RequestedExtensionUntil: &until})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidState)
}

func TestExceptionUpdatePending_PastExtension_Rejected(t *testing.T) {
	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	req := createPending(t, svc)

	until := reviewNow.AddDate(0, 0, -3)
	_, err := svc.UpdatePending(context.Background(), req.ID, engine.ExceptionPatch{RequestedExtensionUntil: &until})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTimeRange)
}

// =============================================================================
// LIST AND AUDIT
// =============================================================================

func TestExceptionList_FiltersByStatus(t *testing.T) {
	// GIVEN: One approved and one pending request for the same provider
	// WHEN: Listing by status
	// THEN: Each filter returns its own request

	svc, _ := newExceptionService(engine.FixedClock{At: reviewNow})
	ctx := context.Background()

	first := createPending(t, svc)
	_ = createPending(t, svc)
	_, err := svc.Approve(ctx, first.ID, "officer-1", "")
	require.NoError(t, err)

	pending, err := svc.List(ctx, engine.ExceptionFilter{Status: engine.ExceptionPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := svc.List(ctx, engine.ExceptionFilter{Status: engine.ExceptionApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)
}

func TestExceptionWorkflow_WritesAuditTrail(t *testing.T) {
	// GIVEN: A create then approve sequence
	// WHEN: Reading the request's trail
	// THEN: Both actions recorded in order

	svc, mem := newExceptionService(engine.FixedClock{At: reviewNow})
	ctx := context.Background()

	req := createPending(t, svc)
	_, err := svc.Approve(ctx, req.ID, "officer-1", "")
	require.NoError(t, err)

	recs, err := mem.Audit().ByTarget(ctx, string(req.ID))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, engine.AuditExceptionCreated, recs[0].Action)
	assert.Equal(t, engine.AuditExceptionApproved, recs[1].Action)
	assert.Equal(t, "officer-1", recs[1].ActorID)
}
