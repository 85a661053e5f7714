/*
exception.go - Deadline exception review workflow

PURPOSE:
  Owns approval/rejection of deadline extension requests:

    pending --approve--> approved   (terminal)
    pending --reject---> rejected   (terminal)

  Once reviewed, a request can never be reviewed again: a second approve
  or reject fails with AlreadyReviewed and leaves the stored status at
  whatever the first call set.

  Independent of the duration classifier; shares the approval-state
  pattern of the entry lifecycle, including the store atomicity contract
  and audit trail.
*/
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ExceptionService exposes the exception request lifecycle.
type ExceptionService struct {
	Store ExceptionTxStore
	Audit AuditLog
	Clock Clock
}

func NewExceptionService(store ExceptionTxStore, audit AuditLog, clock Clock) *ExceptionService {
	return &ExceptionService{Store: store, Audit: audit, Clock: clock}
}

// CreateExceptionInput describes a new extension request.
type CreateExceptionInput struct {
	ProviderID              ProviderID
	RequestedExtensionUntil time.Time
	Reason                  string
}

// Create opens a pending request. The requested extension must not lie in
// the past at creation time.
func (s *ExceptionService) Create(ctx context.Context, in CreateExceptionInput) (*DeadlineExceptionRequest, error) {
	now := s.Clock.Now()
	if in.RequestedExtensionUntil.Before(now) {
		return nil, &InvalidTimeRangeError{Field: "extension", Start: now, End: in.RequestedExtensionUntil}
	}

	req := &DeadlineExceptionRequest{
		ID:                      ExceptionID(uuid.NewString()),
		ProviderID:              in.ProviderID,
		RequestedExtensionUntil: in.RequestedExtensionUntil,
		Reason:                  in.Reason,
		Status:                  ExceptionPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := s.Store.SaveException(ctx, req); err != nil {
		return nil, err
	}
	s.record(ctx, req, string(req.ProviderID), AuditExceptionCreated, in.Reason, now)
	return req, nil
}

// Approve grants the extension. Fails with AlreadyReviewed unless pending.
func (s *ExceptionService) Approve(ctx context.Context, id ExceptionID, reviewerID UserID, notes string) (*DeadlineExceptionRequest, error) {
	return s.review(ctx, id, reviewerID, notes, ExceptionApproved, AuditExceptionApproved)
}

// Reject declines the extension. Fails with AlreadyReviewed unless pending.
func (s *ExceptionService) Reject(ctx context.Context, id ExceptionID, reviewerID UserID, notes string) (*DeadlineExceptionRequest, error) {
	return s.review(ctx, id, reviewerID, notes, ExceptionRejected, AuditExceptionRejected)
}

func (s *ExceptionService) review(ctx context.Context, id ExceptionID, reviewerID UserID, notes string, to ExceptionStatus, action AuditAction) (*DeadlineExceptionRequest, error) {
	now := s.Clock.Now()

	var req *DeadlineExceptionRequest
	err := s.Store.WithTx(ctx, func(st ExceptionStore) error {
		var err error
		req, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if req.IsReviewed() {
			return fmt.Errorf("exception request %s is %s: %w", id, req.Status, ErrAlreadyReviewed)
		}

		req.Status = to
		req.ReviewedBy = &reviewerID
		req.ReviewedAt = &now
		req.ReviewNotes = notes
		req.UpdatedAt = now
		return st.SaveException(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, req, string(reviewerID), action, notes, now)
	return req, nil
}

// Get returns the request or NotFound.
func (s *ExceptionService) Get(ctx context.Context, id ExceptionID) (*DeadlineExceptionRequest, error) {
	req, err := s.Store.GetException(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "exception request", ID: string(id)}
	}
	return req, nil
}

// List returns requests matching the filter, newest first.
func (s *ExceptionService) List(ctx context.Context, f ExceptionFilter) ([]*DeadlineExceptionRequest, error) {
	return s.Store.ListExceptions(ctx, f)
}

// ExceptionPatch adjusts a still-pending request.
type ExceptionPatch struct {
	RequestedExtensionUntil *time.Time
	Reason                  *string
}

// UpdatePending edits the extension target or reason of a pending request.
// Fails with InvalidState once the request has been reviewed.
func (s *ExceptionService) UpdatePending(ctx context.Context, id ExceptionID, patch ExceptionPatch) (*DeadlineExceptionRequest, error) {
	now := s.Clock.Now()

	var req *DeadlineExceptionRequest
	err := s.Store.WithTx(ctx, func(st ExceptionStore) error {
		var err error
		req, err = s.mustGet(ctx, st, id)
		if err != nil {
			return err
		}
		if req.IsReviewed() {
			return &InvalidStateError{Op: "update exception request", Reason: "request has already been reviewed"}
		}

		if patch.RequestedExtensionUntil != nil {
			if patch.RequestedExtensionUntil.Before(now) {
				return &InvalidTimeRangeError{Field: "extension", Start: now, End: *patch.RequestedExtensionUntil}
			}
			req.RequestedExtensionUntil = *patch.RequestedExtensionUntil
		}
		if patch.Reason != nil {
			req.Reason = *patch.Reason
		}
		req.UpdatedAt = now
		return st.SaveException(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Delete removes a request. Administrative escape hatch.
func (s *ExceptionService) Delete(ctx context.Context, id ExceptionID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Store.DeleteException(ctx, id)
}

func (s *ExceptionService) mustGet(ctx context.Context, st ExceptionStore, id ExceptionID) (*DeadlineExceptionRequest, error) {
	req, err := st.GetException(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "exception request", ID: string(id)}
	}
	return req, nil
}

// record appends to the audit trail, best effort after the entity commit.
// See EntryService.record.
func (s *ExceptionService) record(ctx context.Context, req *DeadlineExceptionRequest, actorID string, action AuditAction, note string, at time.Time) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.Append(ctx, AuditRecord{
		ID:       uuid.NewString(),
		TargetID: string(req.ID),
		ActorID:  actorID,
		Action:   action,
		Note:     note,
		At:       at,
	})
	if err != nil {
		log.Printf("audit append failed: %s on %s: %v", action, req.ID, err)
	}
}
