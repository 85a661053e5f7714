/*
handlers.go - HTTP API handlers for the time and compliance engine

PURPOSE:
  Exposes the compliance accounting engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Time entries:
    POST   /api/time-entries                     Clock in
    POST   /api/time-entries/manual              Create manual (backfilled) entry
    GET    /api/time-entries                     List entries (filter: user_id, date)
    GET    /api/time-entries/active              Open entry for a worker
    GET    /api/time-entries/{id}                Get entry
    PATCH  /api/time-entries/{id}                Update entry fields
    DELETE /api/time-entries/{id}                Delete entry
    POST   /api/time-entries/{id}/clock-out      Clock out
    PUT    /api/time-entries/{id}/breaks         Replace break interval
    POST   /api/time-entries/{id}/approve        Approve entry
    POST   /api/time-entries/{id}/request-update Ask worker for a correction
    GET    /api/time-entries/{id}/audit          Change trail

  Deadlines:
    GET    /api/deadlines                        List (filter: provider_id)
    POST   /api/deadlines                        Schedule deadline
    GET    /api/deadlines/summary                Aggregate statistics
    GET    /api/deadlines/{id}                   Get deadline
    POST   /api/deadlines/{id}/met               Mark deadline met

  Exceptions:
    GET    /api/exceptions                       List (filter: provider_id, status)
    POST   /api/exceptions                       Create extension request
    GET    /api/exceptions/{id}                  Get request
    PATCH  /api/exceptions/{id}                  Edit pending request
    DELETE /api/exceptions/{id}                  Delete request
    POST   /api/exceptions/{id}/approve          Approve
    POST   /api/exceptions/{id}/reject           Reject

ERROR HANDLING:
  Engine errors map to HTTP status via their sentinel chain:
  - 404: engine.ErrNotFound
  - 409: conflicts (already clocked in/out, already approved/reviewed)
  - 400: invalid state, invalid time range, malformed input
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Actor identity arrives in the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/compliance-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Entries    *engine.EntryService
	Deadlines  *engine.DeadlineTracker
	Exceptions *engine.ExceptionService
	Audit      engine.AuditLog
}

// NewHandler creates a handler wired to the given services.
func NewHandler(entries *engine.EntryService, deadlines *engine.DeadlineTracker, exceptions *engine.ExceptionService, audit engine.AuditLog) *Handler {
	return &Handler{
		Entries:    entries,
		Deadlines:  deadlines,
		Exceptions: exceptions,
		Audit:      audit,
	}
}

// =============================================================================
// TIME ENTRY HANDLERS
// =============================================================================

// ClockIn opens a session for a worker.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	entry, err := h.Entries.ClockIn(r.Context(), engine.UserID(req.UserID))
	if err != nil {
		writeEngineError(w, "Failed to clock in", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimeEntryDTO(entry))
}

// ClockOut closes the session and computes the hour breakdown.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	entry, err := h.Entries.ClockOut(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to clock out", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// CreateEntry creates a manual entry, e.g. backfilling a forgotten day.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry_date format (use YYYY-MM-DD)", err)
		return
	}
	clockIn, err := time.Parse(time.RFC3339, req.ClockInTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_in_time (use RFC 3339)", err)
		return
	}

	clockOut, err := parseOptTime(req.ClockOutTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_out_time (use RFC 3339)", err)
		return
	}
	breakStart, err := parseOptTime(req.BreakStartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid break_start_time (use RFC 3339)", err)
		return
	}
	breakEnd, err := parseOptTime(req.BreakEndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid break_end_time (use RFC 3339)", err)
		return
	}

	entry, err := h.Entries.CreateEntry(r.Context(), engine.UserID(req.ActorID), engine.CreateEntryInput{
		UserID:         engine.UserID(req.UserID),
		EntryDate:      entryDate,
		ClockInTime:    clockIn,
		ClockOutTime:   clockOut,
		BreakStartTime: breakStart,
		BreakEndTime:   breakEnd,
		Notes:          req.Notes,
	})
	if err != nil {
		writeEngineError(w, "Failed to create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimeEntryDTO(entry))
}

// ListEntries returns entries, optionally filtered by user and day.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var filter engine.EntryFilter
	filter.UserID = engine.UserID(r.URL.Query().Get("user_id"))
	if d := r.URL.Query().Get("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		filter.Day = day
	}

	entries, err := h.Entries.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]TimeEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTimeEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ActiveEntry returns a worker's open entry for today, if any.
func (h *Handler) ActiveEntry(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	entry, err := h.Entries.ActiveEntry(r.Context(), engine.UserID(userID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get active entry", err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"active": true, "entry": toTimeEntryDTO(entry)})
}

// GetEntry returns a single entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	entry, err := h.Entries.GetEntry(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// UpdateEntry patches entry fields. Closed entries get their hour
// breakdown recomputed when the interval changed.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var patch engine.EntryPatch
	if req.EntryDate != nil {
		day, err := time.Parse("2006-01-02", *req.EntryDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid entry_date format (use YYYY-MM-DD)", err)
			return
		}
		patch.EntryDate = &day
	}
	for _, f := range []struct {
		src  *string
		dst  **time.Time
		name string
	}{
		{req.ClockInTime, &patch.ClockInTime, "clock_in_time"},
		{req.ClockOutTime, &patch.ClockOutTime, "clock_out_time"},
		{req.BreakStartTime, &patch.BreakStartTime, "break_start_time"},
		{req.BreakEndTime, &patch.BreakEndTime, "break_end_time"},
	} {
		t, err := parseOptTime(f.src)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+f.name+" (use RFC 3339)", err)
			return
		}
		*f.dst = t
	}
	patch.Notes = req.Notes

	entry, err := h.Entries.Update(r.Context(), id, engine.UserID(req.ActorID), patch)
	if err != nil {
		writeEngineError(w, "Failed to update entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// DeleteEntry removes an entry.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	if err := h.Entries.DeleteEntry(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete entry", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpdateBreaks replaces the break interval on a closed entry.
func (h *Handler) UpdateBreaks(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	var req UpdateBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	breakStart, err := parseOptTime(req.BreakStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid break_start_time (use RFC 3339)", err)
		return
	}
	breakEnd, err := parseOptTime(req.BreakEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid break_end_time (use RFC 3339)", err)
		return
	}

	entry, err := h.Entries.UpdateBreakTimes(r.Context(), id, engine.UserID(req.ActorID), breakStart, breakEnd)
	if err != nil {
		writeEngineError(w, "Failed to update breaks", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// ApproveEntry approves a closed entry.
func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	var req ApproveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApprovedBy == "" {
		writeError(w, http.StatusBadRequest, "approved_by is required", nil)
		return
	}

	entry, err := h.Entries.Approve(r.Context(), id, engine.UserID(req.ApprovedBy))
	if err != nil {
		writeEngineError(w, "Failed to approve entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// RequestEntryUpdate asks the worker to correct an entry.
func (h *Handler) RequestEntryUpdate(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))

	var req RequestUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RequestedBy == "" {
		writeError(w, http.StatusBadRequest, "requested_by is required", nil)
		return
	}

	entry, err := h.Entries.RequestUpdate(r.Context(), id, engine.UserID(req.RequestedBy), req.Note)
	if err != nil {
		writeEngineError(w, "Failed to request update", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryDTO(entry))
}

// EntryAudit returns the change trail for an entry.
func (h *Handler) EntryAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recs, err := h.Audit.ByTarget(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get audit trail", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": toAuditDTOs(recs)})
}

// =============================================================================
// DEADLINE HANDLERS
// =============================================================================

// ListDeadlines returns deadlines, optionally filtered by provider.
func (h *Handler) ListDeadlines(w http.ResponseWriter, r *http.Request) {
	filter := engine.DeadlineFilter{
		ProviderID: engine.ProviderID(r.URL.Query().Get("provider_id")),
	}

	deadlines, err := h.Deadlines.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list deadlines", err)
		return
	}

	now := h.Deadlines.Clock.Now()
	dtos := make([]DeadlineDTO, len(deadlines))
	for i, d := range deadlines {
		dtos[i] = toDeadlineDTO(d, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDeadline schedules a new obligation.
func (h *Handler) CreateDeadline(w http.ResponseWriter, r *http.Request) {
	var req CreateDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required", nil)
		return
	}

	deadlineDate, err := time.Parse(time.RFC3339, req.DeadlineDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid deadline_date (use RFC 3339)", err)
		return
	}

	d, err := h.Deadlines.Create(r.Context(), engine.CreateDeadlineInput{
		ProviderID:   engine.ProviderID(req.ProviderID),
		DeadlineType: req.DeadlineType,
		DeadlineDate: deadlineDate,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create deadline", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDeadlineDTO(d, h.Deadlines.Clock.Now()))
}

// GetDeadline returns a single deadline.
func (h *Handler) GetDeadline(w http.ResponseWriter, r *http.Request) {
	id := engine.DeadlineID(chi.URLParam(r, "id"))

	d, err := h.Deadlines.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get deadline", err)
		return
	}

	writeJSON(w, http.StatusOK, toDeadlineDTO(d, h.Deadlines.Clock.Now()))
}

// MarkDeadlineMet records the triggering artifact as completed.
func (h *Handler) MarkDeadlineMet(w http.ResponseWriter, r *http.Request) {
	id := engine.DeadlineID(chi.URLParam(r, "id"))

	d, err := h.Deadlines.MarkMet(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to mark deadline met", err)
		return
	}

	writeJSON(w, http.StatusOK, toDeadlineDTO(d, h.Deadlines.Clock.Now()))
}

// DeadlineSummary returns aggregate compliance statistics.
func (h *Handler) DeadlineSummary(w http.ResponseWriter, r *http.Request) {
	filter := engine.DeadlineFilter{
		ProviderID: engine.ProviderID(r.URL.Query().Get("provider_id")),
	}

	stats, err := h.Deadlines.Stats(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}

	writeJSON(w, http.StatusOK, toDeadlineStatsDTO(stats))
}

// =============================================================================
// EXCEPTION HANDLERS
// =============================================================================

// ListExceptions returns extension requests, filtered by provider and status.
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	filter := engine.ExceptionFilter{
		ProviderID: engine.ProviderID(r.URL.Query().Get("provider_id")),
		Status:     engine.ExceptionStatus(r.URL.Query().Get("status")),
	}

	reqs, err := h.Exceptions.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exception requests", err)
		return
	}

	dtos := make([]ExceptionDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toExceptionDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateException opens a pending extension request.
func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	var req CreateExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required", nil)
		return
	}

	until, err := time.Parse(time.RFC3339, req.RequestedExtensionUntil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid requested_extension_until (use RFC 3339)", err)
		return
	}

	created, err := h.Exceptions.Create(r.Context(), engine.CreateExceptionInput{
		ProviderID:              engine.ProviderID(req.ProviderID),
		RequestedExtensionUntil: until,
		Reason:                  req.Reason,
	})
	if err != nil {
		writeEngineError(w, "Failed to create exception request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toExceptionDTO(created))
}

// GetException returns a single extension request.
func (h *Handler) GetException(w http.ResponseWriter, r *http.Request) {
	id := engine.ExceptionID(chi.URLParam(r, "id"))

	req, err := h.Exceptions.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get exception request", err)
		return
	}

	writeJSON(w, http.StatusOK, toExceptionDTO(req))
}

// UpdateException edits a still-pending request.
func (h *Handler) UpdateException(w http.ResponseWriter, r *http.Request) {
	id := engine.ExceptionID(chi.URLParam(r, "id"))

	var req UpdateExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var patch engine.ExceptionPatch
	until, err := parseOptTime(req.RequestedExtensionUntil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid requested_extension_until (use RFC 3339)", err)
		return
	}
	patch.RequestedExtensionUntil = until
	patch.Reason = req.Reason

	updated, err := h.Exceptions.UpdatePending(r.Context(), id, patch)
	if err != nil {
		writeEngineError(w, "Failed to update exception request", err)
		return
	}

	writeJSON(w, http.StatusOK, toExceptionDTO(updated))
}

// DeleteException removes a request.
func (h *Handler) DeleteException(w http.ResponseWriter, r *http.Request) {
	id := engine.ExceptionID(chi.URLParam(r, "id"))

	if err := h.Exceptions.Delete(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete exception request", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ApproveException grants the extension. Terminal.
func (h *Handler) ApproveException(w http.ResponseWriter, r *http.Request) {
	h.reviewException(w, r, true)
}

// RejectException denies the extension. Terminal.
func (h *Handler) RejectException(w http.ResponseWriter, r *http.Request) {
	h.reviewException(w, r, false)
}

func (h *Handler) reviewException(w http.ResponseWriter, r *http.Request, approve bool) {
	id := engine.ExceptionID(chi.URLParam(r, "id"))

	var req ReviewExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ReviewedBy == "" {
		writeError(w, http.StatusBadRequest, "reviewed_by is required", nil)
		return
	}

	var (
		reviewed *engine.DeadlineExceptionRequest
		err      error
	)
	if approve {
		reviewed, err = h.Exceptions.Approve(r.Context(), id, engine.UserID(req.ReviewedBy), req.ReviewNotes)
	} else {
		reviewed, err = h.Exceptions.Reject(r.Context(), id, engine.UserID(req.ReviewedBy), req.ReviewNotes)
	}
	if err != nil {
		writeEngineError(w, "Failed to review exception request", err)
		return
	}

	writeJSON(w, http.StatusOK, toExceptionDTO(reviewed))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps an engine error to the right HTTP status.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseOptTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
