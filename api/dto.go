/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TIME FORMATS:
  Instants travel as RFC 3339; calendar days as YYYY-MM-DD. Hour fields
  are JSON numbers carrying the engine's 2-decimal values.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/warp/compliance-engine/engine"
)

// =============================================================================
// TIME ENTRIES
// =============================================================================

// TimeEntryDTO represents a time entry in API responses.
type TimeEntryDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	EntryDate string `json:"entry_date"`

	ClockInTime    string  `json:"clock_in_time"`
	ClockOutTime   *string `json:"clock_out_time,omitempty"`
	BreakStartTime *string `json:"break_start_time,omitempty"`
	BreakEndTime   *string `json:"break_end_time,omitempty"`

	TotalHours   float64 `json:"total_hours"`
	RegularHours float64 `json:"regular_hours"`
	EveningHours float64 `json:"evening_hours"`
	WeekendHours float64 `json:"weekend_hours"`

	IsApproved bool    `json:"is_approved"`
	ApprovedBy *string `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	Notes      string  `json:"notes,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTimeEntryDTO(e *engine.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:             string(e.ID),
		UserID:         string(e.UserID),
		EntryDate:      e.EntryDate.Format("2006-01-02"),
		ClockInTime:    e.ClockInTime.Format(time.RFC3339),
		ClockOutTime:   formatOptTime(e.ClockOutTime),
		BreakStartTime: formatOptTime(e.BreakStartTime),
		BreakEndTime:   formatOptTime(e.BreakEndTime),
		TotalHours:     e.TotalHours.InexactFloat64(),
		RegularHours:   e.RegularHours.InexactFloat64(),
		EveningHours:   e.EveningHours.InexactFloat64(),
		WeekendHours:   e.WeekendHours.InexactFloat64(),
		IsApproved:     e.IsApproved,
		ApprovedAt:     formatOptTime(e.ApprovedAt),
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
	if e.ApprovedBy != nil {
		v := string(*e.ApprovedBy)
		dto.ApprovedBy = &v
	}
	return dto
}

// ClockInRequest opens a session for a worker.
type ClockInRequest struct {
	UserID string `json:"user_id"`
}

// ApproveEntryRequest approves a closed entry.
type ApproveEntryRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// RequestUpdateRequest asks the worker to correct an entry.
type RequestUpdateRequest struct {
	RequestedBy string `json:"requested_by"`
	Note        string `json:"note,omitempty"`
}

// UpdateBreakRequest replaces the break interval on a closed entry.
type UpdateBreakRequest struct {
	ActorID    string  `json:"actor_id"`
	BreakStart *string `json:"break_start_time,omitempty"`
	BreakEnd   *string `json:"break_end_time,omitempty"`
}

// CreateEntryRequest is a manual (backfilled) entry.
type CreateEntryRequest struct {
	ActorID        string  `json:"actor_id"`
	UserID         string  `json:"user_id"`
	EntryDate      string  `json:"entry_date"`
	ClockInTime    string  `json:"clock_in_time"`
	ClockOutTime   *string `json:"clock_out_time,omitempty"`
	BreakStartTime *string `json:"break_start_time,omitempty"`
	BreakEndTime   *string `json:"break_end_time,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// UpdateEntryRequest patches entry fields; absent fields are untouched.
type UpdateEntryRequest struct {
	ActorID        string  `json:"actor_id"`
	EntryDate      *string `json:"entry_date,omitempty"`
	ClockInTime    *string `json:"clock_in_time,omitempty"`
	ClockOutTime   *string `json:"clock_out_time,omitempty"`
	BreakStartTime *string `json:"break_start_time,omitempty"`
	BreakEndTime   *string `json:"break_end_time,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// =============================================================================
// DEADLINES
// =============================================================================

// DeadlineDTO represents a compliance deadline in API responses.
// Status is derived at response time, never stored.
type DeadlineDTO struct {
	ID           string  `json:"id"`
	ProviderID   string  `json:"provider_id"`
	DeadlineType string  `json:"deadline_type,omitempty"`
	DeadlineDate string  `json:"deadline_date"`
	IsMet        bool    `json:"is_met"`
	MetAt        *string `json:"met_at,omitempty"`
	Status       string  `json:"status"` // met | overdue | pending
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toDeadlineDTO(d *engine.ComplianceDeadline, now time.Time) DeadlineDTO {
	status := "pending"
	switch {
	case d.IsMet:
		status = "met"
	case d.IsOverdue(now):
		status = "overdue"
	}
	return DeadlineDTO{
		ID:           string(d.ID),
		ProviderID:   string(d.ProviderID),
		DeadlineType: d.DeadlineType,
		DeadlineDate: d.DeadlineDate.Format(time.RFC3339),
		IsMet:        d.IsMet,
		MetAt:        formatOptTime(d.MetAt),
		Status:       status,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateDeadlineRequest schedules a new obligation.
type CreateDeadlineRequest struct {
	ProviderID   string `json:"provider_id"`
	DeadlineType string `json:"deadline_type,omitempty"`
	DeadlineDate string `json:"deadline_date"`
}

// DeadlineStatsDTO is the aggregate compliance view.
type DeadlineStatsDTO struct {
	Total   int `json:"total"`
	Met     int `json:"met"`
	Overdue int `json:"overdue"`
	Pending int `json:"pending"`

	CompletionRate        float64 `json:"completion_rate"`
	OverdueRate           float64 `json:"overdue_rate"`
	AverageCompletionDays float64 `json:"average_completion_days"`
}

func toDeadlineStatsDTO(s engine.DeadlineStats) DeadlineStatsDTO {
	return DeadlineStatsDTO{
		Total:                 s.Total,
		Met:                   s.Met,
		Overdue:               s.Overdue,
		Pending:               s.Pending,
		CompletionRate:        s.CompletionRate.InexactFloat64(),
		OverdueRate:           s.OverdueRate.InexactFloat64(),
		AverageCompletionDays: s.AverageCompletionDays.InexactFloat64(),
	}
}

// =============================================================================
// EXCEPTION REQUESTS
// =============================================================================

// ExceptionDTO represents a deadline exception request in API responses.
type ExceptionDTO struct {
	ID                      string  `json:"id"`
	ProviderID              string  `json:"provider_id"`
	RequestedExtensionUntil string  `json:"requested_extension_until"`
	Reason                  string  `json:"reason,omitempty"`
	Status                  string  `json:"status"`
	ReviewedBy              *string `json:"reviewed_by,omitempty"`
	ReviewedAt              *string `json:"reviewed_at,omitempty"`
	ReviewNotes             string  `json:"review_notes,omitempty"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

func toExceptionDTO(r *engine.DeadlineExceptionRequest) ExceptionDTO {
	dto := ExceptionDTO{
		ID:                      string(r.ID),
		ProviderID:              string(r.ProviderID),
		RequestedExtensionUntil: r.RequestedExtensionUntil.Format(time.RFC3339),
		Reason:                  r.Reason,
		Status:                  string(r.Status),
		ReviewedAt:              formatOptTime(r.ReviewedAt),
		ReviewNotes:             r.ReviewNotes,
		CreatedAt:               r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ReviewedBy != nil {
		v := string(*r.ReviewedBy)
		dto.ReviewedBy = &v
	}
	return dto
}

// CreateExceptionRequest opens a pending extension request.
type CreateExceptionRequest struct {
	ProviderID              string `json:"provider_id"`
	RequestedExtensionUntil string `json:"requested_extension_until"`
	Reason                  string `json:"reason,omitempty"`
}

// ReviewExceptionRequest approves or rejects (route decides which).
type ReviewExceptionRequest struct {
	ReviewedBy  string `json:"reviewed_by"`
	ReviewNotes string `json:"review_notes,omitempty"`
}

// UpdateExceptionRequest patches a still-pending request.
type UpdateExceptionRequest struct {
	RequestedExtensionUntil *string `json:"requested_extension_until,omitempty"`
	Reason                  *string `json:"reason,omitempty"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditRecordDTO is one line of an entity's change trail.
type AuditRecordDTO struct {
	ID      string `json:"id"`
	ActorID string `json:"actor_id"`
	Action  string `json:"action"`
	Note    string `json:"note,omitempty"`
	At      string `json:"at"`
}

func toAuditDTOs(recs []engine.AuditRecord) []AuditRecordDTO {
	dtos := make([]AuditRecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = AuditRecordDTO{
			ID:      rec.ID,
			ActorID: rec.ActorID,
			Action:  string(rec.Action),
			Note:    rec.Note,
			At:      rec.At.Format(time.RFC3339),
		}
	}
	return dtos
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatOptTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
