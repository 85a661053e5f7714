/*
deadline.go - Compliance deadline classification and statistics

PURPOSE:
  Pure read/derive component over ComplianceDeadline records and a
  reference clock. Partitions deadlines into met/overdue/pending and
  computes aggregate statistics for reporting.

CLASSIFICATION:
  met      IsMet
  overdue  !IsMet && DeadlineDate < now
  pending  !IsMet && DeadlineDate >= now

STATISTICS:
  completionRate        met / total * 100, 2dp, 0 when total == 0
  overdueRate           overdue / total * 100, 2dp, 0 when total == 0
  averageCompletionDays mean of (UpdatedAt - DeadlineDate) in days over met
                        deadlines where the value is non-negative; negative
                        values are excluded from the average. Asymmetric on
                        purpose - keep the behavior, it is what reports are
                        calibrated against.

The classification helpers never mutate a deadline. Flipping IsMet goes
through DeadlineStore.MarkMet, which flips exactly once.
*/
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeadlinePartition groups deadlines by derived status at a reference clock.
type DeadlinePartition struct {
	Met     []*ComplianceDeadline
	Overdue []*ComplianceDeadline
	Pending []*ComplianceDeadline
}

// PartitionDeadlines classifies deadlines against now.
func PartitionDeadlines(now time.Time, deadlines []*ComplianceDeadline) DeadlinePartition {
	var p DeadlinePartition
	for _, d := range deadlines {
		switch {
		case d.IsMet:
			p.Met = append(p.Met, d)
		case d.IsOverdue(now):
			p.Overdue = append(p.Overdue, d)
		default:
			p.Pending = append(p.Pending, d)
		}
	}
	return p
}

// DeadlineStats is the aggregate view used by compliance reports.
type DeadlineStats struct {
	Total   int
	Met     int
	Overdue int
	Pending int

	CompletionRate        decimal.Decimal
	OverdueRate           decimal.Decimal
	AverageCompletionDays decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ComputeDeadlineStats derives counts, rates, and the average completion
// lag from a deadline collection at now.
func ComputeDeadlineStats(now time.Time, deadlines []*ComplianceDeadline) DeadlineStats {
	p := PartitionDeadlines(now, deadlines)

	stats := DeadlineStats{
		Total:   len(deadlines),
		Met:     len(p.Met),
		Overdue: len(p.Overdue),
		Pending: len(p.Pending),
	}

	if stats.Total > 0 {
		total := decimal.NewFromInt(int64(stats.Total))
		stats.CompletionRate = decimal.NewFromInt(int64(stats.Met)).Div(total).Mul(oneHundred).Round(2)
		stats.OverdueRate = decimal.NewFromInt(int64(stats.Overdue)).Div(total).Mul(oneHundred).Round(2)
	}

	stats.AverageCompletionDays = averageCompletionDays(p.Met)
	return stats
}

func averageCompletionDays(met []*ComplianceDeadline) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, d := range met {
		days := decimal.NewFromFloat(d.UpdatedAt.Sub(d.DeadlineDate).Hours() / 24)
		if days.IsNegative() {
			continue
		}
		sum = sum.Add(days)
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// =============================================================================
// TRACKER - Service over the deadline store
// =============================================================================

// DeadlineTracker wires the pure classification onto a DeadlineStore for
// callers that want the store round-trip handled, plus the two write
// paths a deadline has (create, mark met).
type DeadlineTracker struct {
	Store DeadlineStore
	Clock Clock
}

func NewDeadlineTracker(store DeadlineStore, clock Clock) *DeadlineTracker {
	return &DeadlineTracker{Store: store, Clock: clock}
}

// Get returns the deadline or NotFound.
func (t *DeadlineTracker) Get(ctx context.Context, id DeadlineID) (*ComplianceDeadline, error) {
	d, err := t.Store.GetDeadline(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &NotFoundError{Kind: "deadline", ID: string(id)}
	}
	return d, nil
}

// List returns deadlines matching the filter.
func (t *DeadlineTracker) List(ctx context.Context, f DeadlineFilter) ([]*ComplianceDeadline, error) {
	return t.Store.ListDeadlines(ctx, f)
}

// Partition classifies the matching deadlines at the tracker's clock.
func (t *DeadlineTracker) Partition(ctx context.Context, f DeadlineFilter) (DeadlinePartition, error) {
	deadlines, err := t.Store.ListDeadlines(ctx, f)
	if err != nil {
		return DeadlinePartition{}, err
	}
	return PartitionDeadlines(t.Clock.Now(), deadlines), nil
}

// Stats computes aggregate statistics for the matching deadlines.
func (t *DeadlineTracker) Stats(ctx context.Context, f DeadlineFilter) (DeadlineStats, error) {
	deadlines, err := t.Store.ListDeadlines(ctx, f)
	if err != nil {
		return DeadlineStats{}, err
	}
	return ComputeDeadlineStats(t.Clock.Now(), deadlines), nil
}

// CreateDeadlineInput schedules a new obligation for a provider.
type CreateDeadlineInput struct {
	ProviderID   ProviderID
	DeadlineType string
	DeadlineDate time.Time
}

// Create persists a new unmet deadline.
func (t *DeadlineTracker) Create(ctx context.Context, in CreateDeadlineInput) (*ComplianceDeadline, error) {
	now := t.Clock.Now()
	d := &ComplianceDeadline{
		ID:           DeadlineID(uuid.NewString()),
		ProviderID:   in.ProviderID,
		DeadlineType: in.DeadlineType,
		DeadlineDate: in.DeadlineDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := t.Store.SaveDeadline(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// MarkMet records that the triggering artifact was completed. Idempotent:
// a deadline already met keeps its original MetAt.
func (t *DeadlineTracker) MarkMet(ctx context.Context, id DeadlineID) (*ComplianceDeadline, error) {
	return t.Store.MarkMet(ctx, id, t.Clock.Now())
}
