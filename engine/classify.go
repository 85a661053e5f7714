/*
classify.go - Duration classification for a single work interval

PURPOSE:
  Pure function converting a clock-in/clock-out pair (with an optional
  break interval) into total/regular/evening/weekend hour buckets. No side
  effects, no I/O, no wall-clock reads; identical inputs always yield
  identical output.

CLASSIFICATION RULES:
  total:   elapsed work span minus elapsed break, in hours, 2dp, >= 0
  regular: equal to total for a single entry. The regular/overtime split
           happens only when aggregating entries across a pay period, which
           is a deliberate boundary outside this engine.
  evening: the portion of the work interval at or after 18:00 of the
           entry's day, minus the break portion falling in that window
  weekend: equal to total when clock-in falls on Saturday or Sunday,
           regardless of time of day; 0 otherwise

  Evening and weekend are NOT mutually exclusive. A Saturday evening shift
  reports full hours in both buckets; downstream differentials apply per
  bucket. Deliberate accounting convention, do not "fix".

PRECONDITIONS:
  - clockOut strictly after clockIn, on the same calendar day. Sessions
    spanning midnight are rejected (CrossMidnightError); a multi-day split
    is deliberately unspecified.
  - break fields come both-or-neither, with breakEnd strictly after
    breakStart. A break lying (partly) outside the work span is accepted:
    the math clamps each bucket at zero rather than rejecting, so a
    malformed break can understate but never produce negative hours.

SEE ALSO:
  - entry.go: invokes Classify on clock-out and break edits
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// EveningStartHour is the local hour at which evening differential begins.
const EveningStartHour = 18

// ValidateBreak enforces the break contract: both ends set or both nil,
// with breakEnd strictly after breakStart. Open entries never reach
// Classify, so their write paths call this directly.
func ValidateBreak(breakStart, breakEnd *time.Time) error {
	if (breakStart == nil) != (breakEnd == nil) {
		set := breakStart
		if set == nil {
			set = breakEnd
		}
		return &InvalidTimeRangeError{Field: "break", Start: *set, End: *set}
	}
	if breakStart != nil && !breakEnd.After(*breakStart) {
		return &InvalidTimeRangeError{Field: "break", Start: *breakStart, End: *breakEnd}
	}
	return nil
}

// Classify computes the hour breakdown for a closed work interval.
// breakStart/breakEnd must be both set or both nil.
func Classify(clockIn, clockOut time.Time, breakStart, breakEnd *time.Time) (HourBreakdown, error) {
	// Evaluate the calendar day and evening window in clock-in's location.
	clockOut = clockOut.In(clockIn.Location())

	if !clockOut.After(clockIn) {
		return HourBreakdown{}, &InvalidTimeRangeError{Field: "work", Start: clockIn, End: clockOut}
	}
	if !sameDay(clockIn, clockOut) {
		return HourBreakdown{}, &CrossMidnightError{ClockIn: clockIn, ClockOut: clockOut}
	}
	if err := ValidateBreak(breakStart, breakEnd); err != nil {
		return HourBreakdown{}, err
	}

	var breakDur time.Duration
	if breakStart != nil {
		breakDur = breakEnd.Sub(*breakStart)
	}

	total := toHours(clockOut.Sub(clockIn) - breakDur)
	evening := toHours(eveningSpan(clockIn, clockOut, breakStart, breakEnd))

	weekend := decimal.Zero
	if wd := clockIn.Weekday(); wd == time.Saturday || wd == time.Sunday {
		// Full elapsed-minus-break, not time-of-day restricted.
		weekend = total
	}

	return HourBreakdown{
		Total:   total,
		Regular: total,
		Evening: evening,
		Weekend: weekend,
	}, nil
}

// eveningSpan returns the work duration falling at or after 18:00 of the
// entry's day, net of any break time in that window. Never negative.
func eveningSpan(clockIn, clockOut time.Time, breakStart, breakEnd *time.Time) time.Duration {
	eveningStart := time.Date(clockIn.Year(), clockIn.Month(), clockIn.Day(),
		EveningStartHour, 0, 0, 0, clockIn.Location())

	if !clockOut.After(eveningStart) {
		return 0
	}

	// Whole session in the evening window, or only its tail.
	start := clockIn
	if clockIn.Before(eveningStart) {
		start = eveningStart
	}

	span := clockOut.Sub(start)
	if breakStart != nil {
		span -= overlap(*breakStart, *breakEnd, start, clockOut)
	}
	if span < 0 {
		return 0
	}
	return span
}

// overlap returns the duration shared by [aStart, aEnd] and [bStart, bEnd].
func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// toHours converts a duration to decimal hours rounded to 2 places,
// clamped at zero.
func toHours(d time.Duration) decimal.Decimal {
	if d < 0 {
		d = 0
	}
	return decimal.NewFromFloat(d.Hours()).Round(2)
}
