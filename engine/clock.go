package engine

import "time"

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies "now" to the lifecycle services. Business logic never reads
// the wall clock directly; tests inject a fixed clock for determinism.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. For tests and replays.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// StepClock returns a sequence of instants, then keeps repeating the last
// one. Useful when a test needs distinct clock-in and clock-out times.
type StepClock struct {
	Times []time.Time
	next  int
}

func (c *StepClock) Now() time.Time {
	if len(c.Times) == 0 {
		return time.Time{}
	}
	if c.next >= len(c.Times) {
		return c.Times[len(c.Times)-1]
	}
	t := c.Times[c.next]
	c.next++
	return t
}
