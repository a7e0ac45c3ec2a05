package core

import "time"

// Clock is the only view of time the scheduler has.
// Now must be monotonic; Sleep suspends the tick goroutine.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock backed by the runtime's monotonic reading
type SystemClock struct{}

// Now returns time.Now, which carries a monotonic component
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// ManualClock is a deterministic clock for tests and simulations.
// Sleep advances the clock instead of blocking.
type ManualClock struct {
	now    time.Time
	sleeps []time.Duration
}

// NewManualClock creates a ManualClock starting at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current simulated time
func (c *ManualClock) Now() time.Time {
	return c.now
}

// Sleep records d and advances the clock by it
func (c *ManualClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Advance moves the clock forward without recording a sleep.
// Callbacks use it to simulate work that takes time.
func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Sleeps returns every duration passed to Sleep, oldest first
func (c *ManualClock) Sleeps() []time.Duration {
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// BudgetFromRate converts a tick rate into the per-tick time budget
func BudgetFromRate(ticksPerSecond float64) time.Duration {
	return time.Duration(float64(time.Second) / ticksPerSecond)
}
