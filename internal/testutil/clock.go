package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a wall clock for tests that advances by a fixed step
// on every reading.
//
// Session durations and stored timestamps come out identical on every run,
// so golden traces stay byte-stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// Epoch is the default start time for deterministic clocks.
var Epoch = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

// NewDeterministicClock creates a clock whose first reading is start.
// A zero start uses Epoch; a non-positive step uses one second.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = Epoch
	}
	if step <= 0 {
		step = time.Second
	}
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Now returns the current reading and advances the clock by one step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Peek returns the next reading without advancing.
func (c *DeterministicClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.ticks) * c.step)
}

// Reset rewinds the clock so the next reading is start again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
