package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall time fixtures and step clocks start from.
var Epoch = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// StepClock is a wall clock that advances by a fixed step on every read.
//
// Engines built with a StepClock stamp timeline entries with reproducible
// times, so replays and golden traces are byte-identical across runs.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock returns a clock whose first Now() is start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start.UTC(), step: step}
}

// Now returns the current time and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
