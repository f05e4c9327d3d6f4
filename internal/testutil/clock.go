// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic time source. Each call to Now returns the
// current instant and advances it by a fixed step, so consecutive reads are
// guaranteed distinct even when the real clock would not tick between them.
//
// Used where wall-clock timestamps feed into identifiers, such as
// working-directory names.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at start, advancing by step per
// read. A zero step makes the clock return the same instant forever, which
// is useful for forcing timestamp collisions in tests.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
