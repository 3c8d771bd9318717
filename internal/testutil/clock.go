package testutil

import (
	"sync"
	"time"
)

// FixedClock is a manually driven wall clock for tests.
//
// Unlike clock.System, FixedClock only moves when told to, so documents
// rendered against it are byte-for-byte reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set pins the clock at t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// ReferenceTime is the instant used by golden tests:
// 2020-01-15 10:30:00 in UTC-03:00.
func ReferenceTime() time.Time {
	return time.Date(2020, time.January, 15, 10, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
}
