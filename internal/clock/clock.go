// Package clock abstracts wall-clock time so document timestamps and
// credential validity checks can be pinned in tests.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System reads the local wall clock.
//
// Thread-safety: System is stateless and safe for concurrent use.
type System struct{}

// Now returns time.Now() truncated to whole seconds, the finest
// resolution any document field carries.
func (System) Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// Func adapts a plain function to Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time {
	return f()
}
