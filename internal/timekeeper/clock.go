package timekeeper

import "time"

// Clock is the wall-clock seam for the session accounting engine.
// Production code injects SystemClock; tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
