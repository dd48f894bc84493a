package clock

import (
	"time"
)

// Clock is the process-wide master monotonic time source. Every logged
// event timestamp is normalized against a single Clock instance.
type Clock struct {
	start time.Time
}

// New creates a master clock anchored at the current instant. The
// time.Time it holds carries Go's monotonic reading, so Now is immune
// to wall-clock steps.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the elapsed time since the clock was created.
func (c *Clock) Now() time.Duration {
	return time.Since(c.start)
}

// Seconds returns Now as floating-point seconds, the unit used in the
// event log.
func (c *Clock) Seconds() float64 {
	return c.Now().Seconds()
}

// Start returns the wall-clock instant the master clock was anchored at.
func (c *Clock) Start() time.Time {
	return c.start
}
