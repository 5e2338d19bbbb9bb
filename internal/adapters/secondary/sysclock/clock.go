// Package sysclock adapts the system wall clock to the ports.Clock interface.
package sysclock

import "time"

// Clock reads the system wall clock.
type Clock struct{}

// New creates a system clock adapter.
func New() *Clock {
	return &Clock{}
}

// Now returns the current system time.
func (c *Clock) Now() time.Time {
	return time.Now()
}
