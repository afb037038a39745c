package mock

import (
	"sync"
	"time"
)

// Clock provides the current time. Components take a func() time.Time; use
// NowFunc to pass a Clock to them.
type Clock interface {
	// Now returns the current time according to this clock
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock implements Clock with a controllable time value so token expiry
// can be simulated without waiting.
type FakeClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFakeClock creates a fake clock initialized to the given time.
// If t is zero, the clock is initialized to the current time.
func NewFakeClock(t time.Time) *FakeClock {
	if t.IsZero() {
		t = time.Now()
	}
	return &FakeClock{current: t}
}

// Now returns the current time according to this clock.
func (c *FakeClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves the clock forward by the given duration.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to a specific time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// NowFunc adapts a Clock to the func() time.Time form used by WithClock
// options.
func NowFunc(c Clock) func() time.Time {
	return c.Now
}
