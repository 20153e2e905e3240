package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by the controller. Every timing decision
// (cooldowns, scroll-end deadlines, stuck animation detection) reads Now()
// from here so tests can drive time explicitly.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock.
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a manual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the clock forward by d and returns the new time
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// Set jumps the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// OrReal returns c, or the real clock when c is nil
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
