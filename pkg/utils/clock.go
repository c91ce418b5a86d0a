// Package utils provides shared utility types: logging, timing and
// clock abstractions used throughout resopt.
package utils

import (
	"sync"
	"time"
)

// Clock abstracts time so timing-sensitive code can be tested
// deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration

	// Sleep pauses the calling goroutine for d.
	Sleep(d time.Duration)

	// After returns a channel delivering the time after d elapses.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a ticker firing every d.
	NewTicker(d time.Duration) *time.Ticker
}

// RealClock is the production Clock backed by the time package.
type RealClock struct{}

// NewRealClock creates a RealClock.
func NewRealClock() *RealClock { return &RealClock{} }

// Now returns the current time.
func (c *RealClock) Now() time.Time { return time.Now() }

// Since returns the duration elapsed since t.
func (c *RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep pauses the calling goroutine for d.
func (c *RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// After returns a channel delivering the time after d elapses.
func (c *RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewTicker returns a ticker firing every d.
func (c *RealClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock starting at startTime.
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{now: startTime}
}

// Now returns the mock time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the duration between t and the mock time.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Sleep advances the mock time by d without blocking.
func (c *MockClock) Sleep(d time.Duration) { c.Advance(d) }

// After advances the mock time and delivers it immediately.
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.Advance(d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// NewTicker returns a real ticker; mock ticking is not modeled.
func (c *MockClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// Advance moves the mock time forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the mock time to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
