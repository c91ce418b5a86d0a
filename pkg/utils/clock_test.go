package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockNow(t *testing.T) {
	clock := NewRealClock()
	before := time.Now()
	now := clock.Now()
	assert.False(t, now.Before(before))
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clock.Now())
	assert.Equal(t, 90*time.Second, clock.Since(start))
}

func TestMockClockSleepIsInstant(t *testing.T) {
	start := time.Now()
	clock := NewMockClock(start)

	done := time.Now()
	clock.Sleep(time.Hour)
	assert.Less(t, time.Since(done), time.Second, "mock sleep must not block")
	assert.Equal(t, start.Add(time.Hour), clock.Now())
}

func TestMockClockAfter(t *testing.T) {
	start := time.Now()
	clock := NewMockClock(start)

	select {
	case got := <-clock.After(time.Minute):
		assert.Equal(t, start.Add(time.Minute), got)
	case <-time.After(time.Second):
		t.Fatal("After never delivered")
	}
}

func TestMockClockSet(t *testing.T) {
	clock := NewMockClock(time.Now())
	pinned := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	clock.Set(pinned)
	assert.Equal(t, pinned, clock.Now())
}
