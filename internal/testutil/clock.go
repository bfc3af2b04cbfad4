// Package testutil provides deterministic test doubles and workflow
// builders shared by the engine, scheduler, and harness tests.
package testutil

import (
	"context"
	"sync"
	"time"
)

// Clock is a deterministic engine clock: frozen wall time, scripted
// random values, and instant sleeps that advance the frozen time instead
// of blocking.
//
// Random values are queued with QueueInt/QueueFloat; an empty queue
// returns the low bound (RandInt) or 0 (RandFloat) so unscripted tests
// stay deterministic too.
//
// Thread-safety: all methods are safe for concurrent use.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	ints   []int
	floats []float64
	slept  []time.Duration
}

// NewClock creates a clock frozen at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetNow moves the frozen time.
func (c *Clock) SetNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the frozen time forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// QueueInt scripts the next RandInt results.
func (c *Clock) QueueInt(vals ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ints = append(c.ints, vals...)
}

// QueueFloat scripts the next RandFloat results.
func (c *Clock) QueueFloat(vals ...float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.floats = append(c.floats, vals...)
}

// RandInt pops the next scripted value, clamped into [lo, hi]. An empty
// queue returns lo.
func (c *Clock) RandInt(lo, hi int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ints) == 0 {
		return lo
	}
	v := c.ints[0]
	c.ints = c.ints[1:]
	if v < lo {
		v = lo
	}
	if v > hi && hi >= lo {
		v = hi
	}
	return v
}

// RandFloat pops the next scripted value. An empty queue returns 0.
func (c *Clock) RandFloat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.floats) == 0 {
		return 0
	}
	v := c.floats[0]
	c.floats = c.floats[1:]
	return v
}

// Sleep records the requested duration and advances the frozen time,
// returning immediately.
func (c *Clock) Sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

// Slept returns the recorded sleep durations in order.
func (c *Clock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}
