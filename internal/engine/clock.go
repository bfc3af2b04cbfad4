package engine

import (
	"context"
	"math/rand"
	"time"
)

// Clock supplies wall time, randomness, and delay to the engine. The
// indirection exists so time_range/weekday/cooldown conditions, random
// conditions, {random} templates, and delay nodes are deterministic and
// instant under test.
type Clock interface {
	// Now returns the current wall time.
	Now() time.Time

	// RandInt returns a uniform random integer in [lo, hi]. lo > hi
	// returns lo.
	RandInt(lo, hi int) int

	// RandFloat returns a uniform random float in [0, 1).
	RandFloat() float64

	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

// SystemClock is the production Clock: real time, math/rand, real sleeps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) RandInt(lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}

func (SystemClock) RandFloat() float64 { return rand.Float64() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
