package rng

import (
	"context"
	"sync"
	"time"
)

// ClockAdapter derives seeds from the wall clock. Two calls in the same
// nanosecond still get distinct seeds.
type ClockAdapter struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClockAdapter creates a wall-clock seed source
func NewClockAdapter() *ClockAdapter {
	return &ClockAdapter{now: time.Now}
}

// NextSeed returns the current time in nanoseconds, bumped past the
// previously issued seed when the clock has not advanced.
func (a *ClockAdapter) NextSeed(ctx context.Context) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	seed := a.now().UnixNano()
	if seed <= a.last {
		seed = a.last + 1
	}
	a.last = seed
	return seed
}

// FixedAdapter always returns the same seed; used by the CLI --seed flag and tests.
type FixedAdapter struct {
	seed int64
}

// NewFixedAdapter creates a constant seed source
func NewFixedAdapter(seed int64) *FixedAdapter {
	return &FixedAdapter{seed: seed}
}

func (a *FixedAdapter) NextSeed(ctx context.Context) int64 {
	return a.seed
}
