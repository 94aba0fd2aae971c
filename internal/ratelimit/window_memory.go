package ratelimit

import (
	"context"
	"sync"
	"time"

	"bloodbank/internal/clock"
)

const defaultEvictionFactor = 3

// FixedWindow is an in-memory fixed-window counter per client. Windows are
// created lazily on first use and evicted once idle longer than evictAfter,
// so the client map stays bounded under churny identities.
type FixedWindow struct {
	mu         sync.Mutex
	clients    map[string]*window
	limit      int
	window     time.Duration
	evictAfter time.Duration
	lastSweep  time.Time
	clock      clock.Clock
}

type window struct {
	count    int
	start    time.Time
	lastSeen time.Time
}

// FixedWindowOption configures a FixedWindow limiter.
type FixedWindowOption func(*FixedWindow)

// WithEvictAfter overrides how long an idle client window survives.
func WithEvictAfter(d time.Duration) FixedWindowOption {
	return func(f *FixedWindow) {
		if d > 0 {
			f.evictAfter = d
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(c clock.Clock) FixedWindowOption {
	return func(f *FixedWindow) {
		f.clock = c
	}
}

// NewFixedWindow creates a limiter admitting at most limit calls per client
// within each window of the given duration.
func NewFixedWindow(limit int, windowDuration time.Duration, opts ...FixedWindowOption) *FixedWindow {
	f := &FixedWindow{
		clients:    make(map[string]*window),
		limit:      limit,
		window:     windowDuration,
		evictAfter: defaultEvictionFactor * windowDuration,
		clock:      clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastSweep = f.clock.Now()
	return f
}

// Admit checks and increments the client's counter under one lock, so the
// read and the increment cannot interleave with another caller's.
func (f *FixedWindow) Admit(_ context.Context, clientID string) (Result, error) {
	now := f.clock.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.maybeSweep(now)

	w := f.clients[clientID]
	if w == nil {
		w = &window{start: now}
		f.clients[clientID] = w
	}
	if !now.Before(w.start.Add(f.window)) {
		w.count = 0
		w.start = now
	}
	w.lastSeen = now

	resetAt := w.start.Add(f.window)
	if w.count >= f.limit {
		return Result{
			Allowed:    false,
			Limit:      f.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     f.limit,
		Remaining: f.limit - w.count,
		ResetAt:   resetAt,
	}, nil
}

// maybeSweep drops windows idle past evictAfter. Runs at most once per
// eviction period; must be called while holding f.mu.
func (f *FixedWindow) maybeSweep(now time.Time) {
	if now.Sub(f.lastSweep) < f.evictAfter {
		return
	}
	cutoff := now.Add(-f.evictAfter)
	for id, w := range f.clients {
		if w.lastSeen.Before(cutoff) {
			delete(f.clients, id)
		}
	}
	f.lastSweep = now
}

// Size reports the number of tracked clients, for tests and introspection.
func (f *FixedWindow) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
