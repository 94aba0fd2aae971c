package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket admits through one x/time/rate limiter per client. Buckets
// refill continuously, which smooths bursts at window boundaries; idle
// buckets are dropped after idleTTL so the map stays bounded.
type TokenBucket struct {
	mu        sync.Mutex
	entries   map[string]*bucketEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// TokenBucketOption configures a TokenBucket limiter.
type TokenBucketOption func(*TokenBucket)

// WithIdleTTL overrides how long an idle bucket survives.
func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(t *TokenBucket) {
		if d > 0 {
			t.idleTTL = d
		}
	}
}

// NewTokenBucket creates a limiter refilling rps tokens per second with the
// given burst capacity per client.
func NewTokenBucket(rps float64, burst int, opts ...TokenBucketOption) *TokenBucket {
	t := &TokenBucket{
		entries:   make(map[string]*bucketEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   15 * time.Minute,
		lastSweep: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TokenBucket) Admit(_ context.Context, clientID string) (Result, error) {
	lim := t.limiter(clientID)

	res := lim.Reserve()
	if !res.OK() {
		return Result{Allowed: false, Limit: t.burst}, nil
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return Result{
			Allowed:    false,
			Limit:      t.burst,
			Remaining:  0,
			RetryAfter: delay,
		}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     t.burst,
		Remaining: int(lim.Tokens()),
	}, nil
}

func (t *TokenBucket) limiter(clientID string) *rate.Limiter {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.idleTTL {
		cutoff := now.Add(-t.idleTTL)
		for id, e := range t.entries {
			if e.lastSeen.Before(cutoff) {
				delete(t.entries, id)
			}
		}
		t.lastSweep = now
	}

	if e, ok := t.entries[clientID]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := rate.NewLimiter(t.rps, t.burst)
	t.entries[clientID] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}
