package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether one more action is admitted for a client right now.
// Admit must be atomic per client: two concurrent calls for the last slot
// must not both succeed. Refusals never mutate anything outside the limiter.
type Limiter interface {
	Admit(ctx context.Context, clientID string) (Result, error)
}
