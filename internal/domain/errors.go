package domain

import (
	"errors"
	"fmt"
	"time"
)

// Validation sentinels. Stores and services return these for caller input
// errors; the transport layer maps them to 400s.
var (
	ErrInvalidUnits        = errors.New("units must be a positive integer")
	ErrUnknownBloodGroup   = errors.New("unknown blood group")
	ErrInvalidStatusFilter = errors.New("invalid status filter")
	ErrNegativeUnits       = errors.New("units cannot be negative")
)

// InsufficientStockError reports a debit that would take a partition below
// zero. The request stays Pending and may be retried after restocking.
type InsufficientStockError struct {
	Group     BloodGroup
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d units, available %d",
		e.Group, e.Requested, e.Available)
}

// NotFoundError reports an unknown request or donation id.
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id=%s)", e.Kind, e.ID)
}

// AlreadyFinalizedError reports a duplicate or late approve/reject command
// against an entity that already reached a terminal state. The original
// application of the command is unaffected.
type AlreadyFinalizedError struct {
	Kind   EntityKind
	ID     string
	Status Status
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("%s %s already finalized (status=%s)", e.Kind, e.ID, e.Status)
}

// RateLimitedError reports a refused admission. RetryAfter carries the hint
// derived from the limiter's window, zero when no recommendation exists.
// Limit and ResetAt feed the X-RateLimit response headers.
type RateLimitedError struct {
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}
