package ledger

import (
	"context"

	"bloodbank/internal/domain"
)

// Ledger is the blood stock inventory. It is the exclusive owner of every
// stock entry: balances change only through Debit, Credit, and SetUnits, and
// a balance is never negative.
//
// Debit is a single atomic check-and-decrement per blood group. Each group is
// an independent contention domain, so operations on different groups never
// block each other.
type Ledger interface {
	// Available returns the current balance for a group, never negative.
	Available(ctx context.Context, group domain.BloodGroup) (int, error)

	// Debit atomically checks available >= units and decrements. On a
	// shortfall it returns *domain.InsufficientStockError and leaves the
	// balance unchanged.
	Debit(ctx context.Context, group domain.BloodGroup, units int) error

	// Credit atomically increments the balance; it has no upper bound.
	Credit(ctx context.Context, group domain.BloodGroup, units int) error

	// Initialize idempotently creates a zero-balance entry if absent.
	Initialize(ctx context.Context, group domain.BloodGroup) error

	// SetUnits overwrites a group's balance (admin restock); units must be
	// non-negative.
	SetUnits(ctx context.Context, group domain.BloodGroup, units int) error

	// Snapshot returns the balance of every blood group.
	Snapshot(ctx context.Context) (map[domain.BloodGroup]int, error)

	// TotalUnits returns the sum of all balances.
	TotalUnits(ctx context.Context) (int, error)
}
