package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

func TestInMemoryLedger_StartsEmpty(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	for _, g := range domain.AllBloodGroups {
		units, err := l.Available(ctx, g)
		require.NoError(t, err)
		require.Equal(t, 0, units)
	}

	total, err := l.TotalUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestInMemoryLedger_CreditAndDebit(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.OPositive, 10))

	units, err := l.Available(ctx, domain.OPositive)
	require.NoError(t, err)
	require.Equal(t, 10, units)

	require.NoError(t, l.Debit(ctx, domain.OPositive, 4))

	units, err = l.Available(ctx, domain.OPositive)
	require.NoError(t, err)
	require.Equal(t, 6, units)
}

func TestInMemoryLedger_DebitInsufficientStock(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.ANegative, 3))

	err := l.Debit(ctx, domain.ANegative, 5)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, domain.ANegative, insufficient.Group)
	require.Equal(t, 5, insufficient.Requested)
	require.Equal(t, 3, insufficient.Available)

	// A refused debit must not touch the balance.
	units, err := l.Available(ctx, domain.ANegative)
	require.NoError(t, err)
	require.Equal(t, 3, units)
}

func TestInMemoryLedger_DebitEntireBalance(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.BPositive, 7))
	require.NoError(t, l.Debit(ctx, domain.BPositive, 7))

	units, err := l.Available(ctx, domain.BPositive)
	require.NoError(t, err)
	require.Equal(t, 0, units)
}

func TestInMemoryLedger_InvalidUnits(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.ErrorIs(t, l.Debit(ctx, domain.OPositive, 0), domain.ErrInvalidUnits)
	require.ErrorIs(t, l.Debit(ctx, domain.OPositive, -1), domain.ErrInvalidUnits)
	require.ErrorIs(t, l.Credit(ctx, domain.OPositive, 0), domain.ErrInvalidUnits)
	require.ErrorIs(t, l.Credit(ctx, domain.OPositive, -3), domain.ErrInvalidUnits)
	require.ErrorIs(t, l.SetUnits(ctx, domain.OPositive, -1), domain.ErrNegativeUnits)
}

func TestInMemoryLedger_UnknownGroup(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	_, err := l.Available(ctx, domain.BloodGroup("C+"))
	require.ErrorIs(t, err, domain.ErrUnknownBloodGroup)
	require.ErrorIs(t, l.Debit(ctx, domain.BloodGroup("C+"), 1), domain.ErrUnknownBloodGroup)
	require.ErrorIs(t, l.Credit(ctx, domain.BloodGroup(""), 1), domain.ErrUnknownBloodGroup)
	require.ErrorIs(t, l.Initialize(ctx, domain.BloodGroup("o+")), domain.ErrUnknownBloodGroup)
}

func TestInMemoryLedger_SetUnits(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.ABPositive, 12))
	require.NoError(t, l.SetUnits(ctx, domain.ABPositive, 2))

	units, err := l.Available(ctx, domain.ABPositive)
	require.NoError(t, err)
	require.Equal(t, 2, units)

	require.NoError(t, l.SetUnits(ctx, domain.ABPositive, 0))
	units, err = l.Available(ctx, domain.ABPositive)
	require.NoError(t, err)
	require.Equal(t, 0, units)
}

func TestInMemoryLedger_GroupsAreIndependent(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.OPositive, 5))
	require.NoError(t, l.Credit(ctx, domain.ONegative, 2))
	require.NoError(t, l.Debit(ctx, domain.OPositive, 5))

	units, err := l.Available(ctx, domain.ONegative)
	require.NoError(t, err)
	require.Equal(t, 2, units)
}

func TestInMemoryLedger_Snapshot(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, domain.APositive, 4))
	require.NoError(t, l.Credit(ctx, domain.ONegative, 1))

	snapshot, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, len(domain.AllBloodGroups))
	require.Equal(t, 4, snapshot[domain.APositive])
	require.Equal(t, 1, snapshot[domain.ONegative])
	require.Equal(t, 0, snapshot[domain.BNegative])

	total, err := l.TotalUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, total)
}

func TestInMemoryLedger_ConcurrentDebitsNeverOversell(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.SetUnits(ctx, domain.OPositive, 2))

	// Two units on hand, two concurrent two-unit debits: exactly one may win.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Debit(ctx, domain.OPositive, 2)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
	}
	require.Equal(t, 1, succeeded)

	units, err := l.Available(ctx, domain.OPositive)
	require.NoError(t, err)
	require.Equal(t, 0, units)
}

func TestInMemoryLedger_ConcurrentMixedTrafficConservesUnits(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	const workers = 16
	const rounds = 50

	require.NoError(t, l.SetUnits(ctx, domain.ABNegative, workers*rounds))

	var wg sync.WaitGroup
	var debits, credits int64
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if w%2 == 0 {
					if err := l.Debit(ctx, domain.ABNegative, 1); err == nil {
						mu.Lock()
						debits++
						mu.Unlock()
					} else {
						var insufficient *domain.InsufficientStockError
						if !errors.As(err, &insufficient) {
							t.Errorf("unexpected debit error: %v", err)
						}
					}
				} else {
					if err := l.Credit(ctx, domain.ABNegative, 1); err == nil {
						mu.Lock()
						credits++
						mu.Unlock()
					} else {
						t.Errorf("unexpected credit error: %v", err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	units, err := l.Available(ctx, domain.ABNegative)
	require.NoError(t, err)
	require.Equal(t, workers*rounds+int(credits)-int(debits), units)
	require.GreaterOrEqual(t, units, 0)
}
