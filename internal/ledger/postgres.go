package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodbank/internal/domain"
	"bloodbank/internal/platform/metrics"
)

// PostgresLedger persists stock balances in a single table. Debit is one
// conditional UPDATE, so the check and the decrement cannot be torn apart by
// a concurrent writer; the database serializes writers per row, which is per
// blood group.
type PostgresLedger struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// PostgresOption configures a PostgresLedger.
type PostgresOption func(*PostgresLedger)

// WithPostgresMetrics wires the stock gauge.
func WithPostgresMetrics(m *metrics.Metrics) PostgresOption {
	return func(l *PostgresLedger) {
		l.metrics = m
	}
}

// NewPostgresLedger creates a postgres-backed ledger.
func NewPostgresLedger(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresLedger {
	l := &PostgresLedger{pool: pool}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Migrate creates the stock table and seeds a zero-balance row per group.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS blood_stock (
	bloodgroup TEXT PRIMARY KEY,
	units      INTEGER NOT NULL DEFAULT 0 CHECK (units >= 0)
)`
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create blood_stock: %w", err)
	}
	for _, g := range domain.AllBloodGroups {
		if err := l.Initialize(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (l *PostgresLedger) Available(ctx context.Context, group domain.BloodGroup) (int, error) {
	if !group.IsValid() {
		return 0, domain.ErrUnknownBloodGroup
	}
	var units int
	err := l.pool.QueryRow(ctx,
		`SELECT units FROM blood_stock WHERE bloodgroup = $1`, group.String(),
	).Scan(&units)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return units, nil
}

func (l *PostgresLedger) Debit(ctx context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return domain.ErrInvalidUnits
	}
	if !group.IsValid() {
		return domain.ErrUnknownBloodGroup
	}

	var remaining int
	err := l.pool.QueryRow(ctx, `
UPDATE blood_stock
SET units = units - $2
WHERE bloodgroup = $1 AND units >= $2
RETURNING units`, group.String(), units,
	).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Condition failed or row missing; report the real balance.
		available, availErr := l.Available(ctx, group)
		if availErr != nil {
			return availErr
		}
		return &domain.InsufficientStockError{
			Group:     group,
			Requested: units,
			Available: available,
		}
	}
	if err != nil {
		return fmt.Errorf("debit stock: %w", err)
	}

	l.metrics.SetStockUnits(group.String(), remaining)
	return nil
}

func (l *PostgresLedger) Credit(ctx context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return domain.ErrInvalidUnits
	}
	if !group.IsValid() {
		return domain.ErrUnknownBloodGroup
	}

	var balance int
	err := l.pool.QueryRow(ctx, `
INSERT INTO blood_stock (bloodgroup, units)
VALUES ($1, $2)
ON CONFLICT (bloodgroup) DO UPDATE SET units = blood_stock.units + EXCLUDED.units
RETURNING units`, group.String(), units,
	).Scan(&balance)
	if err != nil {
		return fmt.Errorf("credit stock: %w", err)
	}

	l.metrics.SetStockUnits(group.String(), balance)
	return nil
}

func (l *PostgresLedger) Initialize(ctx context.Context, group domain.BloodGroup) error {
	if !group.IsValid() {
		return domain.ErrUnknownBloodGroup
	}
	_, err := l.pool.Exec(ctx, `
INSERT INTO blood_stock (bloodgroup, units)
VALUES ($1, 0)
ON CONFLICT (bloodgroup) DO NOTHING`, group.String())
	if err != nil {
		return fmt.Errorf("initialize stock: %w", err)
	}
	return nil
}

func (l *PostgresLedger) SetUnits(ctx context.Context, group domain.BloodGroup, units int) error {
	if units < 0 {
		return domain.ErrNegativeUnits
	}
	if !group.IsValid() {
		return domain.ErrUnknownBloodGroup
	}
	_, err := l.pool.Exec(ctx, `
INSERT INTO blood_stock (bloodgroup, units)
VALUES ($1, $2)
ON CONFLICT (bloodgroup) DO UPDATE SET units = EXCLUDED.units`, group.String(), units)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	l.metrics.SetStockUnits(group.String(), units)
	return nil
}

func (l *PostgresLedger) Snapshot(ctx context.Context) (map[domain.BloodGroup]int, error) {
	rows, err := l.pool.Query(ctx, `SELECT bloodgroup, units FROM blood_stock`)
	if err != nil {
		return nil, fmt.Errorf("snapshot stock: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[domain.BloodGroup]int, len(domain.AllBloodGroups))
	for _, g := range domain.AllBloodGroups {
		snapshot[g] = 0
	}
	for rows.Next() {
		var raw string
		var units int
		if err := rows.Scan(&raw, &units); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		snapshot[domain.BloodGroup(raw)] = units
	}
	return snapshot, rows.Err()
}

func (l *PostgresLedger) TotalUnits(ctx context.Context) (int, error) {
	var total int
	err := l.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(units), 0) FROM blood_stock`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}
