package ledger

import (
	"context"
	"sync"

	"bloodbank/internal/domain"
	"bloodbank/internal/platform/metrics"
)

// InMemoryLedger keeps one mutex-guarded counter per blood group. The
// partition map is built once at construction over the closed enumeration, so
// lookups never need a map-level lock and groups never contend with each
// other.
type InMemoryLedger struct {
	partitions map[domain.BloodGroup]*partition
	metrics    *metrics.Metrics
}

type partition struct {
	mu    sync.Mutex
	units int
}

// Option configures an InMemoryLedger.
type Option func(*InMemoryLedger)

// WithMetrics wires the stock gauge; it is updated inside every mutation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *InMemoryLedger) {
		l.metrics = m
	}
}

// NewInMemoryLedger creates a ledger with a zero balance for every group.
func NewInMemoryLedger(opts ...Option) *InMemoryLedger {
	l := &InMemoryLedger{
		partitions: make(map[domain.BloodGroup]*partition, len(domain.AllBloodGroups)),
	}
	for _, g := range domain.AllBloodGroups {
		l.partitions[g] = &partition{}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemoryLedger) Available(_ context.Context, group domain.BloodGroup) (int, error) {
	p, err := l.partition(group)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.units, nil
}

func (l *InMemoryLedger) Debit(_ context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return domain.ErrInvalidUnits
	}
	p, err := l.partition(group)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.units < units {
		return &domain.InsufficientStockError{
			Group:     group,
			Requested: units,
			Available: p.units,
		}
	}
	p.units -= units
	l.metrics.SetStockUnits(group.String(), p.units)
	return nil
}

func (l *InMemoryLedger) Credit(_ context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return domain.ErrInvalidUnits
	}
	p, err := l.partition(group)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.units += units
	l.metrics.SetStockUnits(group.String(), p.units)
	return nil
}

// Initialize is a no-op beyond validation: every partition exists from
// construction with a zero balance.
func (l *InMemoryLedger) Initialize(_ context.Context, group domain.BloodGroup) error {
	_, err := l.partition(group)
	return err
}

func (l *InMemoryLedger) SetUnits(_ context.Context, group domain.BloodGroup, units int) error {
	if units < 0 {
		return domain.ErrNegativeUnits
	}
	p, err := l.partition(group)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.units = units
	l.metrics.SetStockUnits(group.String(), p.units)
	return nil
}

func (l *InMemoryLedger) Snapshot(_ context.Context) (map[domain.BloodGroup]int, error) {
	snapshot := make(map[domain.BloodGroup]int, len(l.partitions))
	for g, p := range l.partitions {
		p.mu.Lock()
		snapshot[g] = p.units
		p.mu.Unlock()
	}
	return snapshot, nil
}

func (l *InMemoryLedger) TotalUnits(ctx context.Context) (int, error) {
	snapshot, err := l.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, units := range snapshot {
		total += units
	}
	return total, nil
}

func (l *InMemoryLedger) partition(group domain.BloodGroup) (*partition, error) {
	p, ok := l.partitions[group]
	if !ok {
		return nil, domain.ErrUnknownBloodGroup
	}
	return p, nil
}
