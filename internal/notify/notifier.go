package notify

import (
	"context"
	"log/slog"
	"time"

	"bloodbank/internal/domain"
)

// Outcome of a finalization, as carried on notification events.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Event describes one finalized request or donation.
type Event struct {
	Kind       domain.EntityKind `json:"kind"`
	EntityID   string            `json:"entity_id"`
	BloodGroup domain.BloodGroup `json:"bloodgroup"`
	Units      int               `json:"units"`
	Outcome    Outcome           `json:"outcome"`
	At         time.Time         `json:"at"`
}

// Sink delivers one event to its destination.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// Publisher is the narrow emit-side contract services depend on.
type Publisher interface {
	Emit(ev Event)
}

const defaultBuffer = 256

// Notifier fans finalization events out to a sink from a background worker.
// Emission never blocks the approval path: a full inbox drops the event with
// a warning.
type Notifier struct {
	inbox  chan Event
	sink   Sink
	logger *slog.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithBuffer overrides the inbox capacity.
func WithBuffer(n int) NotifierOption {
	return func(nt *Notifier) {
		if n > 0 {
			nt.inbox = make(chan Event, n)
		}
	}
}

// New creates a Notifier draining into the given sink.
func New(sink Sink, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		inbox:  make(chan Event, defaultBuffer),
		sink:   sink,
		logger: logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Emit enqueues an event for delivery.
func (n *Notifier) Emit(ev Event) {
	select {
	case n.inbox <- ev:
	default:
		n.logger.Warn("notification inbox full, dropping event",
			"kind", ev.Kind, "entity_id", ev.EntityID, "outcome", ev.Outcome)
	}
}

// Run consumes events until ctx is cancelled. Delivery failures are logged
// and skipped; a notification is never worth failing an approval over.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-n.inbox:
			if err := n.sink.Deliver(ctx, ev); err != nil {
				n.logger.Error("failed to deliver notification",
					"kind", ev.Kind, "entity_id", ev.EntityID, "error", err.Error())
			}
		}
	}
}

// LogSink writes events to the structured log. Default sink when no broker
// is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, ev Event) error {
	s.logger.Info("finalization",
		"kind", ev.Kind,
		"entity_id", ev.EntityID,
		"bloodgroup", ev.BloodGroup,
		"units", ev.Units,
		"outcome", ev.Outcome,
		"at", ev.At,
	)
	return nil
}

// NopPublisher discards events; used where no notifier is wired.
type NopPublisher struct{}

func (NopPublisher) Emit(Event) {}
