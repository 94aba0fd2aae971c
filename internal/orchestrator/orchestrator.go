package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bloodbank/internal/domain"
	"bloodbank/internal/platform/metrics"
	"bloodbank/internal/ratelimit"
)

// Workflow is the slice of the approval service the orchestrator drives.
type Workflow interface {
	ApproveRequest(ctx context.Context, id string) error
	RejectRequest(ctx context.Context, id string) error
	ApproveDonation(ctx context.Context, id string) error
	RejectDonation(ctx context.Context, id string) error
}

// Orchestrator gates approval commands behind the rate limiter and then
// dispatches to the workflow. Purely sequential composition: the workflow
// call is itself atomic, so no compensation logic exists here.
type Orchestrator struct {
	limiter  ratelimit.Limiter
	workflow Workflow
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	disabled bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithDisabled bypasses rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(o *Orchestrator) {
		o.disabled = disabled
	}
}

// New creates an orchestrator.
func New(limiter ratelimit.Limiter, workflow Workflow, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		limiter:  limiter,
		workflow: workflow,
		logger:   slog.Default(),
		tracer:   otel.Tracer("bloodbank/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleApproval admits the client and approves the entity. When admission
// is refused the workflow is never called and the caller gets a typed
// RateLimitedError carrying the retry hint.
func (o *Orchestrator) HandleApproval(ctx context.Context, clientID string, kind domain.EntityKind, id string) error {
	ctx, span := o.tracer.Start(ctx, "approval.handle",
		trace.WithAttributes(
			attribute.String("entity.kind", kind.String()),
			attribute.String("entity.id", id),
		))
	defer span.End()

	if !o.disabled {
		result, err := o.limiter.Admit(ctx, clientID)
		if err != nil {
			// Fail open: a broken limiter must not take the approval
			// path down with it.
			o.logger.Error("rate limiter check failed", "client_id", clientID, "error", err.Error())
		} else if !result.Allowed {
			o.metrics.RecordRateLimited()
			span.SetAttributes(attribute.Bool("rate_limited", true))
			return &domain.RateLimitedError{
				Limit:      result.Limit,
				ResetAt:    result.ResetAt,
				RetryAfter: result.RetryAfter,
			}
		} else {
			o.metrics.RecordAdmission()
		}
	}

	switch kind {
	case domain.KindRequest:
		return o.workflow.ApproveRequest(ctx, id)
	case domain.KindDonation:
		return o.workflow.ApproveDonation(ctx, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

// HandleRejection finalizes an entity as Rejected. Not rate limited:
// rejection never contends for scarce stock.
func (o *Orchestrator) HandleRejection(ctx context.Context, kind domain.EntityKind, id string) error {
	ctx, span := o.tracer.Start(ctx, "rejection.handle",
		trace.WithAttributes(
			attribute.String("entity.kind", kind.String()),
			attribute.String("entity.id", id),
		))
	defer span.End()

	switch kind {
	case domain.KindRequest:
		return o.workflow.RejectRequest(ctx, id)
	case domain.KindDonation:
		return o.workflow.RejectDonation(ctx, id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}
