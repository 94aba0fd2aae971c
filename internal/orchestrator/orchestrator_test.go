package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
	"bloodbank/internal/ratelimit"
)

type fakeLimiter struct {
	result  ratelimit.Result
	err     error
	admits  int
	clients []string
}

func (f *fakeLimiter) Admit(_ context.Context, clientID string) (ratelimit.Result, error) {
	f.admits++
	f.clients = append(f.clients, clientID)
	return f.result, f.err
}

type fakeWorkflow struct {
	calls []string
	err   error
}

func (f *fakeWorkflow) ApproveRequest(_ context.Context, id string) error {
	f.calls = append(f.calls, "approve-request:"+id)
	return f.err
}

func (f *fakeWorkflow) RejectRequest(_ context.Context, id string) error {
	f.calls = append(f.calls, "reject-request:"+id)
	return f.err
}

func (f *fakeWorkflow) ApproveDonation(_ context.Context, id string) error {
	f.calls = append(f.calls, "approve-donation:"+id)
	return f.err
}

func (f *fakeWorkflow) RejectDonation(_ context.Context, id string) error {
	f.calls = append(f.calls, "reject-donation:"+id)
	return f.err
}

func TestHandleApproval_AdmittedDispatchesByKind(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true}}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow)
	ctx := context.Background()

	require.NoError(t, orch.HandleApproval(ctx, "client-a", domain.KindRequest, "req-1"))
	require.NoError(t, orch.HandleApproval(ctx, "client-a", domain.KindDonation, "don-1"))

	require.Equal(t, []string{"approve-request:req-1", "approve-donation:don-1"}, workflow.calls)
	require.Equal(t, 2, limiter.admits)
	require.Equal(t, []string{"client-a", "client-a"}, limiter.clients)
}

func TestHandleApproval_RefusedNeverReachesWorkflow(t *testing.T) {
	resetAt := time.Now().Add(42 * time.Second)
	limiter := &fakeLimiter{result: ratelimit.Result{
		Allowed:    false,
		Limit:      5,
		ResetAt:    resetAt,
		RetryAfter: 42 * time.Second,
	}}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow)

	err := orch.HandleApproval(context.Background(), "client-a", domain.KindRequest, "req-1")

	var limited *domain.RateLimitedError
	require.ErrorAs(t, err, &limited)
	require.Equal(t, 5, limited.Limit)
	require.Equal(t, resetAt, limited.ResetAt)
	require.Equal(t, 42*time.Second, limited.RetryAfter)
	require.Empty(t, workflow.calls)
}

func TestHandleApproval_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow)

	err := orch.HandleApproval(context.Background(), "client-a", domain.KindRequest, "req-1")

	require.NoError(t, err)
	require.Equal(t, []string{"approve-request:req-1"}, workflow.calls)
}

func TestHandleApproval_DisabledSkipsLimiter(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: false}}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow, WithDisabled(true))

	err := orch.HandleApproval(context.Background(), "client-a", domain.KindRequest, "req-1")

	require.NoError(t, err)
	require.Equal(t, 0, limiter.admits)
	require.Equal(t, []string{"approve-request:req-1"}, workflow.calls)
}

func TestHandleApproval_WorkflowErrorPropagates(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true}}
	workflowErr := &domain.NotFoundError{Kind: domain.KindRequest, ID: "req-1"}
	workflow := &fakeWorkflow{err: workflowErr}
	orch := New(limiter, workflow)

	err := orch.HandleApproval(context.Background(), "client-a", domain.KindRequest, "req-1")

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHandleApproval_UnknownKind(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true}}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow)

	err := orch.HandleApproval(context.Background(), "client-a", domain.EntityKind("bogus"), "x")

	require.Error(t, err)
	require.Empty(t, workflow.calls)
}

func TestHandleRejection_IsNotRateLimited(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: false}}
	workflow := &fakeWorkflow{}
	orch := New(limiter, workflow)
	ctx := context.Background()

	require.NoError(t, orch.HandleRejection(ctx, domain.KindRequest, "req-1"))
	require.NoError(t, orch.HandleRejection(ctx, domain.KindDonation, "don-1"))

	require.Equal(t, 0, limiter.admits)
	require.Equal(t, []string{"reject-request:req-1", "reject-donation:don-1"}, workflow.calls)
}
