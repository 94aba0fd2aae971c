package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bloodbank/internal/domain"
)

type capturingSink struct {
	mu        sync.Mutex
	delivered []Event
	failFor   map[string]error
}

func (s *capturingSink) Deliver(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[ev.EntityID]; err != nil {
		return err
	}
	s.delivered = append(s.delivered, ev)
	return nil
}

func (s *capturingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func (s *capturingSink) first() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered[0]
}

func testEvent(id string) Event {
	return Event{
		Kind:       domain.KindRequest,
		EntityID:   id,
		BloodGroup: domain.OPositive,
		Units:      2,
		Outcome:    OutcomeApproved,
		At:         time.Now().UTC(),
	}
}

func TestNotifier_DeliversToSink(t *testing.T) {
	sink := &capturingSink{}
	notifier := New(sink, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = notifier.Run(ctx)
	}()

	notifier.Emit(testEvent("req-1"))

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)

	ev := sink.first()
	require.Equal(t, "req-1", ev.EntityID)
	require.Equal(t, OutcomeApproved, ev.Outcome)

	cancel()
	<-done
}

func TestNotifier_RunStopsOnCancel(t *testing.T) {
	notifier := New(&capturingSink{}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := notifier.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNotifier_EmitNeverBlocksWhenFull(t *testing.T) {
	// One-slot inbox with no worker draining it.
	notifier := New(&capturingSink{}, slog.Default(), WithBuffer(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		notifier.Emit(testEvent("req-1"))
		notifier.Emit(testEvent("req-2"))
		notifier.Emit(testEvent("req-3"))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full inbox")
	}
}

func TestNotifier_DeliveryFailureDoesNotStopWorker(t *testing.T) {
	sink := &capturingSink{failFor: map[string]error{
		"req-1": errors.New("broker unavailable"),
	}}
	notifier := New(sink, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = notifier.Run(ctx)
	}()

	// The failed event is logged and skipped; the one after it still lands.
	notifier.Emit(testEvent("req-1"))
	notifier.Emit(testEvent("req-2"))

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, "req-2", sink.first().EntityID)

	cancel()
	<-done
}

func TestLogSink_Delivers(t *testing.T) {
	sink := NewLogSink(slog.Default())
	require.NoError(t, sink.Deliver(context.Background(), testEvent("req-1")))
}
