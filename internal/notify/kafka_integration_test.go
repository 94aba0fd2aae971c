//go:build integration

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodbank/internal/domain"
	"bloodbank/pkg/testutil/containers"
)

func TestKafkaSink_DeliversEvent(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	const topic = "bloodbank.approvals.test"

	sink, err := NewKafkaSink([]string{rp.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	at := time.Now().UTC().Truncate(time.Millisecond)
	ev := Event{
		Kind:       domain.KindRequest,
		EntityID:   "req-1",
		BloodGroup: domain.OPositive,
		Units:      2,
		Outcome:    OutcomeApproved,
		At:         at,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sink.Deliver(ctx, ev))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "req-1", string(records[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, ev.Kind, got.Kind)
	require.Equal(t, ev.EntityID, got.EntityID)
	require.Equal(t, ev.BloodGroup, got.BloodGroup)
	require.Equal(t, ev.Units, got.Units)
	require.Equal(t, ev.Outcome, got.Outcome)
	require.True(t, got.At.Equal(at))
}
