//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestKafkaSinkRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "redpandadata/redpanda:v24.1.2")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	const topic = "mintgate.sale.events.test"

	adminClient, err := kgo.NewClient(kgo.SeedBrokers(broker))
	require.NoError(t, err)
	defer adminClient.Close()
	admin := kadm.NewClient(adminClient)
	_, err = admin.CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	sink, err := NewKafkaSink([]string{broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	env := Envelope{
		Type: "TokenPurchase",
		At:   time.Now().UTC(),
		Payload: TokenPurchase{
			Purchaser:   "acct-buyer",
			Beneficiary: "acct-friend",
			Value:       1000,
			Amount:      30,
		},
	}
	require.NoError(t, sink.Write(ctx, env))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("TokenPurchase"), records[0].Key)

	var got struct {
		Type    string        `json:"type"`
		Payload TokenPurchase `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "TokenPurchase", got.Type)
	assert.Equal(t, uint64(30), got.Payload.Amount)
	assert.Equal(t, "acct-friend", got.Payload.Beneficiary)
}
