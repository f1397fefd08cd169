package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSyncPublisher(t *testing.T) {
	sink := NewMemorySink()
	pub := NewSyncPublisher(sink, discardLogger())

	pub.Emit(context.Background(), TokenPurchase{
		Purchaser:   "acct-buyer",
		Beneficiary: "acct-buyer",
		Value:       100,
		Amount:      30,
	})

	envs := sink.Events(context.Background())
	require.Len(t, envs, 1)
	assert.Equal(t, "TokenPurchase", envs[0].Type)
	assert.False(t, envs[0].At.IsZero())
}

func TestChannelPublisherDelivers(t *testing.T) {
	sink := NewMemorySink()
	pub := NewChannelPublisher(8, discardLogger())
	worker := NewWorker(pub, sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	pub.Emit(ctx, PhaseAdded{Sender: "acct-owner", StartDate: 100, EndDate: 200, PriceUSDc: 1000, Cap: 50})
	pub.Emit(ctx, PhaseDeleted{Sender: "acct-owner", Index: 0})

	require.Eventually(t, func() bool {
		return len(sink.Events(ctx)) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	envs := sink.Events(context.Background())
	assert.Equal(t, "PhaseAdded", envs[0].Type)
	assert.Equal(t, "PhaseDeleted", envs[1].Type)
}

func TestChannelPublisherDropsWhenFull(t *testing.T) {
	// No worker draining: the second emit must drop, not block.
	pub := NewChannelPublisher(1, discardLogger())
	pub.Emit(context.Background(), OracleChanged{NewOracle: "http://oracle-a"})

	doneCh := make(chan struct{})
	go func() {
		pub.Emit(context.Background(), OracleChanged{NewOracle: "http://oracle-b"})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}
