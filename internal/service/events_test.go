package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Twincord/internal/model"
	"Twincord/internal/repository/memory"
)

// blockingSink 一直阻塞到 ctx 结束
type blockingSink struct {
	calls atomic.Int32
}

func (b *blockingSink) Publish(ctx context.Context, _ model.ChangeEvent) error {
	b.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func startRelay(t *testing.T, r *EventRelay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestEventRelay_SlowSinkDoesNotDelayRequests(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &recorder{}
	slow := &blockingSink{}
	relay := NewEventRelay([]EventPublisher{slow, &blockingSink{}, rec}, WithSinkTimeout(time.Second))
	startRelay(t, relay)

	alice := seedUser(t, store, "alice", true)
	communities := newCommunityService(store, relay)
	messages := NewMessageService(store, store, store, relay)

	start := time.Now()
	c, err := communities.Create(ctx, CreateCommunityInput{Name: "club", CreatorID: alice.ID})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	start = time.Now()
	_, err = messages.Append(ctx, AppendMessageInput{CommunityID: c.ID, SenderID: alice.ID, Text: "hi"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	// 卡住的出口不影响其他出口
	require.Eventually(t, func() bool { return len(rec.types()) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []model.EventType{model.EventCommunityCreated, model.EventMessagePosted}, rec.types())
	require.Eventually(t, func() bool { return slow.calls.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestEventRelay_FullQueueDrops(t *testing.T) {
	relay := NewEventRelay([]EventPublisher{&recorder{}}, WithRelayBuffer(1))

	require.NoError(t, relay.Publish(context.Background(), model.ChangeEvent{Type: model.EventUserOnline}))
	assert.ErrorIs(t, relay.Publish(context.Background(), model.ChangeEvent{Type: model.EventUserOffline}), ErrRelayFull)
}

func TestEventRelay_DrainsOnShutdown(t *testing.T) {
	rec := &recorder{}
	relay := NewEventRelay([]EventPublisher{rec})
	for _, typ := range []model.EventType{model.EventUserOnline, model.EventUserOffline} {
		require.NoError(t, relay.Publish(context.Background(), model.ChangeEvent{Type: typ}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	relay.Run(ctx)

	assert.Equal(t, []model.EventType{model.EventUserOnline, model.EventUserOffline}, rec.types())
}

func TestEventRelay_NoSinks(t *testing.T) {
	relay := NewEventRelay([]EventPublisher{nil}, WithRelayBuffer(1))
	for i := 0; i < 3; i++ {
		assert.NoError(t, relay.Publish(context.Background(), model.ChangeEvent{Type: model.EventUserOnline}))
	}
}
