package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func TestPublishDeliversToSubscribedHandler(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received shared.Event
	err := bus.Subscribe(shared.EventMatchCompleted, func(e shared.Event) error {
		received = e
		return nil
	})
	require.NoError(t, err)

	event := shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "match-1"),
		WinnerID:  1,
		LoserID:   2,
	}
	require.NoError(t, bus.Publish(event))

	require.NotNil(t, received)
	assert.Equal(t, shared.EventMatchCompleted, received.EventType())
	assert.Equal(t, "match-1", received.AggregateID())
}

func TestPublishSkipsOtherEventTypes(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, func(shared.Event) error {
		calls++
		return nil
	}))

	event := shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "match-1"),
	}
	require.NoError(t, bus.Publish(event))

	assert.Zero(t, calls)
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var seen []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "m1"),
	}))
	require.NoError(t, bus.Publish(shared.ChatMessageReceivedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventChatMessageReceived, "u1"),
	}))

	assert.Equal(t, []shared.EventType{shared.EventMatchCompleted, shared.EventChatMessageReceived}, seen)
}

func TestHandlerErrorDoesNotPropagate(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventMatchCompleted, func(shared.Event) error {
		return errors.New("boom")
	}))

	err := bus.Publish(shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "m1"),
	})
	assert.NoError(t, err)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 0.0, snap.HandlerSuccessRate)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventMatchCompleted, func(shared.Event) error {
		panic("subscriber bug")
	}))

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventMatchCompleted, func(shared.Event) error {
		calls++
		return nil
	}))

	// The panicking subscriber is recorded as a failure; the publisher and
	// the remaining subscribers are unaffected.
	err := bus.Publish(shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "m1"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 0.5, snap.HandlerSuccessRate)
}

func TestAsyncPublishRunsHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		EnableMetrics:  true,
	})

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(10)

	require.NoError(t, bus.Subscribe(shared.EventRatingChanged, func(shared.Event) error {
		defer wg.Done()
		count.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.RatingChangedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventRatingChanged, "u1"),
		}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("async handlers did not finish")
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, int64(10), count.Load())
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "m1"),
	})
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventMatchCompleted, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestNilHandlerAndEventRejected(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventMatchCompleted, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}
