package messaging

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

func newTestBus() *InMemoryEventBus {
	opts := logger.DefaultOptions()
	opts.Output = io.Discard
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode: false, // deterministic delivery in tests
		Logger:    logger.New(opts),
	})
}

func TestEventBus_DeliversToTypeSubscribers(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	var mu sync.Mutex
	var seen []shared.EventType

	err := bus.Subscribe(shared.EventPointsAwarded, shared.EventHandlerFunc(func(e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventType())
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(shared.NewPointsAwardedEvent("user-1", "org-1", 10, 10, "lesson_completed")))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2, 105)))

	assert.Equal(t, []shared.EventType{shared.EventPointsAwarded}, seen,
		"only the subscribed type is delivered")
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(shared.EventHandlerFunc(func(shared.Event) error {
		count++
		return nil
	})))

	require.NoError(t, bus.Publish(shared.NewPointsAwardedEvent("user-1", "org-1", 10, 10, "x")))
	require.NoError(t, bus.Publish(shared.NewStreakUpdatedEvent("user-1", 3, 5, false)))

	assert.Equal(t, 2, count)
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventBadgeEarned, shared.EventHandlerFunc(func(shared.Event) error {
		return assert.AnError
	})))

	err := bus.Publish(shared.NewBadgeEarnedEvent("user-1", "badge-1", "First Steps", "org-1", 25))
	assert.NoError(t, err, "subscriber failures stay on the subscriber side")
}

func TestEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newTestBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewPointsAwardedEvent("user-1", "org-1", 10, 10, "x"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventPointsAwarded, shared.EventHandlerFunc(func(shared.Event) error { return nil }))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_NilChecks(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventPointsAwarded, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}
