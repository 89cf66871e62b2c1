package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplanner/internal/logger"
)

func TestNewEventEncodesPayload(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	ev, err := New(TopicProgressUpdated, 7, at, ProgressUpdated{TopicID: 3, Progress: 85})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, TopicProgressUpdated, ev.Topic)
	assert.Equal(t, int64(7), ev.UserID)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	var p ProgressUpdated
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, int64(3), p.TopicID)
	assert.Equal(t, 85, p.Progress)
}

func TestDecodeWithoutPayload(t *testing.T) {
	ev, err := New(TopicRevisionDue, 1, time.Now(), nil)
	require.NoError(t, err)
	var p RevisionDue
	assert.Error(t, ev.Decode(&p))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	defer bus.Close()
	ctx := context.Background()

	var a, b recorder
	require.NoError(t, bus.Subscribe(ctx, a.handle))
	require.NoError(t, bus.Subscribe(ctx, b.handle))

	for i := 0; i < 3; i++ {
		ev, err := New(TopicRevisionCompleted, int64(i), time.Now(), nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}

	require.Eventually(t, func() bool { return a.count() == 3 && b.count() == 3 }, time.Second, 5*time.Millisecond)
	a.mu.Lock()
	assert.Equal(t, int64(0), a.events[0].UserID)
	assert.Equal(t, int64(2), a.events[2].UserID)
	a.mu.Unlock()
}

func TestMemoryBusUnsubscribeOnCancel(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var r recorder
	require.NoError(t, bus.Subscribe(ctx, r.handle))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs) == 0
	}, time.Second, 5*time.Millisecond)

	ev, _ := New(TopicRevisionDue, 1, time.Now(), nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	assert.Zero(t, r.count())
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus(logger.Nop())
	var r recorder
	require.NoError(t, bus.Subscribe(context.Background(), r.handle))
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, _ := New(TopicRevisionDue, 1, time.Now(), nil)
	assert.Error(t, bus.Publish(context.Background(), ev))
	assert.Error(t, bus.Subscribe(context.Background(), r.handle))
}

func TestOpenWithoutRedisUsesMemory(t *testing.T) {
	bus, err := Open(context.Background(), logger.Nop(), "", "")
	require.NoError(t, err)
	defer bus.Close()
	_, ok := bus.(*MemoryBus)
	assert.True(t, ok)
}

func TestNewRedisBusValidation(t *testing.T) {
	_, err := NewRedisBus(context.Background(), nil, "localhost:6379", "")
	assert.Error(t, err)
	_, err = NewRedisBus(context.Background(), logger.Nop(), "  ", "")
	assert.Error(t, err)
}

func TestNilRedisBus(t *testing.T) {
	var b *RedisBus
	assert.Error(t, b.Publish(context.Background(), Event{}))
	assert.NoError(t, b.Close())
}
