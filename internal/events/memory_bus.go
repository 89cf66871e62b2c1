package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/studyplanner/internal/logger"
)

const subscriberBuffer = 64

// MemoryBus fans events out to in-process subscribers.
type MemoryBus struct {
	log *logger.Logger

	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
	wg     sync.WaitGroup
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus(log *logger.Logger) *MemoryBus {
	return &MemoryBus{log: log.With("service", "MemoryBus"), subs: make(map[int]chan Event)}
}

// Publish queues ev for every subscriber. A subscriber whose queue is full
// misses the event.
func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("bus closed")
	}
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		default:
			b.log.Warn("dropping event for slow subscriber", "subscriber", id, "topic", ev.Topic, "event_id", ev.ID)
		}
	}
	return nil
}

// Subscribe registers h and delivers events to it from its own goroutine.
func (b *MemoryBus) Subscribe(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus closed")
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				b.unsubscribe(id)
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				h(ctx, ev)
			}
		}
	}()
	return nil
}

func (b *MemoryBus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Close stops all subscribers and waits for their handlers to return.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
