package core

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xonecas/zoea-galaxy/internal/constants"
)

type subscription struct {
	ch    chan Event
	types []EventType // empty means every type
}

func (s *subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// EventBus fans galaxy events out to subscribers. Ordinary events are
// dropped for a subscriber whose buffer is full; planet destruction waits
// for room.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	dropped    atomic.Int64
}

// NewEventBus creates an event bus whose subscriptions buffer bufferSize events.
func NewEventBus(bufferSize int) *EventBus {
	return &EventBus{bufferSize: max(bufferSize, constants.MinEventBusBufferSize)}
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given. The caller must keep reading it.
func (b *EventBus) Subscribe(types ...EventType) <-chan Event {
	sub := &subscription{
		ch:    make(chan Event, b.bufferSize),
		types: slices.Clone(types),
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.ch
}

// Unsubscribe closes and forgets a subscription.
func (b *EventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s *subscription) bool {
		if s.ch != ch {
			return false
		}
		close(s.ch)
		return true
	})
}

// Publish delivers event without blocking.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.wants(event.Type) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// PublishBlocking waits up to timeout for each interested subscriber and
// reports whether all of them got the event.
func (b *EventBus) PublishBlocking(event Event, timeout time.Duration) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ok := true
	for _, s := range b.subs {
		if !s.wants(event.Type) {
			continue
		}
		timer := time.NewTimer(timeout)
		select {
		case s.ch <- event:
		case <-timer.C:
			b.dropped.Add(1)
			ok = false
		}
		timer.Stop()
	}
	return ok
}

// Dropped returns how many deliveries were lost to full buffers.
func (b *EventBus) Dropped() int64 { return b.dropped.Load() }

// Close closes every subscription.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}

func (b *EventBus) publishCritical(event Event) {
	b.PublishBlocking(event, constants.EventBusPublishTimeout)
}
