// Package mailbox provides the bounded, ordered, asynchronous delivery
// channel that every actor in the galaxy receives messages on.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when sending to a mailbox whose owner has exited.
	ErrClosed = errors.New("mailbox closed")
	// ErrFull is returned when a mailbox stays full until the sender gives up.
	ErrFull = errors.New("mailbox full")
)

// Mailbox is a bounded FIFO queue owned by a single receiver.
// Messages from one sender are delivered in send order.
//
// The underlying channel is never closed, so concurrent senders cannot
// panic; Close only signals Done.
type Mailbox[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a mailbox holding up to capacity undelivered messages.
func New[T any](capacity int) *Mailbox[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Mailbox[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Send enqueues msg, waiting for space until ctx is done or the mailbox closes.
func (m *Mailbox[T]) Send(ctx context.Context, msg T) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	select {
	case m.ch <- msg:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrFull
		}
		return ctx.Err()
	}
}

// TrySend enqueues msg without waiting.
func (m *Mailbox[T]) TrySend(msg T) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Receive returns the channel the owner reads messages from.
func (m *Mailbox[T]) Receive() <-chan T {
	return m.ch
}

// Done is closed once the owner has stopped receiving.
func (m *Mailbox[T]) Done() <-chan struct{} {
	return m.done
}

// Close marks the mailbox as closed. Safe to call more than once.
func (m *Mailbox[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}

// Closed reports whether Close has been called.
func (m *Mailbox[T]) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int {
	return len(m.ch)
}

// Cap returns the mailbox capacity.
func (m *Mailbox[T]) Cap() int {
	return cap(m.ch)
}
