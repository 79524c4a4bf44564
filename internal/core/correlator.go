package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xonecas/zoea-galaxy/internal/mailbox"
)

// waiter is one outstanding request to an actor.
type waiter[R any] struct {
	ch        chan R
	accepts   func(R) bool
	abandoned atomic.Bool
}

// correlator matches replies from one actor to the requests sent to it.
// Replies arrive in request order, so the oldest matching waiter wins.
//
// Timed-out waiters stay queued as abandoned so their late reply is
// swallowed instead of being handed to a newer request.
type correlator[R any] struct {
	// sendMu serializes enqueue+send so queue order equals mailbox order.
	sendMu sync.Mutex

	mu      sync.Mutex
	pending []*waiter[R]
	dead    bool
}

func newCorrelator[R any]() *correlator[R] {
	return &correlator[R]{}
}

// enqueue registers a waiter. Callers hold sendMu.
func (c *correlator[R]) enqueue(accepts func(R) bool) (*waiter[R], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return nil, false
	}
	w := &waiter[R]{ch: make(chan R, 1), accepts: accepts}
	c.pending = append(c.pending, w)
	return w, true
}

// withdraw removes w after its request could not be sent.
func (c *correlator[R]) withdraw(w *waiter[R]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == w {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// deliver hands msg to the oldest waiter that accepts it. Abandoned waiters
// ahead of it are dropped: their replies are not coming. It reports whether
// msg was expected.
func (c *correlator[R]) deliver(msg R) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.pending) > 0 {
		w := c.pending[0]
		if w.accepts(msg) {
			c.pending = c.pending[1:]
			if !w.abandoned.Load() {
				w.ch <- msg
			}
			return true
		}
		if !w.abandoned.Load() {
			return false
		}
		c.pending = c.pending[1:]
	}
	return false
}

// abandon marks w as timed out. After it returns, a reply is either already
// buffered in w.ch or will be swallowed by deliver.
func (c *correlator[R]) abandon(w *waiter[R]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w.abandoned.Store(true)
}

// fail closes every pending waiter and refuses new ones.
func (c *correlator[R]) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dead = true
	for _, w := range c.pending {
		close(w.ch)
	}
	c.pending = nil
}

// outstanding returns the number of queued waiters.
func (c *correlator[R]) outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// request sends msg to box and waits for the reply accepted by accepts.
// A closed or full mailbox, a timeout and the actor exiting all report
// ErrActorUnreachable.
func request[Q, R any](ctx context.Context, c *correlator[R], box *mailbox.Mailbox[Q], msg Q, accepts func(R) bool, timeout time.Duration) (R, error) {
	var zero R
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.sendMu.Lock()
	w, ok := c.enqueue(accepts)
	if !ok {
		c.sendMu.Unlock()
		return zero, fmt.Errorf("%w: actor exited", ErrActorUnreachable)
	}
	if err := box.Send(ctx, msg); err != nil {
		c.withdraw(w)
		c.sendMu.Unlock()
		return zero, fmt.Errorf("%w: %v", ErrActorUnreachable, err)
	}
	c.sendMu.Unlock()

	select {
	case reply, ok := <-w.ch:
		if !ok {
			return zero, fmt.Errorf("%w: actor exited", ErrActorUnreachable)
		}
		return reply, nil
	case <-ctx.Done():
		c.abandon(w)
		select {
		case reply, ok := <-w.ch:
			if ok {
				return reply, nil
			}
		default:
		}
		return zero, fmt.Errorf("%w: %v", ErrActorUnreachable, ctx.Err())
	}
}
