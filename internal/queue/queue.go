// Package queue provides the unbounded FIFO between capture producers and the engine.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrEmpty is returned by Dequeue when the timeout elapses with nothing queued.
	ErrEmpty = errors.New("queue empty")
	// ErrClosed is returned by Dequeue once the queue is closed and drained.
	ErrClosed = errors.New("queue closed")
)

// Option applies a configuration option to a Queue.
type Option func(*options)

type options struct {
	onDepth func(int)
}

// WithDepthHook calls fn with the queue length after every enqueue and dequeue.
func WithDepthHook(fn func(int)) Option {
	return func(o *options) {
		o.onDepth = fn
	}
}

// Queue is an unbounded multi-producer single-consumer FIFO.
// Enqueue never blocks; Dequeue waits on a channel rather than polling.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	closed  bool
	notify  chan struct{}
	done    chan struct{}
	onDepth func(int)
}

// New creates an empty queue.
func New[T any](opts ...Option) *Queue[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		onDepth: o.onDepth,
	}
}

// Enqueue appends item. It returns false only when the queue is closed.
func (q *Queue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	depth := len(q.items)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	q.reportDepth(depth)
	return true
}

// TryDequeue removes the oldest item without waiting.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	var zero T
	if len(q.items) == 0 {
		q.mu.Unlock()
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	depth := len(q.items)
	q.mu.Unlock()

	q.reportDepth(depth)
	return item, true
}

// Dequeue waits up to timeout for an item. It returns ErrEmpty on timeout,
// ErrClosed when the queue is closed and drained, or the context error.
// Items queued before Close are still delivered.
func (q *Queue[T]) Dequeue(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if item, ok := q.TryDequeue(); ok {
			return item, nil
		}
		select {
		case <-q.notify:
		case <-q.done:
			if item, ok := q.TryDequeue(); ok {
				return item, nil
			}
			return zero, ErrClosed
		case <-timer.C:
			if item, ok := q.TryDequeue(); ok {
				return item, nil
			}
			return zero, ErrEmpty
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items and wakes a waiting consumer. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// IsClosed reports whether Close has been called.
func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) reportDepth(depth int) {
	if q.onDepth != nil {
		q.onDepth(depth)
	}
}
