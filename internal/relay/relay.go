// Package relay carries values dispatched on a signal to consumers running on
// other goroutines.
//
// A signal.Registry is single-goroutine; a Relay is not. Register the relay's
// Listener on a registry and every dispatched value is fanned out to the
// relay's channel subscribers.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/signals/signal"
)

const defaultBufferSize = 64

// Event wraps a relayed value.
type Event[T any] struct {
	Seq       uint64 // 1-based publish sequence, gaps mean dropped events
	Payload   T
	Timestamp time.Time
}

// Relay fans published values out to channel subscribers.
// It is safe for concurrent use.
type Relay[T any] struct {
	subs       map[chan Event[T]]struct{}
	mu         sync.RWMutex
	seq        uint64 // guarded by mu (write lock)
	done       chan struct{}
	bufferSize int
}

// New creates a relay with the default buffer size (64).
func New[T any]() *Relay[T] {
	return NewWithBuffer[T](defaultBufferSize)
}

// NewWithBuffer creates a relay with a custom per-subscriber buffer size.
func NewWithBuffer[T any](size int) *Relay[T] {
	return &Relay[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Listener returns a signal listener that publishes every dispatched value.
func (r *Relay[T]) Listener() signal.Func[T] {
	return r.Publish
}

// Subscribe creates a new subscription channel.
// The channel is closed when ctx is cancelled or the relay is closed.
func (r *Relay[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], r.bufferSize)
	r.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-r.done:
			return // Close already closed sub
		}
		r.mu.Lock()
		defer r.mu.Unlock()

		if _, ok := r.subs[sub]; !ok {
			return
		}
		delete(r.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends v to all subscribers.
// Non-blocking: drops the event for any subscriber whose buffer is full.
func (r *Relay[T]) Publish(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
		return
	default:
	}

	r.seq++
	event := Event[T]{
		Seq:       r.seq,
		Payload:   v,
		Timestamp: time.Now(),
	}

	for sub := range r.subs {
		select {
		case sub <- event:
		default:
			// Full - drop rather than block the dispatching goroutine
		}
	}
}

// Close shuts down the relay and all subscriber channels.
func (r *Relay[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
		return
	default:
	}

	close(r.done)
	for sub := range r.subs {
		close(sub)
	}
	r.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (r *Relay[T]) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
