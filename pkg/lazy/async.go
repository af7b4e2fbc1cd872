package lazy

import (
	"context"
	"sync"
)

// attempt is a single construction attempt. done is closed once value/err are
// set, so late arrivals observe the same result as the caller that started it.
type attempt[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// AsyncLazy caches the result of a constructor that performs network I/O.
// Get memoizes the in-flight attempt, not just the resolved value: a second
// caller that arrives before the first construction resolves waits on the
// same attempt instead of starting a second connection.
type AsyncLazy[T any] struct {
	construct func(ctx context.Context) (T, error)
	destroy   func(ctx context.Context, value T) error

	mu      sync.Mutex
	current *attempt[T]
}

// NewAsync creates an AsyncLazy slot. destroy may be nil.
func NewAsync[T any](
	construct func(ctx context.Context) (T, error),
	destroy func(ctx context.Context, value T) error,
) *AsyncLazy[T] {
	return &AsyncLazy[T]{construct: construct, destroy: destroy}
}

// Get returns the cached value, constructing it exactly once even under
// concurrent access. Construction failures propagate to every caller awaiting
// the same attempt and are not cached: the slot resets so the next Get
// retries. A caller whose context expires while waiting gets ctx.Err(), but
// the construction itself keeps running for the other waiters.
func (l *AsyncLazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	att := l.current
	if att == nil {
		att = &attempt[T]{done: make(chan struct{})}
		l.current = att
		l.mu.Unlock()

		att.value, att.err = l.construct(ctx)
		if att.err != nil {
			// Reset the slot, but only if it still points at this attempt:
			// a concurrent Close may already have taken it.
			l.mu.Lock()
			if l.current == att {
				l.current = nil
			}
			l.mu.Unlock()
		}
		close(att.done)
		return att.value, att.err
	}
	l.mu.Unlock()

	select {
	case <-att.done:
		return att.value, att.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close waits for any in-flight construction to finish, tears the value down
// if one was built, and resets the slot to empty. An in-flight connect is
// never aborted mid-handshake: forcing it would leak a live socket the
// destructor doesn't know about. Close is idempotent.
func (l *AsyncLazy[T]) Close(ctx context.Context) error {
	l.mu.Lock()
	att := l.current
	l.current = nil
	l.mu.Unlock()

	if att == nil {
		return nil
	}

	<-att.done
	if att.err != nil {
		// Construction failed; there is nothing to tear down.
		return nil
	}

	if l.destroy != nil {
		return l.destroy(ctx, att.value)
	}
	return nil
}
