// Package lazy provides single-slot caches that defer construction of an
// expensive resource until first use. [Lazy] covers constructors that do no
// I/O; [AsyncLazy] covers constructors that connect to a remote system and
// therefore take a context and may be awaited by several callers at once.
//
// Both variants guarantee at most one construction per slot between a reset
// and the next Close, and both reset to empty on Close so the next Get
// rebuilds from scratch.
package lazy

import "sync"

// Lazy caches the result of a side-effect-bearing but non-blocking
// constructor. Safe for concurrent use.
type Lazy[T any] struct {
	construct func() (T, error)
	destroy   func(T) error

	mu    sync.Mutex
	built bool
	value T
}

// New creates a Lazy slot. destroy may be nil if the value needs no teardown.
func New[T any](construct func() (T, error), destroy func(T) error) *Lazy[T] {
	return &Lazy[T]{construct: construct, destroy: destroy}
}

// Get returns the cached value, constructing it on first call. A failed
// construction is not cached; the next Get retries.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.built {
		return l.value, nil
	}

	value, err := l.construct()
	if err != nil {
		var zero T
		return zero, err
	}

	l.value = value
	l.built = true
	return value, nil
}

// Close tears down the cached value if one was built and resets the slot to
// empty. Closing an empty slot, or closing twice, is a no-op.
func (l *Lazy[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.built {
		return nil
	}

	value := l.value
	var zero T
	l.value = zero
	l.built = false

	if l.destroy != nil {
		return l.destroy(value)
	}
	return nil
}
