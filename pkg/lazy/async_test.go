package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncLazySharesInFlightAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	slot := NewAsync(func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "connected", nil
	}, nil)

	const waiters = 20
	results := make(chan string, waiters)
	var wg sync.WaitGroup
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := slot.Get(context.Background())
			assert.NoError(t, err)
			results <- v
		}()
	}

	// Let every goroutine reach Get before the construction resolves.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers share one attempt")
	for v := range results {
		assert.Equal(t, "connected", v)
	}
}

func TestAsyncLazyFailurePropagatesAndResets(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	boom := errors.New("connect refused")
	slot := NewAsync(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "connected", nil
	}, nil)

	_, err := slot.Get(context.Background())
	require.ErrorIs(t, err, boom)

	v, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", v, "a failed attempt is not cached")
}

func TestAsyncLazyWaiterContextExpiry(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	slot := NewAsync(func(context.Context) (string, error) {
		<-release
		return "connected", nil
	}, nil)

	go func() {
		_, _ = slot.Get(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := slot.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The construction keeps running for the original caller.
	close(release)
	v, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", v)
}

func TestAsyncLazyCloseAwaitsInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var destroyed atomic.Int32
	slot := NewAsync(func(context.Context) (string, error) {
		<-release
		return "connected", nil
	}, func(_ context.Context, _ string) error {
		destroyed.Add(1)
		return nil
	})

	go func() {
		_, _ = slot.Get(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan error, 1)
	go func() {
		closed <- slot.Close(context.Background())
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight construction resolved")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-closed)
	assert.Equal(t, int32(1), destroyed.Load())
}

func TestAsyncLazyCloseIdempotent(t *testing.T) {
	t.Parallel()

	var destroyed atomic.Int32
	slot := NewAsync(func(context.Context) (int, error) {
		return 1, nil
	}, func(context.Context, int) error {
		destroyed.Add(1)
		return nil
	})

	require.NoError(t, slot.Close(context.Background()), "closing an empty slot is a no-op")

	_, err := slot.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, slot.Close(context.Background()))
	require.NoError(t, slot.Close(context.Background()))
	assert.Equal(t, int32(1), destroyed.Load())
}

func TestAsyncLazyCloseAfterFailedAttemptSkipsDestroy(t *testing.T) {
	t.Parallel()

	var destroyed atomic.Int32
	slot := NewAsync(func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}, func(context.Context, int) error {
		destroyed.Add(1)
		return nil
	})

	_, err := slot.Get(context.Background())
	require.Error(t, err)
	require.NoError(t, slot.Close(context.Background()))
	assert.Equal(t, int32(0), destroyed.Load())
}

func TestAsyncLazyRebuildAfterClose(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	slot := NewAsync(func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, nil)

	v, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, slot.Close(context.Background()))

	v, err = slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
