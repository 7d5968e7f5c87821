package writequeue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := New(&cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestExecute_SameKeySerialized(t *testing.T) {
	m := newTestManager(t, Config{QueueCapacity: 64, WriteTimeout: 5 * time.Second, IdleTimeout: time.Minute})

	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "1/note-a", func(ctx context.Context) error {
				cur := running.Add(1)
				for {
					prev := maxRunning.Load()
					if cur <= prev || maxRunning.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestExecute_DifferentKeysParallel(t *testing.T) {
	m := newTestManager(t, Config{QueueCapacity: 4, WriteTimeout: 5 * time.Second, IdleTimeout: time.Minute})

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	var wg sync.WaitGroup
	for _, key := range []string{"1/a", "1/b"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = m.Execute(context.Background(), key, func(ctx context.Context) error {
				started <- struct{}{}
				<-release
				return nil
			})
		}(key)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("lanes with different keys did not run concurrently")
		}
	}
	close(release)
	wg.Wait()
}

func TestExecute_ReturnsFnError(t *testing.T) {
	m := newTestManager(t, DefaultConfig())

	want := assert.AnError
	err := m.Execute(context.Background(), "k", func(ctx context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestExecute_TimeoutCancelsOpContext(t *testing.T) {
	m := newTestManager(t, Config{QueueCapacity: 1, WriteTimeout: 20 * time.Millisecond, IdleTimeout: time.Minute})

	cancelled := make(chan struct{})
	err := m.Execute(context.Background(), "k", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ErrWriteTimeout)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("operation context was not cancelled on timeout")
	}
}

func TestExecute_QueueFull(t *testing.T) {
	m := newTestManager(t, Config{QueueCapacity: 1, WriteTimeout: 5 * time.Second, IdleTimeout: time.Minute})

	block := make(chan struct{})
	running := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func(ctx context.Context) error {
			close(running)
			<-block
			return nil
		})
	}()
	<-running

	// fills the single buffered slot
	go func() {
		_ = m.Execute(context.Background(), "k", func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return m.GetMetrics().Queued == 1 }, time.Second, time.Millisecond)

	err := m.Execute(context.Background(), "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	close(block)
}

func TestCleanup_ReclaimsIdleLanes(t *testing.T) {
	m := newTestManager(t, Config{QueueCapacity: 4, WriteTimeout: time.Second, IdleTimeout: time.Hour})

	require.NoError(t, m.Execute(context.Background(), "a", func(ctx context.Context) error { return nil }))
	require.NoError(t, m.Execute(context.Background(), "b", func(ctx context.Context) error { return nil }))
	assert.Equal(t, 2, m.GetMetrics().ActiveQueues)

	assert.Equal(t, 0, m.doCleanup(time.Now()))
	assert.Equal(t, 2, m.doCleanup(time.Now().Add(2*time.Hour)))
	assert.Equal(t, 0, m.GetMetrics().ActiveQueues)

	// a reclaimed key gets a fresh lane
	require.NoError(t, m.Execute(context.Background(), "a", func(ctx context.Context) error { return nil }))
	assert.Equal(t, 1, m.GetMetrics().ActiveQueues)
}

func TestShutdown_RejectsNewWrites(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Execute(context.Background(), "k", func(ctx context.Context) error { return nil }))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.GetMetrics().IsClosed)

	err := m.Execute(context.Background(), "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)

	// idempotent
	assert.NoError(t, m.Shutdown(context.Background()))
}
