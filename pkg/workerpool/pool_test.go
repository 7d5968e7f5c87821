package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_RunsAndReturnsError(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	assert.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.Submit(context.Background(), func(ctx context.Context) error { return assert.AnError }), assert.AnError)
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	p := New(&Config{MaxWorkers: 3, QueueSize: 100}, nil)
	defer p.Shutdown(context.Background())

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Submit(context.Background(), func(ctx context.Context) error {
				cur := running.Add(1)
				for {
					prev := peak.Load()
					if cur <= prev || peak.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Equal(t, int64(30), p.GetMetrics().DoneCount)
}

func TestSubmit_CancelledBeforeRun(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := p.SubmitAsync(ctx, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }))
	assert.False(t, ran.Load())
}

func TestShutdown_ConcurrentSubmitDoesNotPanic(t *testing.T) {
	p := New(&Config{MaxWorkers: 4, QueueSize: 8}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil })
			if err != nil {
				assert.Contains(t, []error{ErrWorkerPoolClosed, ErrWorkerPoolFull}, err)
			}
		}()
	}
	require.NoError(t, p.Shutdown(context.Background()))
	wg.Wait()

	assert.True(t, p.IsClosed())
	assert.ErrorIs(t, p.Submit(context.Background(), func(ctx context.Context) error { return nil }), ErrWorkerPoolClosed)
}
