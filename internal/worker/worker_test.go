package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool_RunsTasks(t *testing.T) {
	wp := NewWorkerPool(3, 10, time.Second, zap.NewNop())
	var n atomic.Int32
	for range 5 {
		assert.True(t, wp.Submit(func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	assert.True(t, wp.Submit(func(ctx context.Context) error { return errors.New("boom") }))
	wp.Shutdown()
	assert.Equal(t, int32(5), n.Load())
}

func TestWorkerPool_DropsAfterShutdown(t *testing.T) {
	wp := NewWorkerPool(1, 1, 0, zap.NewNop())
	wp.Shutdown()
	wp.Shutdown()
	assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))
}

func TestWorkerPool_DropsWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, 1, 0, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	wp.Submit(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	assert.True(t, wp.Submit(func(ctx context.Context) error { return nil }))
	assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))
	close(release)
	wp.Shutdown()
}

func TestWorkerPool_TaskTimeout(t *testing.T) {
	wp := NewWorkerPool(1, 1, 10*time.Millisecond, zap.NewNop())
	done := make(chan error, 1)
	wp.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
	wp.Shutdown()
}
