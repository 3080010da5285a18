package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// WorkerPool runs tasks on a fixed number of goroutines. Submissions never
// block: a full queue or a pool that is shutting down drops the task.
type WorkerPool struct {
	taskQueue   chan Task
	wg          sync.WaitGroup
	isClosing   atomic.Bool
	taskTimeout time.Duration
	logger      *zap.Logger
}

func NewWorkerPool(size, queue int, taskTimeout time.Duration, logger *zap.Logger) *WorkerPool {
	if queue <= 0 {
		queue = 1000
	}
	wp := &WorkerPool{
		taskQueue:   make(chan Task, queue),
		taskTimeout: taskTimeout,
		logger:      logger,
	}

	for range size {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task Task) {
	ctx := context.Background()
	if wp.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wp.taskTimeout)
		defer cancel()
	}
	if err := task(ctx); err != nil {
		wp.logger.Warn("worker task failed", zap.Error(err))
	}
}

// Submit queues t and reports whether it was accepted.
func (wp *WorkerPool) Submit(t Task) bool {
	if wp.isClosing.Load() {
		wp.logger.Warn("task submitted during shutdown, dropping")
		return false
	}
	select {
	case wp.taskQueue <- t:
		return true
	default:
		wp.logger.Warn("task queue full, dropping task")
		return false
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	if wp.isClosing.Swap(true) {
		return
	}
	close(wp.taskQueue)
	wp.wg.Wait()
}
