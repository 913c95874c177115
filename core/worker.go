package core

import (
	"context"
	"errors"
	"sync"

	"argus/metrics"
	"argus/util/goroutine"

	"go.uber.org/zap"
)

// Worker pool errors.
var (
	ErrWorkerPoolNotRunning = errors.New("worker pool is not running")
	ErrWorkerPoolQueueFull  = errors.New("worker pool task queue is full")
)

// WorkerPool bounds concurrent in-memory evaluation work. Submission is
// effectively unbounded (Submit blocks until queue space frees up) while at
// most `workers` tasks execute at once. Soft backpressure, not admission
// control.
type WorkerPool struct {
	workers   int
	queueSize int
	taskCh    chan func()
	wg        sync.WaitGroup
	logger    *zap.SugaredLogger
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	mu        sync.RWMutex
	poolName  string
}

// NewWorkerPool creates a worker pool with parent context for lifecycle
// coordination. Workers are not started until Start() is called.
func NewWorkerPool(parentCtx context.Context, workers, queueSize int, poolName string, logger *zap.SugaredLogger) *WorkerPool {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers
	}
	if poolName == "" {
		poolName = "default"
	}

	ctx, cancel := context.WithCancel(parentCtx)
	return &WorkerPool{
		workers:   workers,
		queueSize: queueSize,
		taskCh:    make(chan func(), queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		poolName:  poolName,
	}
}

// Start launches the worker goroutines. Safe to call once; subsequent calls
// are no-ops.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}
	wp.running = true
	wp.logger.Infow("Starting worker pool",
		"pool", wp.poolName,
		"workers", wp.workers,
		"queue_size", wp.queueSize)

	metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolName).Set(float64(wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit enqueues a task, blocking while the queue is full. Returns an error
// only if the pool is not running or is shut down while waiting. The read
// lock is held across the send so every task accepted here is enqueued
// before Stop begins draining.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if !wp.running {
		return ErrWorkerPoolNotRunning
	}

	select {
	case wp.taskCh <- task:
		metrics.WorkerPoolQueueDepth.WithLabelValues(wp.poolName).Set(float64(len(wp.taskCh)))
		return nil
	case <-wp.ctx.Done():
		return ErrWorkerPoolNotRunning
	}
}

// TrySubmit enqueues a task without blocking. Returns ErrWorkerPoolQueueFull
// when the queue is at capacity.
func (wp *WorkerPool) TrySubmit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if !wp.running {
		return ErrWorkerPoolNotRunning
	}

	select {
	case wp.taskCh <- task:
		metrics.WorkerPoolQueueDepth.WithLabelValues(wp.poolName).Set(float64(len(wp.taskCh)))
		return nil
	default:
		return ErrWorkerPoolQueueFull
	}
}

// Stop shuts the pool down: tasks already executing run to completion, and
// tasks still queued when the workers exit are run by the stopping
// goroutine, so a submitter waiting on a task's completion is never
// stranded. Idempotent.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	wp.mu.Unlock()

	wp.cancel()
	wp.wg.Wait()
	wp.drainQueue()
	metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolName).Set(0)
	wp.logger.Infow("Worker pool stopped", "pool", wp.poolName)
}

// drainQueue runs every task left in the queue after the workers have
// exited. Submission is closed at this point (running is false and the
// context is cancelled), so the queue only shrinks.
func (wp *WorkerPool) drainQueue() {
	for {
		select {
		case task := <-wp.taskCh:
			wp.runTask(task, -1)
		default:
			return
		}
	}
}

// QueuedTasks returns the current queue depth.
func (wp *WorkerPool) QueuedTasks() int {
	return len(wp.taskCh)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	defer goroutine.Recover("worker-pool", wp.logger)

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task := <-wp.taskCh:
			wp.runTask(task, id)
		}
	}
}

func (wp *WorkerPool) runTask(task func(), workerID int) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				wp.logger.Errorw("Task panicked in worker",
					"pool", wp.poolName,
					"worker_id", workerID,
					"panic", r)
			}
		}()
		task()
	}()
	metrics.WorkerPoolTasksProcessed.WithLabelValues(wp.poolName).Inc()
}
