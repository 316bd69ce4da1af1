// Package parallel runs independent solves on a bounded set of goroutines.
// Each task owns its model; the pool never shares solver state between
// workers.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrPoolShutdown is returned when trying to submit tasks to a shutdown pool.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool manages a fixed number of goroutines fed from a buffered
// channel. Submit blocks once the buffer is full.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	mu           sync.RWMutex
	once         sync.Once
}

// NewWorkerPool starts maxWorkers goroutines. If maxWorkers is 0 or
// negative, it defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.maxWorkers }

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()
	for task := range wp.taskChan {
		if task != nil {
			task()
		}
	}
}

// Submit queues task. It blocks while the queue is full and fails when ctx
// is done or the pool has been shut down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops accepting tasks and waits for queued and running tasks to
// finish. It is safe to call more than once.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		// Submitters hold the read lock while sending, so the channel is
		// closed only after every in-flight send has returned.
		wp.mu.Lock()
		close(wp.taskChan)
		wp.mu.Unlock()
		wp.workerWg.Wait()
	})
}
