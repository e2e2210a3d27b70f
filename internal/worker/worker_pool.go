package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPoolStopped is returned by Submit once Stop has been called.
var ErrPoolStopped = errors.New("worker pool is stopped")

type Task func()

type WorkerPool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	activeWorkers int
	maxWorkers    int
	logger        zerolog.Logger
	mu            sync.RWMutex

	stopMu  sync.RWMutex
	stopped bool
}

func NewWorkerPool(maxWorkers int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.logger.Info().Int("max_workers", wp.maxWorkers).Msg("Starting worker pool")

	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	return nil
}

func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")

	// Taking the write lock waits out in-flight Submit sends, so the channel
	// never closes under a sender.
	wp.stopMu.Lock()
	alreadyStopped := wp.stopped
	wp.stopped = true
	wp.stopMu.Unlock()

	if !alreadyStopped {
		close(wp.tasks)
	}
	wp.wg.Wait()

	wp.logger.Info().Msg("Worker pool stopped")
	return nil
}

// Submit blocks until a worker accepts the task. A full pool slows the caller
// down instead of dropping work: every submitted task eventually runs.
func (wp *WorkerPool) Submit(task Task) error {
	wp.stopMu.RLock()
	defer wp.stopMu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	wp.tasks <- task
	return nil
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range wp.tasks {
		wp.mu.Lock()
		wp.activeWorkers++
		wp.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error().
						Int("worker_id", id).
						Interface("panic", r).
						Msg("Worker recovered from panic")
				}

				wp.mu.Lock()
				wp.activeWorkers--
				wp.mu.Unlock()
			}()

			task()
		}()
	}

	wp.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (wp *WorkerPool) GetActiveWorkers() int {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.activeWorkers
}

func (wp *WorkerPool) GetQueueLength() int {
	return len(wp.tasks)
}
