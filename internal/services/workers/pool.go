// -----------------------------------------------------------------------
// Package workers runs best-effort background jobs, such as traveller
// confirmation emails, on a fixed number of goroutines
// -----------------------------------------------------------------------

package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
)

var (
	// ErrPoolFull is returned when the queue has no free slot
	ErrPoolFull = errors.New("worker pool queue is full")
	// ErrPoolClosed is returned after Shutdown has been called
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Job represents a work item to be processed
type Job func(ctx context.Context) error

type task struct {
	name string
	job  Job
}

// Pool manages a pool of workers for background processing.
// Submit never blocks; a full queue rejects the job.
type Pool struct {
	tasks      chan task
	maxWorkers int
	jobTimeout time.Duration
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	closed     bool
	started    bool
	failed     int
	logger     arbor.ILogger
}

// NewPool creates a new worker pool. Each job runs with jobTimeout.
func NewPool(maxWorkers, queueSize int, jobTimeout time.Duration, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = maxWorkers * 16
	}
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		tasks:      make(chan task, queueSize),
		maxWorkers: maxWorkers,
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start begins the worker pool. Calling it twice has no effect.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	p.logger.Debug().
		Int("max_workers", p.maxWorkers).
		Int("queue_size", cap(p.tasks)).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a named job
func (p *Pool) Submit(name string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task{name: name, job: job}:
		return nil
	default:
		return fmt.Errorf("%s: %w", name, ErrPoolFull)
	}
}

// Pending returns the number of queued jobs not yet picked up
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// Failed returns how many jobs returned an error or panicked
func (p *Pool) Failed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.failed
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
// When ctx expires first, running jobs are cancelled and the rest dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Debug().Msg("Worker pool shutdown complete")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn().Int("dropped", len(p.tasks)).Msg("Worker pool shutdown timed out")
		return ctx.Err()
	}
}

// worker processes jobs from the queue
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for t := range p.tasks {
		if p.ctx.Err() != nil {
			continue // draining after a timed-out shutdown
		}
		if err := p.run(t); err != nil {
			p.mu.Lock()
			p.failed++
			p.mu.Unlock()

			p.logger.Warn().
				Err(err).
				Int("worker_id", id).
				Str("job", t.name).
				Msg("Background job failed")
		}
	}
}

func (p *Pool) run(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			p.logger.Error().
				Str("job", t.name).
				Str("stack", common.GetStackTrace()).
				Msg("Background job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()
	return t.job(ctx)
}
