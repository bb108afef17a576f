// Package worker drains the ingest queue into the catalog store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// Ingest outcomes reported to metrics.
const (
	OutcomeCreated    = "created"
	OutcomeUpdated    = "updated"
	OutcomeInvalid    = "invalid"
	OutcomeStoreError = "store_error"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Store persists validated postings.
type Store interface {
	UpsertPosting(ctx context.Context, p model.Posting) (bool, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Forgetter releases an idempotency key so a failed job can be resubmitted.
type Forgetter interface {
	Unrecord(ctx context.Context, key string)
}

type acker interface{ Ack() }

// Worker processes jobs until the queue closes or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	store  Store
	forget Forgetter
	name   string

	processed atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop. It returns when ctx ends, Shutdown is called,
// or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if a, ok := w.queue.(acker); ok {
				a.Ack()
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Warn(ctx, "ingest job failed",
					logger.String("posting_id", j.Posting.ID),
					logger.String("source", j.Source),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many jobs this worker stored.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error { //nolint:gocritic // hugeParam: Job arrives by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := model.ValidatePosting(&j.Posting); err != nil {
		metrics.RecordIngest(OutcomeInvalid)
		metrics.RecordWorkerError(OutcomeInvalid)
		w.release(ctx, j.Key)
		return err
	}

	created, err := w.store.UpsertPosting(ctx, j.Posting)
	if err != nil {
		metrics.RecordIngest(OutcomeStoreError)
		metrics.RecordWorkerError(OutcomeStoreError)
		w.release(ctx, j.Key)
		return fmt.Errorf("store posting %s: %w", j.Posting.ID, err)
	}

	if created {
		metrics.RecordIngest(OutcomeCreated)
	} else {
		metrics.RecordIngest(OutcomeUpdated)
	}
	metrics.RecordWorkerProcessed()
	w.processed.Add(1)
	return nil
}

func (w *InMemoryWorker) release(ctx context.Context, key string) {
	if w.forget != nil && key != "" {
		w.forget.Unrecord(ctx, key)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Options apply to each worker.
func NewPool(workerCount int, q Queue, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, store, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed sums the jobs stored by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (capped at 30s) ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
			if err := w.Shutdown(stopCtx); err != nil {
				errs = append(errs, err)
			}
			stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	return errors.Join(errs...)
}
