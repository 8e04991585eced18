// Package worker creates heroes from queued seed jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/heroes/internal/adapters/mq/queue"
	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
	resultsBuffer       = 64
)

// Sentinel kinds for job failures.
var (
	ErrInvalidJob    = errors.New("invalid seed job")
	ErrCreateFailed  = errors.New("backend did not create hero")
	ErrShutdownStall = errors.New("shutdown timed out")
)

// Creator creates a hero and returns it with its assigned id, or nil when
// the backend refused. heroclient.Client satisfies it.
type Creator interface {
	AddHero(ctx context.Context, h model.Hero) *model.Hero
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result reports the outcome of one job. Hero is set on success, Err on failure.
type Result struct {
	Job  queue.Job
	Hero *model.Hero
	Err  error
}

// Worker processes seed jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one goroutine.
type InMemoryWorker struct {
	queue   Queue
	creator Creator
	results chan<- Result
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that reports to results.
func NewInMemoryWorker(q Queue, creator Creator, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		creator:  creator,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
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
			res := w.process(ctx, j)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			case <-w.shutdown:
				return
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownStall, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) Result {
	if err := j.Hero.Validate(); err != nil {
		metrics.RecordSeedResult(metrics.OutcomeFailed)
		w.logger.Warn(ctx, "skipping invalid seed job", logger.Int("seq", j.Seq), logger.Error(err))
		return Result{Job: j, Err: fmt.Errorf("%w: line %d: %w", ErrInvalidJob, j.Seq, err)}
	}

	created := w.creator.AddHero(ctx, j.Hero)
	if created == nil {
		metrics.RecordSeedResult(metrics.OutcomeFailed)
		w.logger.Error(ctx, "seed job failed", logger.Int("seq", j.Seq), logger.String("name", j.Hero.Name))
		return Result{Job: j, Err: fmt.Errorf("%w: %q", ErrCreateFailed, j.Hero.Name)}
	}

	metrics.RecordSeedResult(metrics.OutcomeOK)
	w.logger.Debug(ctx, "seeded hero", logger.Int("seq", j.Seq), logger.Int("id", created.ID))
	return Result{Job: j, Hero: created}
}

// Pool manages multiple workers sharing one results channel. The channel is
// closed once every worker has stopped.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	results chan Result
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; values below one fall back
// to runtime.NumCPU().
func NewPool(workerCount int, q Queue, creator Creator, l logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if l == nil {
		l = logger.Nop()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		results: make(chan Result, resultsBuffer),
		logger:  l.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, creator, p.results,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(l),
		)
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerActiveCount(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		p.wg.Wait()
		metrics.UpdateWorkerActiveCount(0)
		close(p.results)
	}()
}

// Results streams job outcomes until every worker has stopped.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown closes the queue and stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
