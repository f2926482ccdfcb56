// Package worker runs the deferred evaluation pipeline: each worker takes a
// queued job, asks the location resolver for a late GPS fix, and feeds the
// result through the same bonus evaluation the synchronous path uses.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/cuscogo/huntd/internal/adapters/mq/queue"
	"github.com/cuscogo/huntd/internal/domain/model"
	"github.com/cuscogo/huntd/pkg/logger"
	"github.com/cuscogo/huntd/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	defaultResolveTimeout = 30 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

// Job aliases what workers read off the queue.
type Job = model.EvaluationJob

// Resolver obtains a late GPS fix for a capture. Returning nil coordinates
// with a nil error means no fix could be obtained; that is a normal outcome.
type Resolver interface {
	Resolve(ctx context.Context, captureID int64) (lat, lng *float64, err error)
}

// Evaluator runs the bonus evaluation for a capture. It is exception-free:
// every failure mode is reported as an unawarded result.
type Evaluator interface {
	EvaluateAndRecordBonus(ctx context.Context, captureID int64, lat, lng *float64, basePoints int) model.BonusAward
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes one stream of deferred jobs.
type Worker struct {
	queue     Queue
	resolver  Resolver
	evaluator Evaluator
	name      string

	resolveTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, resolver Resolver, evaluator Evaluator, opts ...Option) *Worker {
	w := &Worker{
		queue:          q,
		resolver:       resolver,
		evaluator:      evaluator,
		name:           "worker",
		resolveTimeout: defaultResolveTimeout,
		shutdown:       make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, open := <-jobs:
			if !open {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "deferred evaluation failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles a single deferred job. A job whose fix never resolves is
// dropped quietly: absence of a bonus is a normal outcome.
func (w *Worker) process(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	resolveCtx, cancel := context.WithTimeout(ctx, w.resolveTimeout)
	defer cancel()

	resolveStart := time.Now()
	lat, lng, err := w.resolver.Resolve(resolveCtx, job.CaptureID)
	metrics.RecordResolveLatency(float64(time.Since(resolveStart).Milliseconds()))

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "resolve_error")
		return fmt.Errorf("resolve location for capture %d (job %s): %w", job.CaptureID, job.JobID, err)
	}
	if lat == nil || lng == nil {
		metrics.RecordResolveMiss()
		w.logger.Debug(ctx, "no GPS fix resolved; skipping evaluation",
			logger.Int64("captureID", job.CaptureID),
			logger.String("jobID", job.JobID),
		)
		return nil
	}

	award := w.evaluator.EvaluateAndRecordBonus(ctx, job.CaptureID, lat, lng, job.BasePoints)
	if award.Awarded {
		w.logger.Info(ctx, "deferred bonus awarded",
			logger.Int64("captureID", job.CaptureID),
			logger.String("biome", award.BiomeLabel),
			logger.Int("bonusPoints", award.BonusPoints),
		)
	}
	return nil
}

// Pool manages a fixed set of workers draining one queue.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers over the given queue and collaborators.
func NewPool(workerCount int, q Queue, resolver Resolver, evaluator Evaluator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewWorker(q, resolver, evaluator, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers, bounding the wait per worker.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerCount(0)
}
