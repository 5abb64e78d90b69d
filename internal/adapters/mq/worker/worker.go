// Package worker recomputes student indicators off the job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/mentorpulse/internal/adapters/mq/queue"
	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/pkg/logger"
	"github.com/okian/mentorpulse/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
	workerStopTimeout   = 5 * time.Second
)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Loader returns the raw records of one student.
type Loader interface {
	Student(ctx context.Context, studentID string) (repository.StudentData, error)
}

// Calculator computes one student's indicators.
type Calculator interface {
	CalculateStudent(
		studentID string,
		mentoring []model.MentoringRecord,
		events []model.EventRecord,
		performance []model.PerformanceRecord,
		cycles []model.ExecutionCycle,
		mandatory []model.MandatoryCompetency,
	) indicators.StudentIndicators
}

// Updater stores computed indicators tagged with the record revision they
// were computed from. Results older than the stored ones are not applied.
type Updater interface {
	UpsertAt(ctx context.Context, s indicators.StudentIndicators, revision uint64) (bool, error)
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)
	// Shutdown stops the worker and waits for the current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	loader  Loader
	calc    Calculator
	updater Updater
	name    string

	// processed and active are shared with the owning pool.
	processed *atomic.Int64
	active    *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, loader Loader, calc Calculator, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		loader:    loader,
		calc:      calc,
		updater:   updater,
		name:      "worker",
		processed: &atomic.Int64{},
		active:    &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
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
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("student_id", job.StudentID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	w.active.Add(1)
	start := time.Now()
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	data, err := w.loader.Student(ctx, job.StudentID)
	if errors.Is(err, repository.ErrNotFound) {
		w.logger.Debug(ctx, "student has no records", logger.String("student_id", job.StudentID))
		return nil
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "load_error")
		return fmt.Errorf("load student %s: %w", job.StudentID, err)
	}
	// A plan or schedule alone does not make a student part of the cohort.
	if len(data.Mentoring) == 0 && len(data.Events) == 0 && len(data.Performance) == 0 {
		return nil
	}

	computeStart := time.Now()
	result := w.calc.CalculateStudent(job.StudentID, data.Mentoring, data.Events, data.Performance, data.Cycles, data.Mandatory)
	metrics.RecordComputation(float64(time.Since(computeStart).Microseconds()) / 1000)

	stored, err := w.updater.UpsertAt(ctx, result, data.Revision)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "table_error")
		return fmt.Errorf("store indicators for %s: %w", job.StudentID, err)
	}
	if !stored {
		w.logger.Debug(ctx, "stale result dropped",
			logger.String("student_id", job.StudentID),
			logger.Int64("revision", int64(data.Revision)),
		)
	}
	w.processed.Add(1)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	active    atomic.Int64

	shutdown chan struct{}
	stopped  atomic.Bool

	metricsInterval time.Duration
	logger          logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, q Queue, loader Loader, calc Calculator, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           q,
		shutdown:        make(chan struct{}),
		metricsInterval: 5 * time.Second,
		logger:          logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, loader, calc, updater, wopts...)
		w.processed = &p.processed
		w.active = &p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs completed successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Active returns how many workers are processing a job right now.
func (p *Pool) Active() int64 { return p.active.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	active := int(p.active.Load())
	metrics.UpdateWorkerActiveCount(active)
	metrics.UpdateWorkerIdleCount(len(p.workers) - active)
}

// Stop signals every worker and waits briefly for each one.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.shutdown)
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerStopTimeout):
		}
	}
}

// Shutdown closes the queue when it supports closing, then stops every
// worker, waiting until ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)
	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
		}
	}
	p.updateMetrics()
	return nil
}
