// Package service wires ingestion, recomputation and the read model of the
// indicator engine behind the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/okian/mentorpulse/internal/adapters/cache"
	jobqueue "github.com/okian/mentorpulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/mentorpulse/internal/adapters/mq/worker"
	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/internal/domain/dedupe"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/internal/domain/types"
	"github.com/okian/mentorpulse/pkg/logger"
	"github.com/okian/mentorpulse/pkg/metrics"
)

// DashboardCache caches rendered dashboards keyed by indicator table epoch
// and version.
type DashboardCache interface {
	DashboardKey(epoch string, version int64) string
	OrganizationKey(organization, epoch string, version int64) string
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}

// Plan is a student's mandatory-plan view with the student's position among
// the peers of the same organization.
type Plan struct {
	indicators.FilteredStudentIndicators
	Position int
	Peers    int
}

// RefreshResult summarizes a full reload.
type RefreshResult struct {
	Students int
	Records  int
	Took     time.Duration
}

// Service implements the API dependencies for the indicator engine.
type Service struct {
	mu sync.RWMutex
	// ingestMu serializes store writes with queue admission so a batch is
	// either fully stored and enqueued or rejected.
	ingestMu sync.Mutex

	store   repository.RecordStore
	table   *repository.TreapTable
	deduper dedupe.Deduper
	calc    *indicators.Calculator
	source  repository.Source
	cache   DashboardCache

	jobs *jobqueue.InMemoryQueue
	pool *workerpool.Pool

	workerCount    int
	queueSize      int
	dedupeSize     int
	threshold      *float64
	clock          func() time.Time
	refreshOnStart bool

	started bool
	logger  logger.Logger
}

// New constructs a Service. Reads work immediately; ingestion requires Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10000,
		dedupeSize:  50000,
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	calcOpts := make([]indicators.Option, 0, 2)
	if s.threshold != nil {
		calcOpts = append(calcOpts, indicators.WithApprovalThreshold(*s.threshold))
	}
	if s.clock != nil {
		calcOpts = append(calcOpts, indicators.WithClock(s.clock))
	}
	s.calc = indicators.NewCalculator(calcOpts...)
	s.store = repository.NewMemoryRecordStore()
	s.table = repository.NewTreapTable(context.Background())
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.logger.Info(ctx, "starting indicator service")

	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s.store, s.calc, s.table,
		workerpool.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "indicator service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Float64("approval_threshold", s.calc.ApprovalThreshold()),
	)

	if s.refreshOnStart {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Error(ctx, "initial refresh failed", logger.Error(err))
			return err
		}
	}
	return nil
}

// Stop closes the queue and waits for the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping indicator service")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "indicator service stopped")
}

// Close stops the service and releases the indicator table.
func (s *Service) Close() error {
	s.Stop()
	return s.table.Close()
}

// SeenAndRecord reports whether a batch id was already ingested and records
// it otherwise.
func (s *Service) SeenAndRecord(ctx context.Context, batchID string) bool {
	seen := s.deduper.SeenAndRecord(ctx, batchID)
	if seen {
		metrics.RecordBatchDuplicate()
	}
	return seen
}

// Unrecord forgets a batch id so the batch can be retried.
func (s *Service) Unrecord(ctx context.Context, batchID string) {
	s.deduper.Unrecord(ctx, batchID)
}

// Size returns the number of remembered batch ids.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Ingest stores a batch and schedules a recompute for every affected
// student. It returns the number of scheduled students. When the queue
// cannot take every job nothing is stored and ErrBackpressure is returned.
func (s *Service) Ingest(ctx context.Context, batchID string, batch *model.Dataset) (int, error) {
	if batch == nil || (batch.Len() == 0 && len(batch.Cycles) == 0 && len(batch.Mandatory) == 0) {
		return 0, ErrEmptyBatch
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0, ErrNotStarted
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	need := len(affectedStudents(batch))
	if free := s.jobs.Capacity() - s.jobs.Len(ctx); need > free {
		s.logger.Warn(ctx, "batch rejected, queue full",
			logger.String("batch_id", batchID),
			logger.Int("students", need),
			logger.Int("free", free),
		)
		metrics.RecordQueueEnqueueError()
		return 0, ErrBackpressure
	}

	ids := s.store.Append(ctx, batch)
	jobs := make([]jobqueue.Job, 0, len(ids))
	now := time.Now()
	for _, id := range ids {
		jobs = append(jobs, jobqueue.Job{StudentID: id, BatchID: batchID, EnqueuedAt: now})
	}
	if err := s.jobs.EnqueueAll(ctx, jobs); err != nil {
		// Records are stored; a later batch or refresh recomputes them.
		return 0, fmt.Errorf("enqueue batch %s: %w", batchID, err)
	}

	metrics.RecordBatchAccepted()
	metrics.RecordRecordsIngested("mentoring", len(batch.Mentoring))
	metrics.RecordRecordsIngested("event", len(batch.Events))
	metrics.RecordRecordsIngested("performance", len(batch.Performance))
	s.logger.Debug(ctx, "batch accepted",
		logger.String("batch_id", batchID),
		logger.Int("records", batch.Len()),
		logger.Int("students", len(ids)),
	)
	return len(ids), nil
}

// affectedStudents returns the distinct student ids a batch touches.
func affectedStudents(batch *model.Dataset) []string {
	ids := batch.StudentIDs()
	for id := range batch.Cycles {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	for id := range batch.Mandatory {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Refresh reloads the whole dataset from the source and recomputes every
// student, replacing the record store and the indicator table.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	if s.source == nil {
		return RefreshResult{}, ErrNoSource
	}
	start := time.Now()

	ds, err := s.source.Load(ctx)
	if err != nil {
		metrics.RecordRefresh(false, float64(time.Since(start).Milliseconds()))
		return RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}
	results, err := s.calc.CalculateCohortParallel(ctx, ds, s.workerCount)
	if err != nil {
		metrics.RecordRefresh(false, float64(time.Since(start).Milliseconds()))
		metrics.RecordComputationError()
		return RefreshResult{}, fmt.Errorf("refresh: %w", err)
	}

	// Workers still holding records from before the replace carry older
	// revisions, so the table floor discards their results.
	s.ingestMu.Lock()
	s.store.Replace(ctx, ds)
	revision := s.store.Revision(ctx)
	s.table.Reset(ctx, revision)
	for i := range results {
		if _, err := s.table.UpsertAt(ctx, results[i], revision); err != nil {
			s.ingestMu.Unlock()
			metrics.RecordRefresh(false, float64(time.Since(start).Milliseconds()))
			return RefreshResult{}, fmt.Errorf("refresh: %w", err)
		}
	}
	s.ingestMu.Unlock()

	took := time.Since(start)
	metrics.RecordRefresh(true, float64(took.Milliseconds()))
	s.logger.Info(ctx, "dataset refreshed",
		logger.Int("students", len(results)),
		logger.Int("records", ds.Len()),
		logger.Duration("took", took),
	)
	return RefreshResult{Students: len(results), Records: ds.Len(), Took: took}, nil
}

// students returns the table content in student discovery order.
func (s *Service) students(ctx context.Context) []indicators.StudentIndicators {
	start := time.Now()
	defer func() {
		metrics.RecordTableQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	return s.table.Many(ctx, s.store.StudentIDs(ctx))
}

// Student returns the latest indicators of one student.
func (s *Service) Student(ctx context.Context, studentID string) (indicators.StudentIndicators, error) {
	return s.table.Get(ctx, studentID)
}

// Plan computes the mandatory-plan view of one student and positions the
// student among the organization's peers in the indicator table.
func (s *Service) Plan(ctx context.Context, studentID string) (Plan, error) {
	data, err := s.store.Student(ctx, studentID)
	if err != nil {
		return Plan{}, err
	}
	if len(data.Mentoring) == 0 && len(data.Events) == 0 && len(data.Performance) == 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	filtered := s.calc.CalculateFiltered(studentID, data.Mentoring, data.Events, data.Performance, data.Mandatory, data.Cycles)

	plan := Plan{FilteredStudentIndicators: filtered}
	if pos, peers, ok := indicators.RankWithinOrganization(s.students(ctx), studentID); ok {
		plan.Position, plan.Peers = pos, peers
	}
	return plan, nil
}

// Dashboard returns the program-wide dashboard.
func (s *Service) Dashboard(ctx context.Context) (indicators.GlobalDashboard, error) {
	epoch, version := s.table.Stamp()
	var out indicators.GlobalDashboard
	if s.cache != nil && s.cacheGet(ctx, s.cache.DashboardKey(epoch, version), &out) {
		return out, nil
	}
	out = indicators.ComposeGlobalDashboard(s.students(ctx))
	if s.cache != nil {
		s.cacheSet(ctx, s.cache.DashboardKey(epoch, version), out)
	}
	return out, nil
}

// OrganizationDashboard returns the dashboard of one organization.
func (s *Service) OrganizationDashboard(ctx context.Context, organization string) (indicators.OrganizationDashboard, error) {
	epoch, version := s.table.Stamp()
	var out indicators.OrganizationDashboard
	if s.cache != nil && s.cacheGet(ctx, s.cache.OrganizationKey(organization, epoch, version), &out) {
		return out, nil
	}
	students := s.students(ctx)
	if !slices.Contains(indicators.ListOrganizations(students), organization) {
		return out, fmt.Errorf("%w: %q", ErrOrganizationNotFound, organization)
	}
	out = indicators.ComposeOrganizationDashboard(students, organization)
	if s.cache != nil {
		s.cacheSet(ctx, s.cache.OrganizationKey(organization, epoch, version), out)
	}
	return out, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn(ctx, "dashboard cache read failed", logger.String("key", key), logger.Error(err))
	}
	return false
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn(ctx, "dashboard cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// Aggregate summarizes the students at a level, restricted to filter.
func (s *Service) Aggregate(ctx context.Context, level indicators.Level, filter string) indicators.AggregatedIndicators {
	return indicators.Aggregate(s.students(ctx), level, filter)
}

// Organizations lists the distinct organizations.
func (s *Service) Organizations(ctx context.Context) []string {
	return indicators.ListOrganizations(s.students(ctx))
}

// Cohorts lists the cohorts of an organization, or of every organization
// when organization is empty.
func (s *Service) Cohorts(ctx context.Context, organization string) []string {
	return indicators.ListCohorts(s.students(ctx), organization)
}

// TopN returns the first n entries of the program-wide ranking.
func (s *Service) TopN(ctx context.Context, n int) ([]types.RankEntry, error) {
	return s.table.TopN(ctx, n)
}

// Rank returns the ranking entry of one student.
func (s *Service) Rank(ctx context.Context, studentID string) (types.RankEntry, error) {
	return s.table.Rank(ctx, studentID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := types.Stats{
		Started:       s.started,
		Students:      s.table.Count(ctx),
		Records:       s.store.Len(ctx),
		QueueCapacity: s.queueSize,
		Workers:       s.workerCount,
		BatchesSeen:   s.deduper.Size(),
		Version:       s.table.Version(),
	}
	if s.started {
		stats.QueueDepth = s.jobs.Len(ctx)
		stats.Recomputed = s.pool.Processed()
	}
	return stats
}
