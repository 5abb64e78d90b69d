package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/okian/mentorpulse/internal/adapters/repository"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/pkg/logger"
)

// Querier is the subset of *pgxpool.Pool used by Source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source implements repository.Source over PostgreSQL.
type Source struct {
	db     Querier
	pool   *pgxpool.Pool
	log    logger.Logger
	fanout int
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFanout limits how many record sets are fetched concurrently.
func WithFanout(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// NewSource opens a pool and verifies connectivity.
func NewSource(ctx context.Context, cfg Config, opts ...Option) (*Source, error) {
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", repository.ErrSourceUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", repository.ErrSourceUnavailable, err)
	}
	s := NewSourceWithQuerier(pool, opts...)
	s.pool = pool
	return s, nil
}

// NewSourceWithQuerier builds a Source on an existing connection or pool.
func NewSourceWithQuerier(db Querier, opts ...Option) *Source {
	s := &Source{
		db:     db,
		log:    logger.Get().Named("postgres"),
		fanout: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the tables if they do not exist.
func (s *Source) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("%w: no pool", repository.ErrSourceUnavailable)
	}
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%w: migrate: %v", repository.ErrSourceUnavailable, err)
	}
	return nil
}

// Close releases the pool when the Source owns one.
func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Load reads all five record sets concurrently and assembles a dataset.
func (s *Source) Load(ctx context.Context) (*model.Dataset, error) {
	start := time.Now()
	var (
		mentoring   []mentoringRow
		events      []eventRow
		performance []performanceRow
		cycles      []cycleRow
		mandatory   []mandatoryRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	g.Go(func() (err error) {
		mentoring, err = fetch[mentoringRow](gctx, s.db, queryMentoring)
		return err
	})
	g.Go(func() (err error) {
		events, err = fetch[eventRow](gctx, s.db, queryEvents)
		return err
	})
	g.Go(func() (err error) {
		performance, err = fetch[performanceRow](gctx, s.db, queryPerformance)
		return err
	})
	g.Go(func() (err error) {
		cycles, err = fetch[cycleRow](gctx, s.db, queryCycles)
		return err
	})
	g.Go(func() (err error) {
		mandatory, err = fetch[mandatoryRow](gctx, s.db, queryMandatory)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error(ctx, "dataset load failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %v", repository.ErrSourceUnavailable, err)
	}

	ds := assemble(mentoring, events, performance, cycles, mandatory)
	s.log.Info(ctx, "dataset loaded",
		logger.Int("mentoring", len(ds.Mentoring)),
		logger.Int("events", len(ds.Events)),
		logger.Int("performance", len(ds.Performance)),
		logger.Duration("took", time.Since(start)),
	)
	return ds, nil
}

func fetch[T any](ctx context.Context, db Querier, sql string) ([]T, error) {
	rows, err := db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[T])
}
