package service

import (
	"time"

	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers. It also bounds the
// parallelism of a full refresh.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recompute jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many batch ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithApprovalThreshold sets the grade at which a competency counts as approved.
func WithApprovalThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = &threshold
	}
}

// WithClock sets the time source used to resolve cycle status.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithSource sets where Refresh loads the full dataset from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithDashboardCache enables caching of rendered dashboards.
func WithDashboardCache(c DashboardCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithRefreshOnStart makes Start load the dataset from the source.
func WithRefreshOnStart(enabled bool) Option {
	return func(s *Service) {
		s.refreshOnStart = enabled
	}
}
