package service

import (
	"time"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/adapters/upstream"
	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the ingest queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
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

// WithStore injects a catalog store. The service closes it on Stop.
// Without it Start creates a MemoryStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithUpstream enables the marketplace client for syncing postings and
// resolving unknown profiles.
func WithUpstream(c *upstream.Client) Option {
	return func(s *Service) {
		s.upstream = c
	}
}

// WithSyncInterval sets how often the upstream catalog is pulled.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// WithRecommendationThreshold sets the cutoff of the recommendations view.
func WithRecommendationThreshold(threshold int) Option {
	return func(s *Service) {
		s.recommendationThreshold = threshold
	}
}

// WithDashboardThreshold sets the cutoff of the dashboard view.
func WithDashboardThreshold(threshold int) Option {
	return func(s *Service) {
		s.dashboardThreshold = threshold
	}
}

// WithDashboardTopN caps the dashboard view.
func WithDashboardTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dashboardTopN = n
		}
	}
}
