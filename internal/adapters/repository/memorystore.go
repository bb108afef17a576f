package repository

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/metrics"
)

// MemoryStore keeps the catalog in process memory.
//
// Writers hold mu and publish an immutable copy of the ordered catalog;
// ListPostings reads that copy without locking.
type MemoryStore struct {
	mu       sync.RWMutex
	index    map[string]int // posting id -> position in order
	order    []model.Posting
	profiles map[string]model.Profile

	catalog atomic.Pointer[[]model.Posting]
	closed  atomic.Bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index:                 make(map[string]int),
		profiles:              make(map[string]model.Profile),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	empty := []model.Posting{}
	s.catalog.Store(&empty)

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops background goroutines.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	return nil
}

// UpsertPosting implements Store.UpsertPosting.
func (s *MemoryStore) UpsertPosting(_ context.Context, p model.Posting) (bool, error) {
	defer observe("upsert_posting", time.Now())
	if p.ID == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.ID]; ok {
		s.order[i] = p
		s.publishLocked()
		return false, nil
	}
	s.index[p.ID] = len(s.order)
	s.order = append(s.order, p)
	s.publishLocked()
	return true, nil
}

// GetPosting implements Store.GetPosting.
func (s *MemoryStore) GetPosting(_ context.Context, id string) (model.Posting, error) {
	defer observe("get_posting", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Posting{}, ErrNotFound
	}
	return s.order[i], nil
}

// ListPostings implements Store.ListPostings.
func (s *MemoryStore) ListPostings(_ context.Context) ([]model.Posting, error) {
	defer observe("list_postings", time.Now())
	return slices.Clone(*s.catalog.Load()), nil
}

// DeletePosting implements Store.DeletePosting.
func (s *MemoryStore) DeletePosting(_ context.Context, id string) error {
	defer observe("delete_posting", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.order = slices.Delete(s.order, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j].ID] = j
	}
	s.publishLocked()
	return nil
}

// UpsertProfile implements Store.UpsertProfile.
func (s *MemoryStore) UpsertProfile(_ context.Context, p model.Profile) error {
	defer observe("upsert_profile", time.Now())
	if p.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
	return nil
}

// GetProfile implements Store.GetProfile.
func (s *MemoryStore) GetProfile(_ context.Context, id string) (model.Profile, error) {
	defer observe("get_profile", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, ErrNotFound
	}
	return p, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(*s.catalog.Load())
}

// publishLocked swaps in a fresh copy of the catalog. Caller holds mu.
func (s *MemoryStore) publishLocked() {
	snap := slices.Clone(s.order)
	s.catalog.Store(&snap)
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	postings, profiles := len(s.order), len(s.profiles)
	s.mu.RUnlock()

	metrics.UpdateCatalogSize(postings)
	metrics.UpdateProfileCount(profiles)
}

func observe(operation string, start time.Time) {
	metrics.RecordRepositoryLatency(operation, float64(time.Since(start).Microseconds())/1000)
}
