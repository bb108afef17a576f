// Package service wires the catalog, ingest pipeline and scorer into the
// operations served by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/adapters/upstream"
	"github.com/okian/gigmatch/internal/domain/dedupe"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/recommend"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the recommender.
type Service struct {
	mu sync.RWMutex

	// keysMu guards current, the content key last accepted per posting id.
	keysMu  sync.Mutex
	current map[string]string

	store    repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	upstream *upstream.Client
	syncer   *upstream.Syncer

	workerCount  int
	queueSize    int
	dedupeSize   int
	syncInterval time.Duration

	recommendationThreshold int
	dashboardThreshold      int
	dashboardTopN           int

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:             runtime.NumCPU() * 2,
		queueSize:               10_000,
		dedupeSize:              100_000,
		syncInterval:            5 * time.Minute,
		recommendationThreshold: recommend.DefaultRecommendationThreshold,
		dashboardThreshold:      recommend.DefaultDashboardThreshold,
		dashboardTopN:           recommend.DefaultDashboardTopN,
		current:                 make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory catalog")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, worker.WithForgetter(s.deduper), worker.WithLogger(s.logger))
	s.pool.Start(ctx)

	if s.upstream != nil {
		s.syncer = upstream.NewSyncer(s.upstream, s, upstream.WithInterval(s.syncInterval), upstream.WithSyncLogger(s.logger))
		s.syncer.Start(ctx, queue.SourceUpstream)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "recommender service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("upstream", s.upstream != nil),
	)
	return nil
}

// Stop drains the ingest queue and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	syncer, pool, store := s.syncer, s.pool, s.store
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping recommender service...")

	// The syncer feeds the queue, so it stops first.
	if syncer != nil {
		syncer.Stop()
	}
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	if err := store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store failed", logger.Error(err))
	}
	s.logger.Info(ctx, "recommender service stopped")
}

// SubmitPosting validates a posting and queues it for storage. A posting
// without an id is given a UUID, which is returned. An empty key falls back
// to the posting id plus a content hash. duplicate reports a key that was
// already seen.
func (s *Service) SubmitPosting(ctx context.Context, p model.Posting, key string) (id string, duplicate bool, err error) { //nolint:gocritic // hugeParam: posting is copied into the job anyway
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	duplicate, err = s.submit(ctx, p, queue.SourceAPI, key)
	return p.ID, duplicate, err
}

// Ingest implements upstream.Sink.
func (s *Service) Ingest(ctx context.Context, p model.Posting, source, key string) (bool, error) { //nolint:gocritic // hugeParam
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	duplicate, err := s.submit(ctx, p, source, key)
	if err != nil {
		return false, err
	}
	return !duplicate, nil
}

func (s *Service) submit(ctx context.Context, p model.Posting, source, key string) (bool, error) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if err := model.ValidatePosting(&p); err != nil {
		metrics.RecordIngest(worker.OutcomeInvalid)
		return false, err
	}

	key = strings.TrimSpace(key)
	derived := key == ""
	if derived {
		key = contentKey(&p)
	}

	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordIngest("duplicate")
		return true, nil
	}

	job := queue.Job{Key: key, Posting: p, Source: source, ReceivedAt: time.Now().UTC()}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordIngest("backpressure")
		if s.queue.IsClosed() {
			return false, queue.ErrClosed
		}
		return false, queue.ErrFull
	}

	// Explicit keys name a request, not a version, so only derived keys are
	// superseded. Releasing the previous one lets a revert be ingested.
	if derived {
		if prev := s.swapKey(p.ID, key); prev != "" && prev != key {
			s.deduper.Unrecord(ctx, prev)
		}
	}

	metrics.RecordIngest("accepted")
	s.logger.Debug(ctx, "posting queued",
		logger.String("posting_id", p.ID),
		logger.String("source", source),
	)
	return false, nil
}

// swapKey records key as the current content key for id and returns the
// previous one. An empty key drops the entry.
func (s *Service) swapKey(id, key string) string {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	prev := s.current[id]
	if key == "" {
		delete(s.current, id)
	} else {
		s.current[id] = key
	}
	return prev
}

// ListPostings returns the catalog in insertion order.
func (s *Service) ListPostings(ctx context.Context) ([]model.Posting, error) {
	store, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return store.ListPostings(ctx)
}

// GetPosting returns one posting or repository.ErrNotFound.
func (s *Service) GetPosting(ctx context.Context, id string) (model.Posting, error) {
	store, err := s.catalog()
	if err != nil {
		return model.Posting{}, err
	}
	return store.GetPosting(ctx, id)
}

// DeletePosting removes a posting and forgets its content key so the same
// posting can be submitted again.
func (s *Service) DeletePosting(ctx context.Context, id string) error {
	store, err := s.catalog()
	if err != nil {
		return err
	}
	p, err := store.GetPosting(ctx, id)
	if err != nil {
		return err
	}
	if err := store.DeletePosting(ctx, id); err != nil {
		return err
	}
	s.deduper.Unrecord(ctx, contentKey(&p))
	if prev := s.swapKey(id, ""); prev != "" {
		s.deduper.Unrecord(ctx, prev)
	}
	return nil
}

// PutProfile validates and stores a profile.
func (s *Service) PutProfile(ctx context.Context, p model.Profile) error {
	store, err := s.catalog()
	if err != nil {
		return err
	}
	if err := model.ValidateProfile(&p); err != nil {
		return err
	}
	return store.UpsertProfile(ctx, p)
}

// GetProfile returns a stored profile or repository.ErrNotFound.
func (s *Service) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	store, err := s.catalog()
	if err != nil {
		return model.Profile{}, err
	}
	return store.GetProfile(ctx, id)
}

// Preset builds the Config for a view using the service thresholds. opts
// are applied last.
func (s *Service) Preset(view recommend.View, opts ...recommend.Option) recommend.Config {
	var base []recommend.Option
	switch view {
	case recommend.ViewDashboard:
		base = []recommend.Option{
			recommend.WithThreshold(s.dashboardThreshold),
			recommend.WithTopN(s.dashboardTopN),
		}
	case recommend.ViewFilter:
		base = []recommend.Option{recommend.WithRange(recommend.MinScoreBound, recommend.MaxScoreBound)}
	default:
		base = []recommend.Option{recommend.WithThreshold(s.recommendationThreshold)}
	}
	return recommend.NewConfig(append(base, opts...)...)
}

// Recommend scores the whole catalog against a profile. Profiles missing
// locally are fetched from upstream when it is configured.
func (s *Service) Recommend(ctx context.Context, profileID string, cfg recommend.Config) ([]model.ScoredPosting, error) { //nolint:gocritic // hugeParam
	if strings.TrimSpace(profileID) == "" {
		return nil, ErrEmptyProfile
	}
	store, err := s.catalog()
	if err != nil {
		return nil, err
	}

	profile, err := s.resolveProfile(ctx, store, profileID)
	if err != nil {
		return nil, err
	}
	postings, err := store.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return s.score(&profile, postings, cfg), nil
}

// ScoreAdHoc scores caller-supplied data without touching the catalog.
func (s *Service) ScoreAdHoc(_ context.Context, profile model.Profile, postings []model.Posting, cfg recommend.Config) []model.ScoredPosting { //nolint:gocritic // hugeParam
	return s.score(&profile, postings, cfg)
}

func (s *Service) score(profile *model.Profile, postings []model.Posting, cfg recommend.Config) []model.ScoredPosting { //nolint:gocritic // hugeParam
	start := time.Now()
	out := recommend.Score(profile, postings, cfg)

	mode := cfg.Mode.String()
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordPostingsScored(len(postings))
	metrics.RecordPostingsReturned(mode, len(out))
	metrics.RecordRecommendation(mode)
	return out
}

func (s *Service) resolveProfile(ctx context.Context, store repository.Store, id string) (model.Profile, error) {
	p, err := store.GetProfile(ctx, id)
	if err == nil || !errors.Is(err, repository.ErrNotFound) || s.upstream == nil {
		return p, err
	}

	p, err = s.upstream.FetchProfile(ctx, id)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return model.Profile{}, fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
		}
		return model.Profile{}, err
	}
	if err := store.UpsertProfile(ctx, p); err != nil {
		s.logger.Warn(ctx, "caching upstream profile failed",
			logger.String("profile_id", id),
			logger.Error(err),
		)
	}
	return p, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":                 s.started,
		"workerCount":             s.workerCount,
		"queueSize":               s.queueSize,
		"dedupeSize":              s.dedupeSize,
		"upstreamEnabled":         s.upstream != nil,
		"recommendationThreshold": s.recommendationThreshold,
		"dashboardThreshold":      s.dashboardThreshold,
		"dashboardTopN":           s.dashboardTopN,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		postings := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["postings"] = postings
		stats["processed"] = s.pool.Processed()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		metrics.UpdateCatalogSize(postings)
	}
	return stats
}

func (s *Service) catalog() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func contentKey(p *model.Posting) string {
	body, err := json.Marshal(p)
	if err != nil {
		return dedupe.Fingerprint(p.ID)
	}
	return dedupe.Fingerprint(p.ID, string(body))
}
