package upstream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const defaultSyncInterval = 5 * time.Minute

// PostingSource lists the marketplace catalog.
type PostingSource interface {
	FetchPostings(ctx context.Context) ([]model.Posting, error)
}

// Sink accepts postings into the ingest path. accepted is false for
// duplicates; a non-nil error means the posting was not taken.
type Sink interface {
	Ingest(ctx context.Context, p model.Posting, source, key string) (accepted bool, err error)
}

// SyncResult summarizes one pull.
type SyncResult struct {
	Fetched    int
	Accepted   int
	Duplicates int
	Rejected   int
}

// Syncer periodically pulls postings and feeds them to a Sink.
type Syncer struct {
	source   PostingSource
	sink     Sink
	interval time.Duration
	logger   logger.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewSyncer builds a syncer. Call Start to begin pulling.
func NewSyncer(source PostingSource, sink Sink, opts ...SyncOption) *Syncer {
	s := &Syncer{
		source:   source,
		sink:     sink,
		interval: defaultSyncInterval,
		logger:   logger.Get().Named("upstream-sync"),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncOnce pulls the catalog once. Postings rejected by the sink are
// counted, not returned as errors.
func (s *Syncer) SyncOnce(ctx context.Context, source string) (SyncResult, error) {
	postings, err := s.source.FetchPostings(ctx)
	if err != nil {
		metrics.RecordUpstreamSync("error")
		return SyncResult{}, err
	}

	res := SyncResult{Fetched: len(postings)}
	var errs []error
	for _, p := range postings {
		accepted, err := s.sink.Ingest(ctx, p, source, "")
		switch {
		case err != nil:
			res.Rejected++
			errs = append(errs, err)
		case accepted:
			res.Accepted++
		default:
			res.Duplicates++
		}
	}

	if len(errs) > 0 {
		s.logger.Warn(ctx, "some upstream postings were rejected",
			logger.Int("rejected", res.Rejected),
			logger.Error(errors.Join(errs...)),
		)
	}
	metrics.RecordUpstreamSync("ok")
	return res, nil
}

// Start runs an immediate pull, then one per interval, until ctx ends or
// Stop is called.
func (s *Syncer) Start(ctx context.Context, source string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			s.pull(ctx, source)
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight pull to finish.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Syncer) pull(ctx context.Context, source string) {
	res, err := s.SyncOnce(ctx, source)
	if err != nil {
		s.logger.Error(ctx, "upstream sync failed", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "upstream sync complete",
		logger.Int("fetched", res.Fetched),
		logger.Int("accepted", res.Accepted),
		logger.Int("duplicates", res.Duplicates),
	)
}
