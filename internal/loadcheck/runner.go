package loadcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
)

// ErrMismatch is returned when the server disagrees with local scoring.
var ErrMismatch = errors.New("recommendations mismatch")

const directoryPermission = 0o750

// Run executes the complete load check.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting gigmatch load check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("postings", cfg.NumPostings),
		logger.Int("profiles", cfg.NumProfiles),
		logger.Int("workers", cfg.Workers))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate data
	gen := newGenerator(cfg.Seed)
	postings := gen.postings(cfg.NumPostings)
	profiles := gen.profiles(cfg.NumProfiles)
	stats.PostingsGenerated = len(postings)

	// Step 3: Store profiles, then submit postings concurrently
	if err := putProfiles(ctx, c, profiles); err != nil {
		return stats, fmt.Errorf("profile upload failed: %w", err)
	}
	stats.ProfilesStored = len(profiles)

	if err := submitPostings(ctx, c, cfg, postings, stats); err != nil {
		return stats, fmt.Errorf("posting submission failed: %w", err)
	}

	// Step 4: Wait for the ingest workers
	if err := waitForCatalog(ctx, c, stats.Accepted, cfg.Settle); err != nil {
		return stats, err
	}

	// Step 5: Compare server recommendations with local scoring
	if err := verifyAll(ctx, c, profiles, postings, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveDataset(cfg.OutputFile, profiles, postings); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	logStats(ctx, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d differences", ErrMismatch, stats.Mismatches)
	}
	return stats, nil
}

func saveDataset(path string, profiles []model.Profile, postings []model.Posting) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(struct {
		Profiles []model.Profile `json:"profiles"`
		Postings []model.Posting `json:"postings"`
	}{profiles, postings}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func logStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("postingsGenerated", stats.PostingsGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("profiles", stats.ProfilesStored),
		logger.Int("recommendations", stats.Recommendations),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("submitsPerSecond", perSecond))
}
