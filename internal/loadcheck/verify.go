package loadcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/recommend"
	"github.com/okian/gigmatch/pkg/logger"
)

type recommendations struct {
	ProfileID string                `json:"profile_id"`
	Count     int                   `json:"count"`
	Items     []model.ScoredPosting `json:"items"`
}

// verifyProfile fetches the default recommendations for profile and
// compares them with a local scoring of the same catalog. Ties may be
// ordered differently because ingest order is concurrent, so the check
// compares id to score and the descending order only.
func verifyProfile(ctx context.Context, c *client, profile *model.Profile, catalog []model.Posting) (returned, mismatches int, err error) {
	var got recommendations
	if _, err := c.do(ctx, http.MethodGet, "/recommendations?profile_id="+url.QueryEscape(profile.ID), nil, &got); err != nil {
		return 0, 0, err
	}
	want := recommend.Score(profile, catalog, recommend.RecommendationsConfig())

	wantScores := make(map[string]int, len(want))
	for i := range want {
		wantScores[want[i].ID] = want[i].Score
	}
	if len(got.Items) != len(want) {
		mismatches++
	}
	for i := range got.Items {
		item := &got.Items[i]
		score, ok := wantScores[item.ID]
		switch {
		case !ok || score != item.Score:
			mismatches++
		case i > 0 && got.Items[i-1].Score < item.Score:
			mismatches++
		}
	}
	if mismatches > 0 {
		logger.Get().Warn(ctx, "recommendations differ from local scoring",
			logger.String("profile_id", profile.ID),
			logger.Int("server", len(got.Items)),
			logger.Int("local", len(want)),
			logger.Int("mismatches", mismatches))
	}
	return len(got.Items), mismatches, nil
}

func verifyAll(ctx context.Context, c *client, profiles []model.Profile, catalog []model.Posting, stats *Stats) error {
	for i := range profiles {
		n, bad, err := verifyProfile(ctx, c, &profiles[i], catalog)
		if err != nil {
			return fmt.Errorf("profile %s: %w", profiles[i].ID, err)
		}
		stats.Recommendations += n
		stats.Mismatches += bad
	}
	return nil
}
