package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/recommend"
)

type scoreFlags struct {
	profile  string
	postings string
	out      string
	view     string
	sort     string
	minScore string
	maxScore string
	workType string
	location string
	budget   string
	top      int
}

func newScoreCmd() *cobra.Command {
	var f scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a postings file against a profile file",
		Long:  "Reads a profile JSON object and a JSON array of postings, then writes the filtered and sorted scored postings as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, &f)
		},
	}

	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Path to the profile JSON file (required)")
	cmd.Flags().StringVarP(&f.postings, "postings", "i", "", "Path to the postings JSON array (required)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&f.view, "view", "recommendations", "recommendations, dashboard or filter")
	cmd.Flags().StringVar(&f.sort, "sort", "relevance", "relevance, budgetDesc, deadlineAsc or skillMatchDesc")
	cmd.Flags().StringVar(&f.minScore, "min-score", "", "Lower score bound for the filter view")
	cmd.Flags().StringVar(&f.maxScore, "max-score", "", "Upper score bound for the filter view")
	cmd.Flags().StringVar(&f.workType, "work-type", "", "Exact work type for the filter view")
	cmd.Flags().StringVar(&f.location, "location", "", "Exact location for the filter view")
	cmd.Flags().StringVar(&f.budget, "budget", "", "Budget bucket for the filter view: under-500, 500-1000, over-1000")
	cmd.Flags().IntVar(&f.top, "top", 0, "Keep at most this many results (0 keeps all)")

	for _, name := range []string{"profile", "postings"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func runScore(cmd *cobra.Command, f *scoreFlags) error {
	var rawProfile model.RawProfile
	if err := readJSON(f.profile, &rawProfile); err != nil {
		return err
	}
	var rawPostings []model.RawPosting
	if err := readJSON(f.postings, &rawPostings); err != nil {
		return err
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}

	profile := rawProfile.Normalize()
	postings := make([]model.Posting, 0, len(rawPostings))
	for i := range rawPostings {
		postings = append(postings, rawPostings[i].Normalize())
	}
	scored := recommend.Score(&profile, postings, cfg)

	return writeJSON(cmd.OutOrStdout(), f.out, scored)
}

// config mirrors the HTTP view presets with the default thresholds.
func (f *scoreFlags) config() (recommend.Config, error) {
	view, err := recommend.ParseView(f.view)
	if err != nil {
		return recommend.Config{}, err
	}
	sortKey, ok := recommend.ParseSortKey(f.sort)
	if !ok {
		return recommend.Config{}, fmt.Errorf("unknown sort %q", f.sort)
	}
	opts := []recommend.Option{recommend.WithSort(sortKey), recommend.WithTopN(f.top)}

	switch view {
	case recommend.ViewDashboard:
		return recommend.DashboardConfig(opts...), nil
	case recommend.ViewFilter:
		bucket, ok := recommend.ParseBudgetBucket(f.budget)
		if !ok {
			return recommend.Config{}, fmt.Errorf("unknown budget %q", f.budget)
		}
		lo, hi := recommend.ParseScoreBounds(f.minScore, f.maxScore)
		opts = append(opts,
			recommend.WithWorkType(f.workType),
			recommend.WithLocation(f.location),
			recommend.WithBudget(bucket),
		)
		return recommend.FilterConfig(lo, hi, opts...), nil
	default:
		return recommend.RecommendationsConfig(opts...), nil
	}
}

func readJSON(path string, dst any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v indented to path, or to stdout when path is empty.
func writeJSON(stdout io.Writer, path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	body = append(body, '\n')

	if path == "" {
		_, err = stdout.Write(body)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
