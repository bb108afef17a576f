package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/adapters/upstream"
)

type fetchFlags struct {
	url         string
	profileID   string
	profileOut  string
	postingsOut string
	timeout     time.Duration
}

func newFetchCmd() *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a profile and the catalog from the marketplace backend",
		Long:  "Fetches one profile and all postings concurrently and writes them as JSON files that the score command accepts.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, &f)
		},
	}

	cmd.Flags().StringVarP(&f.url, "url", "u", "", "Base URL of the marketplace backend (required)")
	cmd.Flags().StringVar(&f.profileID, "profile-id", "", "Profile to fetch (required)")
	cmd.Flags().StringVar(&f.profileOut, "profile-out", "profile.json", "Where to write the profile")
	cmd.Flags().StringVar(&f.postingsOut, "postings-out", "postings.json", "Where to write the postings")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Overall request timeout")

	for _, name := range []string{"url", "profile-id"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func runFetch(cmd *cobra.Command, f *fetchFlags) error {
	client, err := upstream.NewClient(f.url, upstream.WithTimeout(f.timeout))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	snap, err := client.FetchSnapshot(ctx, f.profileID)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	if err := writeJSON(cmd.OutOrStdout(), f.profileOut, snap.Profile); err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), f.postingsOut, snap.Postings); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fetched profile %s and %d postings\n", snap.Profile.ID, len(snap.Postings))
	return nil
}
