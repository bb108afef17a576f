// Package main provides gigmatch-score, an offline scorer for profile and
// posting JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gigmatch-score",
		Short:         "Score marketplace postings against a profile",
		Long:          "gigmatch-score applies the recommendation scorer to local JSON files or to a snapshot pulled from the marketplace backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newFetchCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
