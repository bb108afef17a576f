// Package main runs a load check against a gigmatch server.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/loadcheck"
	"github.com/okian/gigmatch/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumPostings = 5000
	defaultNumProfiles = 50
	defaultDupEvery    = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 2 * time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func newRootCmd() *cobra.Command {
	cfg := &loadcheck.Config{}
	var logFormat string

	cmd := &cobra.Command{
		Use:          "loadcheck",
		Short:        "Submit generated postings and verify recommendations",
		Long:         "loadcheck uploads generated profiles, submits postings concurrently (with deliberate duplicates), waits for ingestion and compares GET /recommendations with local scoring.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTimeout)
			defer cancel()

			_, err := loadcheck.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.NumPostings, "postings", defaultNumPostings, "Number of postings to generate and submit")
	f.IntVar(&cfg.NumProfiles, "profiles", defaultNumProfiles, "Number of profiles to generate and verify")
	f.IntVar(&cfg.DupEvery, "dup-every", defaultDupEvery, "Resubmit every n-th posting (0 disables)")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", defaultSettle, "Max wait for ingestion to finish")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Generator seed")
	f.StringVar(&cfg.OutputFile, "output", "", "Write the generated dataset to this file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	f.StringVar(&logFormat, "log-format", "text", "text or json")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
