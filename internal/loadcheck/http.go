package loadcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// submitPostings posts every posting with at most cfg.Workers requests in
// flight. Every DupEvery-th posting is sent twice.
func submitPostings(ctx context.Context, c *client, cfg *Config, postings []model.Posting, stats *Stats) error {
	logger.Get().Info(ctx, "submitting postings",
		logger.Int("postings", len(postings)),
		logger.Int("workers", cfg.Workers))

	var accepted, duplicates, failed, submitted atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	send := func(p model.Posting) { //nolint:gocritic // hugeParam
		g.Go(func() error {
			submitted.Add(1)
			var ack ackResponse
			status, err := c.do(gCtx, http.MethodPost, "/postings", p, &ack)
			switch {
			case err != nil:
				failed.Add(1)
				if cfg.Verbose {
					logger.Get().Warn(gCtx, "submit failed", logger.String("id", p.ID), logger.Error(err))
				}
			case status == http.StatusOK && ack.Duplicate:
				duplicates.Add(1)
			default:
				accepted.Add(1)
			}
			return gCtx.Err()
		})
	}

	for i := range postings {
		send(postings[i])
		if cfg.DupEvery > 0 && (i+1)%cfg.DupEvery == 0 {
			send(postings[i])
		}
	}
	err := g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(duplicates.Load())
	stats.Failed = int(failed.Load())
	return err
}

func putProfiles(ctx context.Context, c *client, profiles []model.Profile) error {
	for i := range profiles {
		if _, err := c.do(ctx, http.MethodPut, "/profiles/"+url.PathEscape(profiles[i].ID), profiles[i], nil); err != nil {
			return err
		}
	}
	return nil
}

// waitForCatalog polls GET /postings until it holds want entries.
func waitForCatalog(ctx context.Context, c *client, want int, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var last int
	for {
		var list struct {
			Count int `json:"count"`
		}
		if _, err := c.do(ctx, http.MethodGet, "/postings", nil, &list); err == nil {
			last = list.Count
			if last >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("catalog holds %d of %d postings: %w", last, want, ctx.Err())
		case <-ticker.C:
		}
	}
}
