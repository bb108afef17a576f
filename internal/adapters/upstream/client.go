// Package upstream pulls profiles and postings from the marketplace REST
// backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/metrics"
)

const maxErrorBody = 512

// Client talks to the marketplace backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient validates baseURL and builds a client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrUpstream, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot is a profile and the catalog fetched together.
type Snapshot struct {
	Profile  model.Profile
	Postings []model.Posting
}

// FetchProfile loads one profile.
func (c *Client) FetchProfile(ctx context.Context, id string) (model.Profile, error) {
	var raw model.RawProfile
	if err := c.getJSON(ctx, "profile", "/profiles/"+url.PathEscape(id), &raw); err != nil {
		return model.Profile{}, err
	}
	p := raw.Normalize()
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// FetchPostings loads the posting catalog. The body may be a bare array or
// an object wrapping it under data, items or posts.
func (c *Client) FetchPostings(ctx context.Context) ([]model.Posting, error) {
	var body json.RawMessage
	if err := c.getJSON(ctx, "postings", "/posts", &body); err != nil {
		return nil, err
	}

	raws, err := decodePostingList(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode postings: %w", ErrUpstream, err)
	}

	out := make([]model.Posting, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.Normalize())
	}
	metrics.RecordUpstreamPostings(len(out))
	return out, nil
}

// FetchSnapshot fetches the profile and the catalog concurrently. Either
// failure fails the snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, profileID string) (Snapshot, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var snap Snapshot
	var mu sync.Mutex

	g.Go(func() error {
		p, err := c.FetchProfile(gCtx, profileID)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.Profile = p
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		postings, err := c.FetchPostings(gCtx)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.Postings = postings
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, resource, path string, dst any) error {
	start := time.Now()
	defer func() {
		metrics.RecordUpstreamLatency(resource, float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     http.MethodGet,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, path, err)
	}
	return nil
}

func decodePostingList(body json.RawMessage) ([]model.RawPosting, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var list []model.RawPosting
	if trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var wrapped struct {
		Data  []model.RawPosting `json:"data"`
		Items []model.RawPosting `json:"items"`
		Posts []model.RawPosting `json:"posts"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	switch {
	case wrapped.Data != nil:
		return wrapped.Data, nil
	case wrapped.Items != nil:
		return wrapped.Items, nil
	default:
		return wrapped.Posts, nil
	}
}
