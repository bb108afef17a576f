package upstream

import (
	"net/http"
	"time"

	"github.com/okian/gigmatch/pkg/logger"
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// SyncOption configures the Syncer.
type SyncOption func(*Syncer)

// WithInterval sets how often postings are pulled.
func WithInterval(d time.Duration) SyncOption {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSyncLogger overrides the syncer logger.
func WithSyncLogger(l logger.Logger) SyncOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}
