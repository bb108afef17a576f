package upstream

import (
	"errors"
	"fmt"
)

// ErrUpstream marks every failure talking to the marketplace backend.
var ErrUpstream = errors.New("upstream request failed")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrUpstream) match.
func (e *StatusError) Unwrap() error { return ErrUpstream }
