package queue

import "errors"

// Sentinel kinds for rejected enqueues.
var (
	ErrFull   = errors.New("ingest queue full")
	ErrClosed = errors.New("ingest queue closed")
)
