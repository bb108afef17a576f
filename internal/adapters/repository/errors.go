package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound = errors.New("not found")
	ErrEmptyID  = errors.New("empty id")
	ErrClosed   = errors.New("store closed")
)
