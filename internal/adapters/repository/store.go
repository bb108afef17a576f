// Package repository defines the catalog store interface and its backends.
package repository

import (
	"context"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Store provides read/write access to postings and profiles.
type Store interface {
	// UpsertPosting inserts or replaces a posting by id.
	// Returns true if the posting was new. An update keeps the original
	// insertion position.
	UpsertPosting(ctx context.Context, p model.Posting) (bool, error)

	// GetPosting returns ErrNotFound for an unknown id.
	GetPosting(ctx context.Context, id string) (model.Posting, error)

	// ListPostings returns all postings in insertion order.
	ListPostings(ctx context.Context) ([]model.Posting, error)

	DeletePosting(ctx context.Context, id string) error

	UpsertProfile(ctx context.Context, p model.Profile) error
	GetProfile(ctx context.Context, id string) (model.Profile, error)

	// Count returns the number of postings in the catalog.
	Count(ctx context.Context) int

	Close() error
}
