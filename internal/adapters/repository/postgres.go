package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/gigmatch/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS postings_seq_idx ON postings (seq);
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore implements Store on PostgreSQL. Records are kept as JSONB
// payloads; seq preserves first-insert order across updates.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and pings the database.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolConfig.MaxConns = 16
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertPosting implements Store.UpsertPosting.
func (s *PostgresStore) UpsertPosting(ctx context.Context, p model.Posting) (bool, error) {
	defer observe("upsert_posting", time.Now())
	if p.ID == "" {
		return false, ErrEmptyID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("marshal posting: %w", err)
	}

	// xmax is zero only for freshly inserted rows.
	const query = `
		INSERT INTO postings (id, payload) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		RETURNING (xmax = 0)
	`
	var created bool
	if err := s.pool.QueryRow(ctx, query, p.ID, payload).Scan(&created); err != nil {
		return false, fmt.Errorf("upsert posting %s: %w", p.ID, err)
	}
	return created, nil
}

// GetPosting implements Store.GetPosting.
func (s *PostgresStore) GetPosting(ctx context.Context, id string) (model.Posting, error) {
	defer observe("get_posting", time.Now())

	var p model.Posting
	if err := s.getPayload(ctx, `SELECT payload FROM postings WHERE id = $1`, id, &p); err != nil {
		return model.Posting{}, err
	}
	return p, nil
}

// ListPostings implements Store.ListPostings.
func (s *PostgresStore) ListPostings(ctx context.Context) ([]model.Posting, error) {
	defer observe("list_postings", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT payload FROM postings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	out := []model.Posting{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		var p model.Posting
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode posting: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return out, nil
}

// DeletePosting implements Store.DeletePosting.
func (s *PostgresStore) DeletePosting(ctx context.Context, id string) error {
	defer observe("delete_posting", time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete posting %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProfile implements Store.UpsertProfile.
func (s *PostgresStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	defer observe("upsert_profile", time.Now())
	if p.ID == "" {
		return ErrEmptyID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO profiles (id, payload) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, p.ID, payload)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

// GetProfile implements Store.GetProfile.
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	defer observe("get_profile", time.Now())

	var p model.Profile
	if err := s.getPayload(ctx, `SELECT payload FROM profiles WHERE id = $1`, id, &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// Count implements Store.Count. Query failures count as an empty catalog.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM postings`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *PostgresStore) getPayload(ctx context.Context, query, id string, dst any) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}
	return nil
}
