package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache store needs. It is also
// satisfied by pgxmock pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store backed by a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used in tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS identifier_cache (
	id          UUID PRIMARY KEY,
	namespace   TEXT NOT NULL,
	key         TEXT NOT NULL,
	qid         TEXT NOT NULL DEFAULT '',
	match_count INTEGER NOT NULL DEFAULT 0,
	run_id      TEXT NOT NULL,
	cached_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_identifier_cache_expires_at ON identifier_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ns Namespace, key string) (*Entry, error) {
	var entry Entry
	err := s.pool.QueryRow(ctx,
		`SELECT qid, match_count FROM identifier_cache
		 WHERE namespace = $1 AND key = $2 AND expires_at > now()`,
		string(ns), key,
	).Scan(&entry.QID, &entry.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get entry")
	}
	return &entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, ns Namespace, key string, entry Entry, runID string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO identifier_cache (id, namespace, key, qid, match_count, run_id, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		   qid = EXCLUDED.qid,
		   match_count = EXCLUDED.match_count,
		   run_id = EXCLUDED.run_id,
		   cached_at = EXCLUDED.cached_at,
		   expires_at = EXCLUDED.expires_at`,
		uuid.New(), string(ns), key, entry.QID, entry.Count, runID, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: put entry")
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM identifier_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge expired")
	}
	return int(tag.RowsAffected()), nil
}
