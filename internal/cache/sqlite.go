package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Timestamps are stored as unix epoch seconds so expiry comparisons are
// independent of driver datetime formatting.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS identifier_cache (
	id          TEXT PRIMARY KEY,
	namespace   TEXT NOT NULL,
	key         TEXT NOT NULL,
	qid         TEXT NOT NULL DEFAULT '',
	match_count INTEGER NOT NULL DEFAULT 0,
	run_id      TEXT NOT NULL,
	cached_at   INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL,
	UNIQUE (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_identifier_cache_expires_at ON identifier_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, ns Namespace, key string) (*Entry, error) {
	var entry Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT qid, match_count FROM identifier_cache
		 WHERE namespace = ? AND key = ? AND expires_at > ?`,
		string(ns), key, time.Now().Unix(),
	).Scan(&entry.QID, &entry.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get entry")
	}
	return &entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, ns Namespace, key string, entry Entry, runID string, ttl time.Duration) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identifier_cache (id, namespace, key, qid, match_count, run_id, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		   qid = excluded.qid,
		   match_count = excluded.match_count,
		   run_id = excluded.run_id,
		   cached_at = excluded.cached_at,
		   expires_at = excluded.expires_at`,
		uuid.New().String(), string(ns), key, entry.QID, entry.Count, runID, now.Unix(), now.Add(ttl).Unix(),
	)
	return eris.Wrap(err, "sqlite: put entry")
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM identifier_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
