package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is a persistent identifier-cache backend. Entries carry a TTL so
// stale knowledge-base state ages out between runs.
type Store interface {
	// Get returns the entry for (ns, key), or nil when absent or expired.
	Get(ctx context.Context, ns Namespace, key string) (*Entry, error)
	// Put records an entry with the given TTL, tagged with the run that
	// produced it.
	Put(ctx context.Context, ns Namespace, key string, entry Entry, runID string, ttl time.Duration) error
	// PurgeExpired deletes expired rows and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
	// Migrate creates the schema.
	Migrate(ctx context.Context) error
	Close() error
}

// Layered fronts a persistent Store with the per-run Memory cache. The
// memory layer is authoritative within a run; the store only pre-warms it
// across runs (useful when a deferred batch is rerun the next day).
type Layered struct {
	mem   *Memory
	store Store
	ttl   time.Duration
	runID string
}

// NewLayered creates a layered cache over the given store.
func NewLayered(store Store, ttl time.Duration) *Layered {
	return &Layered{
		mem:   NewMemory(),
		store: store,
		ttl:   ttl,
		runID: uuid.New().String(),
	}
}

// RunID returns the identifier tagged onto persisted entries this run.
func (l *Layered) RunID() string { return l.runID }

func (l *Layered) Lookup(ctx context.Context, ns Namespace, key string) (Entry, bool, error) {
	if entry, ok, err := l.mem.Lookup(ctx, ns, key); err == nil && ok {
		return entry, true, nil
	}

	stored, err := l.store.Get(ctx, ns, key)
	if err != nil {
		// A broken persistent layer degrades to memory-only; resolution
		// must not fail because the warm cache is unavailable.
		zap.L().Warn("cache: persistent lookup failed",
			zap.String("namespace", string(ns)),
			zap.Error(err),
		)
		return Entry{}, false, nil
	}
	if stored == nil {
		return Entry{}, false, nil
	}

	_ = l.mem.Store(ctx, ns, key, *stored)
	return *stored, true, nil
}

func (l *Layered) Store(ctx context.Context, ns Namespace, key string, entry Entry) error {
	if err := l.mem.Store(ctx, ns, key, entry); err != nil {
		return err
	}
	if err := l.store.Put(ctx, ns, key, entry, l.runID, l.ttl); err != nil {
		zap.L().Warn("cache: persistent store failed",
			zap.String("namespace", string(ns)),
			zap.Error(err),
		)
	}
	return nil
}
