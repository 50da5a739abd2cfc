package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	entry, err := store.Get(ctx, NamespaceChemical, "RYYVLZVUVIJVGH-UHFFFAOYSA-N")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, store.Put(ctx, NamespaceChemical, "RYYVLZVUVIJVGH-UHFFFAOYSA-N",
		Entry{QID: "Q60235", Count: 1}, "run-1", time.Hour))

	entry, err = store.Get(ctx, NamespaceChemical, "RYYVLZVUVIJVGH-UHFFFAOYSA-N")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Q60235", entry.QID)
	assert.Equal(t, 1, entry.Count)
}

func TestSQLiteUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	require.NoError(t, store.Put(ctx, NamespaceTaxon, "Coffea arabica", Entry{}, "run-1", time.Hour))
	require.NoError(t, store.Put(ctx, NamespaceTaxon, "Coffea arabica", Entry{QID: "Q47685", Count: 1}, "run-2", time.Hour))

	entry, err := store.Get(ctx, NamespaceTaxon, "Coffea arabica")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Q47685", entry.QID)
}

func TestSQLiteExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	require.NoError(t, store.Put(ctx, NamespaceReference, "10.1234/old",
		Entry{QID: "Q1", Count: 1}, "run-1", -time.Minute))
	require.NoError(t, store.Put(ctx, NamespaceReference, "10.1234/fresh",
		Entry{QID: "Q2", Count: 1}, "run-1", time.Hour))

	entry, err := store.Get(ctx, NamespaceReference, "10.1234/old")
	require.NoError(t, err)
	assert.Nil(t, entry)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	entry, err = store.Get(ctx, NamespaceReference, "10.1234/fresh")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Q2", entry.QID)
}
