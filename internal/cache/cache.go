// Package cache memoizes external identifier lookups so repeated rows
// referencing the same chemical, journal, or reference cost one query per
// run. The cache is an explicit per-run object, never a process global.
package cache

import (
	"context"
	"strings"
	"sync"
)

// Namespace identifies one class of identifier lookup.
type Namespace string

const (
	NamespaceChemical     Namespace = "chemical"
	NamespaceTaxon        Namespace = "taxon"
	NamespaceReference    Namespace = "reference"
	NamespaceJournalISSN  Namespace = "journal_issn"
	NamespaceJournalTitle Namespace = "journal_title"
)

// Entry is a memoized lookup outcome. Count is the number of knowledge-base
// matches seen; zero means the entity is known to be absent — a miss is
// itself a cached fact.
type Entry struct {
	QID   string `json:"qid,omitempty"`
	Count int    `json:"count"`
}

// Cache is the lookup memo used by the resolver.
type Cache interface {
	// Lookup returns the cached entry for (ns, key) and whether one exists.
	// A cache miss is not an error.
	Lookup(ctx context.Context, ns Namespace, key string) (Entry, bool, error)
	// Store records a lookup outcome.
	Store(ctx context.Context, ns Namespace, key string, entry Entry) error
}

// NormalizeDOI lower-cases and trims a DOI for use as a cache key.
func NormalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

// NormalizeISSN lower-cases and trims an ISSN for use as a cache key.
func NormalizeISSN(issn string) string {
	return strings.ToLower(strings.TrimSpace(issn))
}

// Memory is the in-process per-run cache. Safe for concurrent use by the
// resolver's parallel lookups; grows unbounded for the lifetime of one run.
type Memory struct {
	mu      sync.Mutex
	entries map[Namespace]map[string]Entry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Namespace]map[string]Entry)}
}

func (m *Memory) Lookup(_ context.Context, ns Namespace, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[ns][key]
	return entry, ok, nil
}

func (m *Memory) Store(_ context.Context, ns Namespace, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.entries[ns]
	if !ok {
		bucket = make(map[string]Entry)
		m.entries[ns] = bucket
	}
	bucket[key] = entry
	return nil
}

// Len reports the total number of cached entries, for run summaries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, bucket := range m.entries {
		n += len(bucket)
	}
	return n
}
