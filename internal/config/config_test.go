package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://query.wikidata.org/sparql", cfg.SPARQL.Endpoint)
	assert.Equal(t, 5.0, cfg.SPARQL.RateRPS)
	assert.Equal(t, "https://api.crossref.org", cfg.Crossref.BaseURL)
	assert.Equal(t, "https://api.naturalproducts.net/latest", cfg.Cheminfo.BaseURL)
	assert.Equal(t, "off", cfg.Cache.Driver)
	assert.Equal(t, 168, cfg.Cache.TTLHours)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "chemical_entity_name", cfg.Input.ChemicalNameColumn)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOTUS_SPARQL_ENDPOINT", "http://localhost:9999/sparql")
	t.Setenv("LOTUS_CACHE_DRIVER", "sqlite")
	t.Setenv("LOTUS_BATCH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/sparql", cfg.SPARQL.Endpoint)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
}

func TestCacheTTL(t *testing.T) {
	cfg := CacheConfig{TTLHours: 24}
	assert.Equal(t, 24*time.Hour, cfg.TTL())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope"}))
}
