package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lotus-cli/internal/cache"
	"github.com/sells-group/lotus-cli/internal/ingest"
	"github.com/sells-group/lotus-cli/internal/pipeline"
	"github.com/sells-group/lotus-cli/internal/resolve"
	"github.com/sells-group/lotus-cli/pkg/cheminfo"
	"github.com/sells-group/lotus-cli/pkg/crossref"
	"github.com/sells-group/lotus-cli/pkg/sparql"
)

// signalContext derives a context that is canceled on SIGINT or SIGTERM, so
// an interrupted run stops in-flight lookups instead of leaving them hanging.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// runEnv bundles everything a command needs for one run.
type runEnv struct {
	Pipeline *pipeline.Pipeline
	Cache    cache.Cache
	store    cache.Store
}

// Close releases the persistent cache, when one is open.
func (e *runEnv) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			zap.L().Warn("close cache store", zap.Error(err))
		}
	}
}

// initEnv builds the clients, the identifier cache, and the pipeline from
// configuration.
func initEnv(ctx context.Context) (*runEnv, error) {
	sparqlClient := sparql.NewClient(
		sparql.WithEndpoint(cfg.SPARQL.Endpoint),
		sparql.WithUserAgent(cfg.SPARQL.UserAgent),
		sparql.WithRateLimit(cfg.SPARQL.RateRPS),
	)
	crossrefClient := crossref.NewClient(
		crossref.WithBaseURL(cfg.Crossref.BaseURL),
		crossref.WithMailto(cfg.Crossref.Mailto),
	)
	cheminfoClient := cheminfo.NewClient(
		cheminfo.WithBaseURL(cfg.Cheminfo.BaseURL),
	)

	idCache, store, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	resolver := resolve.New(sparqlClient, crossrefClient, idCache)
	return &runEnv{
		Pipeline: pipeline.New(cheminfoClient, resolver, cfg.Batch.Concurrency),
		Cache:    idCache,
		store:    store,
	}, nil
}

// initCache builds the identifier cache per configuration: memory-only by
// default, or layered over sqlite/postgres when enabled.
func initCache(ctx context.Context) (cache.Cache, cache.Store, error) {
	store, err := openCacheStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return cache.NewMemory(), nil, nil
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return cache.NewLayered(store, cfg.Cache.TTL()), store, nil
}

func openCacheStore(ctx context.Context) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "", "off":
		return nil, nil
	case "sqlite":
		return cache.NewSQLite(cfg.Cache.Path)
	case "postgres":
		return cache.NewPostgres(ctx, cfg.Cache.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// inputColumns maps the configured header names for the ingest layer.
func inputColumns() ingest.ColumnConfig {
	return ingest.ColumnConfig{
		ChemicalName: cfg.Input.ChemicalNameColumn,
		SMILES:       cfg.Input.SMILESColumn,
		Taxon:        cfg.Input.TaxonColumn,
		DOI:          cfg.Input.DOIColumn,
	}
}
