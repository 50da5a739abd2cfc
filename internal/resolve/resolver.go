// Package resolve answers, for one enriched record, what already exists in
// the knowledge base: the chemical, the taxon, the reference, and the exact
// occurrence claim. Lookups are memoized through the identifier cache so a
// batch with repeated taxa or references costs one query per distinct key.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lotus-cli/internal/cache"
	"github.com/sells-group/lotus-cli/internal/model"
	"github.com/sells-group/lotus-cli/pkg/crossref"
	"github.com/sells-group/lotus-cli/pkg/sparql"
)

// Resolver resolves record identifiers against the knowledge base, falling
// back to the bibliographic registry for references the knowledge base does
// not have yet.
type Resolver struct {
	sparql   sparql.Client
	crossref crossref.Client
	cache    cache.Cache
}

// New creates a resolver over the given clients and cache.
func New(sp sparql.Client, cr crossref.Client, c cache.Cache) *Resolver {
	return &Resolver{sparql: sp, crossref: cr, cache: c}
}

// Resolve gathers all knowledge-base facts for one record. The three entity
// lookups run concurrently; the claim check and the bibliographic fallback
// run after, since they depend on the lookup outcomes.
func (r *Resolver) Resolve(ctx context.Context, rec model.EnrichedRecord) (model.ResolvedFacts, error) {
	if rec.InChIKey == "" {
		return model.ResolvedFacts{}, eris.Errorf("resolve: record %q has no InChIKey", rec.ChemicalName)
	}

	var facts model.ResolvedFacts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := r.ResolveChemical(gctx, rec.InChIKey)
		facts.Chemical = m
		return err
	})
	g.Go(func() error {
		m, err := r.ResolveTaxon(gctx, rec.TaxonName)
		facts.Taxon = m
		return err
	})
	g.Go(func() error {
		m, err := r.ResolveReference(gctx, rec.DOI)
		facts.Reference = m
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ResolvedFacts{}, err
	}

	switch {
	case facts.Chemical.Found() && facts.Taxon.Found() && facts.Reference.Found():
		exists, err := r.ClaimExists(ctx, facts.Chemical.QID, facts.Taxon.QID, facts.Reference.QID)
		if err != nil {
			return model.ResolvedFacts{}, err
		}
		facts.ClaimExists = exists
	case !facts.Reference.Found():
		meta, err := r.ReferenceMetadata(ctx, rec.DOI)
		if err != nil {
			// A failed metadata fetch degrades the record to
			// "reference unknown", it does not fail the run.
			zap.L().Warn("resolve: reference metadata fetch failed",
				zap.String("doi", rec.DOI),
				zap.Error(err),
			)
		} else {
			facts.ReferenceMetadata = meta
		}
	}

	return facts, nil
}

// ResolveChemical finds the chemical item carrying the given InChIKey.
func (r *Resolver) ResolveChemical(ctx context.Context, inchikey string) (model.Match, error) {
	query := fmt.Sprintf(`SELECT ?item WHERE { ?item wdt:P235 "%s". }`, sparql.EscapeLiteral(inchikey))
	return r.cachedSelect(ctx, cache.NamespaceChemical, inchikey, query)
}

// ResolveTaxon finds the taxon item whose taxon name matches exactly.
func (r *Resolver) ResolveTaxon(ctx context.Context, name string) (model.Match, error) {
	query := fmt.Sprintf(`SELECT ?item WHERE { ?item wdt:P225 "%s". }`, sparql.EscapeLiteral(name))
	return r.cachedSelect(ctx, cache.NamespaceTaxon, name, query)
}

// ResolveReference finds the publication item carrying the given DOI. DOIs
// are registered case-insensitively but stored literally, so the lookup
// tries the DOI as given, upper-cased, and lower-cased, stopping at the
// first hit. Each variant is checked in the main graph and the scholarly
// articles subgraph.
func (r *Resolver) ResolveReference(ctx context.Context, doi string) (model.Match, error) {
	trimmed := strings.TrimSpace(doi)
	key := cache.NormalizeDOI(doi)

	if entry, ok, err := r.cache.Lookup(ctx, cache.NamespaceReference, key); err == nil && ok {
		return model.Match{QID: entry.QID, Count: entry.Count}, nil
	}

	candidates := []string{trimmed}
	if upper := strings.ToUpper(trimmed); upper != trimmed {
		candidates = append(candidates, upper)
	}
	if lower := strings.ToLower(trimmed); lower != trimmed && lower != strings.ToUpper(trimmed) {
		candidates = append(candidates, lower)
	}

	var match model.Match
	for _, candidate := range candidates {
		query := fmt.Sprintf(`SELECT ?item WHERE {
	{ ?item wdt:P356 "%[1]s". }
	UNION
	{ SERVICE wdsubgraph:scholarly_articles { ?item wdt:P356 "%[1]s". } }
}`, sparql.EscapeLiteral(candidate))

		result, err := r.sparql.Select(ctx, query)
		if err != nil {
			return model.Match{}, eris.Wrapf(err, "resolve: reference lookup for DOI %q", trimmed)
		}
		if items := result.Items("item"); len(items) > 0 {
			match = model.Match{QID: items[0], Count: len(items)}
			break
		}
	}

	r.storeMatch(ctx, cache.NamespaceReference, key, match)
	return match, nil
}

// ClaimExists checks whether the occurrence statement already exists at
// normal rank with the reference as a stated-in source.
func (r *Resolver) ClaimExists(ctx context.Context, chemicalQID, taxonQID, referenceQID string) (bool, error) {
	query := fmt.Sprintf(`ASK WHERE {
	wd:%s p:P703 ?statement.
	?statement ps:P703 wd:%s;
		wikibase:rank wikibase:NormalRank;
		(prov:wasDerivedFrom/pr:P248) wd:%s.
}`, chemicalQID, taxonQID, referenceQID)

	exists, err := r.sparql.Ask(ctx, query)
	if err != nil {
		return false, eris.Wrap(err, "resolve: occurrence check")
	}
	return exists, nil
}

// ReferenceMetadata fetches bibliographic metadata for a DOI missing from
// the knowledge base, and tries to match its container journal to an
// existing item by ISSN, then by case-insensitive title. Journal match
// failures are warnings: the reference can still be minted without P1433.
func (r *Resolver) ReferenceMetadata(ctx context.Context, doi string) (*model.ReferenceMetadata, error) {
	work, err := r.crossref.Work(ctx, doi)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return nil, nil
	}

	meta := workToMetadata(work)

	if meta.ISSN != "" {
		match, err := r.ResolveJournalByISSN(ctx, meta.ISSN)
		if err != nil {
			zap.L().Warn("resolve: journal ISSN lookup failed",
				zap.String("issn", meta.ISSN),
				zap.Error(err),
			)
		} else if match.Found() {
			meta.JournalQID = match.QID
		}
	}
	if meta.JournalQID == "" && meta.ContainerTitle != "" {
		match, err := r.ResolveJournalByTitle(ctx, meta.ContainerTitle)
		if err != nil {
			zap.L().Warn("resolve: journal title lookup failed",
				zap.String("title", meta.ContainerTitle),
				zap.Error(err),
			)
		} else if match.Found() {
			meta.JournalQID = match.QID
		}
	}

	return meta, nil
}

// ResolveJournalByISSN finds the journal item carrying the given ISSN.
func (r *Resolver) ResolveJournalByISSN(ctx context.Context, issn string) (model.Match, error) {
	query := fmt.Sprintf(`SELECT ?item WHERE { ?item wdt:P236 "%s". } LIMIT 1`,
		sparql.EscapeLiteral(strings.TrimSpace(issn)))
	return r.cachedSelect(ctx, cache.NamespaceJournalISSN, cache.NormalizeISSN(issn), query)
}

// ResolveJournalByTitle finds a periodical whose label matches the title
// case-insensitively. Restricted to journal-like classes so a work sharing
// its name with, say, a film does not match.
func (r *Resolver) ResolveJournalByTitle(ctx context.Context, title string) (model.Match, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return model.Match{}, nil
	}
	query := fmt.Sprintf(`SELECT ?item WHERE {
	VALUES ?class { wd:Q5633421 wd:Q1002697 wd:Q737498 }
	?item wdt:P31/wdt:P279* ?class ;
		rdfs:label ?label .
	FILTER (lcase(str(?label)) = lcase("%s"))
} LIMIT 1`, sparql.EscapeLiteral(trimmed))
	return r.cachedSelect(ctx, cache.NamespaceJournalTitle, strings.ToLower(trimmed), query)
}

// cachedSelect runs a single-variable SELECT with cache memoization on
// (ns, key). A zero-match outcome is cached too.
func (r *Resolver) cachedSelect(ctx context.Context, ns cache.Namespace, key, query string) (model.Match, error) {
	if entry, ok, err := r.cache.Lookup(ctx, ns, key); err == nil && ok {
		return model.Match{QID: entry.QID, Count: entry.Count}, nil
	}

	result, err := r.sparql.Select(ctx, query)
	if err != nil {
		return model.Match{}, eris.Wrapf(err, "resolve: %s lookup", ns)
	}

	var match model.Match
	if items := result.Items("item"); len(items) > 0 {
		match = model.Match{QID: items[0], Count: len(items)}
	}
	r.storeMatch(ctx, ns, key, match)
	return match, nil
}

func (r *Resolver) storeMatch(ctx context.Context, ns cache.Namespace, key string, match model.Match) {
	if err := r.cache.Store(ctx, ns, key, cache.Entry{QID: match.QID, Count: match.Count}); err != nil {
		zap.L().Warn("resolve: cache store failed", zap.String("namespace", string(ns)), zap.Error(err))
	}
}

// workToMetadata converts a bibliographic work record into the minting
// metadata the command generator consumes.
func workToMetadata(work *crossref.Work) *model.ReferenceMetadata {
	meta := &model.ReferenceMetadata{
		DOI:            work.DOI,
		Title:          work.Title,
		TitleLanguage:  work.Language,
		LanguageQID:    crossref.LanguageQID(work.Language),
		WorkTypeQID:    crossref.WorkTypeQID(work.Type),
		Volume:         work.Volume,
		Issue:          work.Issue,
		ContainerTitle: work.ContainerTitle,
		ISSN:           work.ISSN,
		RetrievedOn:    work.Retrieved,
	}
	if work.Issued != nil {
		meta.PublicationDate = &model.ReferenceDate{
			Year:  work.Issued.Year,
			Month: work.Issued.Month,
			Day:   work.Issued.Day,
		}
	}
	for _, author := range work.Authors {
		meta.Authors = append(meta.Authors, model.ReferenceAuthor{
			FullName: author.Name,
			Ordinal:  author.Ordinal,
		})
	}
	return meta
}
