// Package pipeline orchestrates one import run: enrich and resolve records
// concurrently, then walk them in input order to decide and generate the
// batch. Generation is deliberately single-threaded; the command stream's
// meaning depends on line order.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lotus-cli/internal/decide"
	"github.com/sells-group/lotus-cli/internal/model"
	"github.com/sells-group/lotus-cli/internal/qs"
	"github.com/sells-group/lotus-cli/internal/resolve"
	"github.com/sells-group/lotus-cli/pkg/cheminfo"
)

// DefaultConcurrency bounds parallel record resolution. Kept modest: both
// upstream services are shared community infrastructure.
const DefaultConcurrency = 4

// Pipeline wires the enrichment client and the resolver into a run.
type Pipeline struct {
	chem        cheminfo.Client
	resolver    *resolve.Resolver
	concurrency int
}

// New creates a pipeline. A non-positive concurrency falls back to the
// default.
func New(chem cheminfo.Client, resolver *resolve.Resolver, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{chem: chem, resolver: resolver, concurrency: concurrency}
}

// Result is everything one run produced: the command stream, the per-record
// reports in input order, and the aggregate counts.
type Result struct {
	Commands []string
	Reports  []model.RecordReport
	Summary  Summary
}

// Summary aggregates a run for the operator.
type Summary struct {
	Records            int `json:"records"`
	Processed          int `json:"processed"`
	Failed             int `json:"failed"`
	ChemicalCreations  int `json:"chemical_creations"`
	ReferenceCreations int `json:"reference_creations"`
	ClaimsQueued       int `json:"claims_queued"`
	ClaimsDeferred     int `json:"claims_deferred"`
	UnresolvedTaxa     int `json:"unresolved_taxa"`
	NeedsReview        int `json:"needs_review"`
}

// resolved is the per-record outcome of the concurrent phase, held in an
// input-order slice so the sequential phase sees a deterministic stream.
type resolved struct {
	enriched model.EnrichedRecord
	facts    model.ResolvedFacts
	err      error
}

// Run processes the records end to end. A record that fails enrichment or
// resolution is reported and skipped; it never aborts the batch.
func (p *Pipeline) Run(ctx context.Context, records []model.InputRecord) (*Result, error) {
	outcomes, err := p.resolveAll(ctx, records)
	if err != nil {
		return nil, err
	}
	return p.generate(records, outcomes), nil
}

// Enrich runs only the enrichment and resolution phase, for dry-run
// validation. Per-record failures come back in the parallel error slice.
func (p *Pipeline) Enrich(ctx context.Context, records []model.InputRecord) ([]model.EnrichedRecord, []error, error) {
	outcomes, err := p.resolveAll(ctx, records)
	if err != nil {
		return nil, nil, err
	}

	enriched := make([]model.EnrichedRecord, len(records))
	errs := make([]error, len(records))
	for i, out := range outcomes {
		enriched[i] = out.enriched
		errs[i] = out.err
	}
	return enriched, errs, nil
}

func (p *Pipeline) resolveAll(ctx context.Context, records []model.InputRecord) ([]resolved, error) {
	outcomes := make([]resolved, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			outcomes[i] = p.resolveOne(gctx, i, rec)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *Pipeline) resolveOne(ctx context.Context, idx int, rec model.InputRecord) resolved {
	rowNum := idx + 2 // input row: header + 1-based

	structure, err := p.chem.Enrich(ctx, rec.SMILES)
	if err != nil {
		zap.L().Error("pipeline: enrichment failed",
			zap.Int("row", rowNum),
			zap.String("smiles", rec.SMILES),
			zap.Error(err),
		)
		return resolved{
			enriched: model.EnrichedRecord{
				ChemicalName:    rec.ChemicalName,
				InputSMILES:     rec.SMILES,
				SanitizedSMILES: rec.SMILES,
				TaxonName:       rec.TaxonName,
				DOI:             rec.DOI,
			},
			err: fmt.Errorf("row %d: enrichment failed for SMILES %s: %w", rowNum, rec.SMILES, err),
		}
	}

	enriched := model.EnrichedRecord{
		ChemicalName:     rec.ChemicalName,
		InputSMILES:      rec.SMILES,
		SanitizedSMILES:  structure.SanitizedSMILES,
		Sanitized:        structure.Sanitized,
		TaxonName:        rec.TaxonName,
		DOI:              rec.DOI,
		CanonicalSMILES:  structure.CanonicalSMILES,
		IsomericSMILES:   structure.IsomericSMILES,
		InChI:            structure.InChI,
		InChIKey:         structure.InChIKey,
		MolecularFormula: structure.MolecularFormula,
		ExactMass:        structure.ExactMass,
		OtherDescriptors: structure.OtherDescriptors,
	}

	facts, err := p.resolver.Resolve(ctx, enriched)
	if err != nil {
		zap.L().Error("pipeline: resolution failed",
			zap.Int("row", rowNum),
			zap.String("inchikey", enriched.InChIKey),
			zap.Error(err),
		)
		return resolved{
			enriched: enriched,
			err:      fmt.Errorf("row %d: knowledge-base check failed for InChIKey %s: %w", rowNum, enriched.InChIKey, err),
		}
	}

	return resolved{enriched: enriched, facts: facts}
}

// generate walks the resolved records in input order, applying the decision
// engine and the command generator.
func (p *Pipeline) generate(records []model.InputRecord, outcomes []resolved) *Result {
	gen := qs.NewGenerator()
	result := &Result{
		Reports: make([]model.RecordReport, 0, len(records)),
	}
	result.Summary.Records = len(records)

	for _, out := range outcomes {
		report := model.RecordReport{
			ChemicalName: out.enriched.ChemicalName,
			SMILES:       out.enriched.SanitizedSMILES,
			TaxonName:    out.enriched.TaxonName,
			DOI:          out.enriched.DOI,
		}

		if out.err != nil {
			report.Status = model.StatusFailed
			report.Error = out.err.Error()
			result.Summary.Failed++
			result.Reports = append(result.Reports, report)
			continue
		}

		decision := decide.Decide(out.facts)
		result.Commands = append(result.Commands, gen.Record(out.enriched, out.facts, decision)...)

		report.ChemicalQID = out.facts.Chemical.QID
		report.TaxonQID = out.facts.Taxon.QID
		report.ReferenceQID = out.facts.Reference.QID
		report.CreateChemical = decision.CreateChemical
		report.CreateReference = decision.CreateReference
		report.CreateClaim = decision.CreateClaim
		report.DeferClaim = decision.DeferClaim
		report.Issues = decision.Issues
		report.Status = model.StatusEmitted
		if decision.DeferClaim {
			report.Status = model.StatusDeferred
		}

		result.Summary.Processed++
		if decision.CreateChemical {
			result.Summary.ChemicalCreations++
		}
		if decision.CreateReference {
			result.Summary.ReferenceCreations++
		}
		if decision.CreateClaim {
			result.Summary.ClaimsQueued++
		}
		if decision.DeferClaim {
			result.Summary.ClaimsDeferred++
		}
		if !out.facts.Taxon.Found() {
			result.Summary.UnresolvedTaxa++
		}
		if len(decision.Issues) > 0 {
			result.Summary.NeedsReview++
		}

		result.Reports = append(result.Reports, report)
	}

	return result
}
