// Package decide turns resolved knowledge-base facts into a per-record plan:
// which entities to mint, whether the occurrence claim can go into this batch
// or must wait for a rerun, and what a curator needs to look at.
package decide

import (
	"fmt"

	"github.com/sells-group/lotus-cli/internal/model"
)

// Curator-facing issue texts. Kept as constants so the status report stays
// greppable across runs.
const (
	IssueTaxonNotFound = "Taxon entity not found in the knowledge base; taxonomic name resolution is not implemented."
	IssueDOINotFound   = "DOI missing in the knowledge base and the metadata lookup failed; reference must be curated manually."
	IssueClaimDeferred = "Occurrence deferred until the new reference item has a QID; rerun the importer after this batch finishes in QuickStatements."
	IssueClaimBlocked  = "Missing reference metadata prevents occurrence creation."
)

// Decide computes the plan for one record from its resolved facts. Pure: it
// performs no lookups and no I/O.
func Decide(facts model.ResolvedFacts) model.Decision {
	createChemical := !facts.Chemical.Found()
	createReference := !facts.Reference.Found() && facts.ReferenceMetadata != nil

	// A chemical is always available: either it exists or this batch
	// creates it.
	chemicalAvailable := facts.Chemical.Found() || createChemical
	taxonAvailable := facts.Taxon.Found()
	referenceAvailable := facts.Reference.Found() || createReference

	// A claim needs an existing reference QID. A reference minted in this
	// batch has no QID until the batch runs, so the claim is deferred to a
	// rerun instead.
	createClaim := !facts.ClaimExists &&
		chemicalAvailable &&
		facts.Reference.Found() &&
		taxonAvailable

	deferClaim := !facts.ClaimExists &&
		taxonAvailable &&
		chemicalAvailable &&
		!facts.Reference.Found() &&
		facts.ReferenceMetadata != nil

	var issues []string
	if !facts.Taxon.Found() {
		issues = append(issues, IssueTaxonNotFound)
	}
	if !facts.Reference.Found() && facts.ReferenceMetadata == nil {
		issues = append(issues, IssueDOINotFound)
	}
	if deferClaim {
		issues = append(issues, IssueClaimDeferred)
	} else if !facts.ClaimExists && !createClaim && taxonAvailable && !referenceAvailable {
		issues = append(issues, IssueClaimBlocked)
	}

	issues = append(issues, ambiguityIssues(facts)...)

	return model.Decision{
		CreateChemical:  createChemical,
		CreateReference: createReference,
		CreateClaim:     createClaim,
		DeferClaim:      deferClaim,
		Issues:          issues,
	}
}

// ambiguityIssues flags lookups that matched more than one item. The first
// match is used; the curator decides whether that was right.
func ambiguityIssues(facts model.ResolvedFacts) []string {
	var issues []string
	for _, amb := range []struct {
		label string
		match model.Match
	}{
		{"chemical", facts.Chemical},
		{"taxon", facts.Taxon},
		{"reference", facts.Reference},
	} {
		if amb.match.Ambiguous() {
			issues = append(issues, fmt.Sprintf(
				"Ambiguous %s match: %d items found, using %s; verify before upload.",
				amb.label, amb.match.Count, amb.match.QID))
		}
	}
	return issues
}
