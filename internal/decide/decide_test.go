package decide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lotus-cli/internal/model"
)

func found(qid string) model.Match { return model.Match{QID: qid, Count: 1} }

func metadata() *model.ReferenceMetadata {
	return &model.ReferenceMetadata{
		DOI:         "10.1234/abc",
		Title:       "A title",
		WorkTypeQID: "Q13442814",
		RetrievedOn: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestAllEntitiesExistClaimMissing(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical:  found("Q1"),
		Taxon:     found("Q2"),
		Reference: found("Q3"),
	})
	assert.False(t, d.CreateChemical)
	assert.False(t, d.CreateReference)
	assert.True(t, d.CreateClaim)
	assert.False(t, d.DeferClaim)
	assert.Empty(t, d.Issues)
}

func TestClaimAlreadyExists(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical:    found("Q1"),
		Taxon:       found("Q2"),
		Reference:   found("Q3"),
		ClaimExists: true,
	})
	assert.False(t, d.CreateClaim)
	assert.False(t, d.DeferClaim)
	assert.Empty(t, d.Issues)
}

func TestNewChemicalExistingReference(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Taxon:     found("Q2"),
		Reference: found("Q3"),
	})
	assert.True(t, d.CreateChemical)
	assert.False(t, d.CreateReference)
	assert.True(t, d.CreateClaim, "claim rides on the chemical created in this batch")
	assert.False(t, d.DeferClaim)
}

func TestNewReferenceDefersClaim(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: metadata(),
	})
	assert.True(t, d.CreateReference)
	assert.False(t, d.CreateClaim)
	assert.True(t, d.DeferClaim)
	assert.Contains(t, d.Issues, IssueClaimDeferred)
}

func TestMissingTaxonBlocksClaim(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical:  found("Q1"),
		Reference: found("Q3"),
	})
	assert.False(t, d.CreateClaim)
	assert.False(t, d.DeferClaim)
	assert.Contains(t, d.Issues, IssueTaxonNotFound)
}

func TestMissingReferenceNoMetadata(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical: found("Q1"),
		Taxon:    found("Q2"),
	})
	assert.False(t, d.CreateReference)
	assert.False(t, d.CreateClaim)
	assert.False(t, d.DeferClaim)
	assert.Contains(t, d.Issues, IssueDOINotFound)
	assert.Contains(t, d.Issues, IssueClaimBlocked)
}

func TestNewChemicalAndNewReference(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Taxon:             found("Q2"),
		ReferenceMetadata: metadata(),
	})
	assert.True(t, d.CreateChemical)
	assert.True(t, d.CreateReference)
	assert.False(t, d.CreateClaim)
	assert.True(t, d.DeferClaim)
}

func TestAmbiguousTaxonFlagged(t *testing.T) {
	d := Decide(model.ResolvedFacts{
		Chemical:  found("Q1"),
		Taxon:     model.Match{QID: "Q2", Count: 3},
		Reference: found("Q3"),
	})
	assert.True(t, d.CreateClaim, "first match still drives the plan")
	assert.Len(t, d.Issues, 1)
	assert.Contains(t, d.Issues[0], "Ambiguous taxon match: 3 items found, using Q2")
}

func TestDecideIsPure(t *testing.T) {
	facts := model.ResolvedFacts{
		Chemical:  found("Q1"),
		Taxon:     found("Q2"),
		Reference: found("Q3"),
	}
	first := Decide(facts)
	second := Decide(facts)
	assert.Equal(t, first, second)
}
