package qs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lotus-cli/internal/decide"
	"github.com/sells-group/lotus-cli/internal/model"
)

func testRecord() model.EnrichedRecord {
	return model.EnrichedRecord{
		ChemicalName:     "TestChem",
		InputSMILES:      "C",
		SanitizedSMILES:  "C",
		TaxonName:        "TestTaxon",
		DOI:              "10.1/test",
		CanonicalSMILES:  "C",
		InChI:            "InChI=1S/CH4/h1H4",
		InChIKey:         "VNWKTOKETHGBQD-UHFFFAOYSA-N",
		MolecularFormula: "CH4",
	}
}

func found(qid string) model.Match { return model.Match{QID: qid, Count: 1} }

func testMetadata() *model.ReferenceMetadata {
	month, day := 3, 21
	return &model.ReferenceMetadata{
		DOI:             "10.1021/np50056a005",
		Title:           "Alkaloids of Coffea arabica",
		TitleLanguage:   "en",
		LanguageQID:     "Q1860",
		WorkTypeQID:     "Q13442814",
		PublicationDate: &model.ReferenceDate{Year: 1988, Month: &month, Day: &day},
		Volume:          "51",
		Issue:           "2",
		JournalQID:      "Q27714970",
		Authors: []model.ReferenceAuthor{
			{FullName: "Jane Smith", Ordinal: 1},
			{FullName: "Wei Chen", Ordinal: 2},
		},
		RetrievedOn: time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
	}
}

func generate(t *testing.T, rec model.EnrichedRecord, facts model.ResolvedFacts) []string {
	t.Helper()
	return NewGenerator().Record(rec, facts, decide.Decide(facts))
}

func TestCreateChemicalWithInBlockClaim(t *testing.T) {
	facts := model.ResolvedFacts{
		Taxon:     found("Q2"),
		Reference: found("Q3"),
	}
	lines := generate(t, testRecord(), facts)

	require.NotEmpty(t, lines)
	assert.Equal(t, "CREATE", lines[0])
	assert.Contains(t, lines, "LAST\tLen\t\"TestChem\"")
	assert.Contains(t, lines, "LAST\tDen\t\"type of chemical entity\"")
	assert.Contains(t, lines, "LAST\tP31\tQ113145171")
	assert.Contains(t, lines, "LAST\tP233\t\"C\"")
	assert.Contains(t, lines, "LAST\tP234\t\"InChI=1S/CH4/h1H4\"")
	assert.Contains(t, lines, "LAST\tP235\t\"VNWKTOKETHGBQD-UHFFFAOYSA-N\"")
	assert.Contains(t, lines, "LAST\tP274\t\"CH4\"")
	assert.Equal(t, "LAST\tP703\tQ2\tS248\tQ3", lines[len(lines)-1])
	assert.NotContains(t, lines, "LAST\tP2017\t\"\"", "empty isomeric SMILES is omitted")
}

func TestStandaloneClaimForExistingChemical(t *testing.T) {
	facts := model.ResolvedFacts{
		Chemical:  found("Q1"),
		Taxon:     found("Q2"),
		Reference: found("Q3"),
	}
	lines := generate(t, testRecord(), facts)
	require.Len(t, lines, 1)
	assert.Equal(t, "Q1\tP703\tQ2\tS248\tQ3", lines[0])
}

func TestClaimExistsEmitsNothing(t *testing.T) {
	facts := model.ResolvedFacts{
		Chemical:    found("Q1"),
		Taxon:       found("Q2"),
		Reference:   found("Q3"),
		ClaimExists: true,
	}
	assert.Empty(t, generate(t, testRecord(), facts))
}

func TestDeferredClaimEmitsReferenceOnly(t *testing.T) {
	facts := model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: testMetadata(),
	}
	lines := generate(t, testRecord(), facts)

	require.NotEmpty(t, lines)
	assert.Equal(t, "CREATE", lines[0])
	for _, line := range lines {
		assert.NotContains(t, line, "P703", "no occurrence without a reference QID")
	}
}

func TestReferenceBlockShape(t *testing.T) {
	facts := model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: testMetadata(),
	}
	lines := generate(t, testRecord(), facts)

	require.NotEmpty(t, lines)
	assert.Equal(t, "CREATE", lines[0])
	assert.Equal(t, "LAST\tLmul\t\"Alkaloids of Coffea arabica\"", lines[1])
	assert.Contains(t, lines, "LAST\tDen\t\"scholarly reference\"")
	assert.Contains(t, lines, "LAST\tP31\tQ13442814")
	assert.Contains(t, lines,
		"LAST\tP356\t\"10.1021/np50056a005\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP1476\ten:\"Alkaloids of Coffea arabica\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP407\tQ1860\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP577\t+1988-03-21T00:00:00Z/11\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP1433\tQ27714970\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP478\t\"51\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP433\t\"2\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP2093\t\"Jane Smith\"\tP1545\t\"1\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	assert.Contains(t, lines,
		"LAST\tP2093\t\"Wei Chen\"\tP1545\t\"2\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
}

func TestReferenceWithoutLanguageUsesMul(t *testing.T) {
	meta := testMetadata()
	meta.TitleLanguage = ""
	meta.LanguageQID = ""
	facts := model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: meta,
	}
	lines := generate(t, testRecord(), facts)

	assert.Contains(t, lines,
		"LAST\tP1476\tmul:\"Alkaloids of Coffea arabica\"\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
	for _, line := range lines {
		assert.NotContains(t, line, "P407")
	}
}

func TestYearPrecisionPublicationDate(t *testing.T) {
	meta := testMetadata()
	meta.PublicationDate = &model.ReferenceDate{Year: 1988}
	facts := model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: meta,
	}
	lines := generate(t, testRecord(), facts)
	assert.Contains(t, lines,
		"LAST\tP577\t+1988-00-00T00:00:00Z/9\tS248\tQ5188229\tS813\t+2026-08-30T00:00:00Z/11")
}

func TestReferenceDedupAcrossRecords(t *testing.T) {
	g := NewGenerator()
	meta := testMetadata()
	facts := model.ResolvedFacts{
		Chemical:          found("Q1"),
		Taxon:             found("Q2"),
		ReferenceMetadata: meta,
	}
	first := g.Record(testRecord(), facts, decide.Decide(facts))
	assert.Equal(t, "CREATE", first[0])

	// Same DOI in another casing must not mint a second item.
	metaUpper := *meta
	metaUpper.DOI = strings.ToUpper(meta.DOI)
	factsUpper := facts
	factsUpper.ReferenceMetadata = &metaUpper
	second := g.Record(testRecord(), factsUpper, decide.Decide(factsUpper))
	assert.Empty(t, second)
}

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, `a \"quoted\" title`, escapeLiteral(`a "quoted" title`))
	assert.Equal(t, `back\\slash`, escapeLiteral(`back\slash`))
	assert.Equal(t, "two lines", escapeLiteral("two\nlines"))
	assert.Equal(t, "trimmed", escapeLiteral("  trimmed  "))
}

func TestBatchURL(t *testing.T) {
	url := BatchURL("CREATE\nLAST\tLen\t\"X\"\r\n")
	assert.True(t, strings.HasPrefix(url, "https://quickstatements.toolforge.org/#/v1="))
	assert.NotContains(t, url, "\t")
	assert.NotContains(t, url, "\n")
	assert.Contains(t, url, "CREATE%7C%7CLAST%7CLen%7C%22X%22")
}

func TestRunIsIdempotentWhenEverythingExists(t *testing.T) {
	g := NewGenerator()
	facts := model.ResolvedFacts{
		Chemical:    found("Q1"),
		Taxon:       found("Q2"),
		Reference:   found("Q3"),
		ClaimExists: true,
	}
	for range 3 {
		assert.Empty(t, g.Record(testRecord(), facts, decide.Decide(facts)))
	}
}
