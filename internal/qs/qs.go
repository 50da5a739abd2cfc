// Package qs renders reconciliation decisions as QuickStatements V1
// commands. Generation is strictly sequential: the LAST placeholder binds to
// the nearest preceding CREATE, so command order is the correctness model.
package qs

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/lotus-cli/internal/model"
)

// Wikidata vocabulary used by the generated commands.
const (
	chemicalClassQID       = "Q113145171" // type of chemical entity
	chemicalDescription    = "type of chemical entity"
	referenceDescription   = "scholarly reference"
	crossrefQID            = "Q5188229"
	quickStatementsBaseURL = "https://quickstatements.toolforge.org/#/v1="
)

// Generator builds the command stream for one run. It owns the only mutable
// generation state: the set of DOIs whose reference items were already
// emitted, so a DOI shared by many rows is minted exactly once per batch.
type Generator struct {
	emittedDOIs map[string]struct{}
}

// NewGenerator creates a generator with empty run state.
func NewGenerator() *Generator {
	return &Generator{emittedDOIs: make(map[string]struct{})}
}

// Record emits the commands for one record in dependency order: the
// deduplicated reference block first, then the chemical CREATE block (with
// its in-block occurrence claim), then the standalone claim for an existing
// chemical. A record whose decision requires nothing yields no commands.
func (g *Generator) Record(rec model.EnrichedRecord, facts model.ResolvedFacts, decision model.Decision) []string {
	var commands []string

	if decision.CreateReference && facts.ReferenceMetadata != nil {
		key := strings.ToLower(facts.ReferenceMetadata.DOI)
		if _, seen := g.emittedDOIs[key]; !seen {
			g.emittedDOIs[key] = struct{}{}
			commands = append(commands, referenceCommands(facts.ReferenceMetadata)...)
		}
	}

	if decision.CreateChemical {
		commands = append(commands, chemicalCommands(rec)...)
		// The occurrence rides on the fresh item via LAST; it needs
		// existing taxon and reference QIDs.
		if decision.CreateClaim {
			commands = append(commands, fmt.Sprintf("LAST\tP703\t%s\tS248\t%s",
				facts.Taxon.QID, facts.Reference.QID))
		}
	} else if decision.CreateClaim {
		commands = append(commands, fmt.Sprintf("%s\tP703\t%s\tS248\t%s",
			facts.Chemical.QID, facts.Taxon.QID, facts.Reference.QID))
	}

	return commands
}

// chemicalCommands mints a chemical item from its structural descriptors.
// Structure literals are emitted verbatim: SMILES legitimately contain
// backslashes and escaping them would corrupt the notation.
func chemicalCommands(rec model.EnrichedRecord) []string {
	commands := []string{
		"CREATE",
		fmt.Sprintf("LAST\tLen\t%q", rec.ChemicalName),
		fmt.Sprintf("LAST\tDen\t%q", chemicalDescription),
		"LAST\tP31\t" + chemicalClassQID,
	}
	if rec.CanonicalSMILES != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP233\t\"%s\"", rec.CanonicalSMILES))
	}
	if rec.IsomericSMILES != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP2017\t\"%s\"", rec.IsomericSMILES))
	}
	if rec.InChI != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP234\t\"%s\"", rec.InChI))
	}
	if rec.InChIKey != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP235\t\"%s\"", rec.InChIKey))
	}
	if rec.MolecularFormula != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP274\t\"%s\"", rec.MolecularFormula))
	}
	return commands
}

// referenceCommands mints a publication item. Every statement carries the
// registry as stated-in (S248) plus the retrieval date (S813), so provenance
// survives on the minted item.
func referenceCommands(meta *model.ReferenceMetadata) []string {
	retrieved := meta.RetrievedTime()
	title := escapeLiteral(meta.Title)

	commands := []string{
		"CREATE",
		fmt.Sprintf("LAST\tLmul\t\"%s\"", title),
		fmt.Sprintf("LAST\tDen\t%q", referenceDescription),
		"LAST\tP31\t" + meta.WorkTypeQID,
		fmt.Sprintf("LAST\tP356\t\"%s\"\tS248\t%s\tS813\t%s",
			escapeLiteral(meta.DOI), crossrefQID, retrieved),
	}

	lang := meta.TitleLanguage
	if lang == "" {
		lang = "mul"
	}
	commands = append(commands, fmt.Sprintf("LAST\tP1476\t%s:\"%s\"\tS248\t%s\tS813\t%s",
		lang, title, crossrefQID, retrieved))

	if meta.LanguageQID != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP407\t%s\tS248\t%s\tS813\t%s",
			meta.LanguageQID, crossrefQID, retrieved))
	}
	if meta.PublicationDate != nil {
		commands = append(commands, fmt.Sprintf("LAST\tP577\t%s\tS248\t%s\tS813\t%s",
			meta.PublicationDate.WikibaseTime(), crossrefQID, retrieved))
	}
	if meta.JournalQID != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP1433\t%s\tS248\t%s\tS813\t%s",
			meta.JournalQID, crossrefQID, retrieved))
	}
	if meta.Volume != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP478\t\"%s\"\tS248\t%s\tS813\t%s",
			escapeLiteral(meta.Volume), crossrefQID, retrieved))
	}
	if meta.Issue != "" {
		commands = append(commands, fmt.Sprintf("LAST\tP433\t\"%s\"\tS248\t%s\tS813\t%s",
			escapeLiteral(meta.Issue), crossrefQID, retrieved))
	}
	for _, author := range meta.Authors {
		commands = append(commands, fmt.Sprintf("LAST\tP2093\t\"%s\"\tP1545\t\"%d\"\tS248\t%s\tS813\t%s",
			escapeLiteral(author.FullName), author.Ordinal, crossrefQID, retrieved))
	}

	return commands
}

// escapeLiteral makes a metadata string safe inside a quoted QuickStatements
// value. Newlines become spaces since commands are line-delimited.
func escapeLiteral(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

// BatchURL packs a command stream into a ready-to-run QuickStatements link:
// tabs become pipes, newlines become double pipes, and the result is
// percent-encoded into the URL fragment.
func BatchURL(commands string) string {
	normalized := strings.ReplaceAll(commands, "\r", "")
	normalized = strings.ReplaceAll(normalized, "\t", "|")
	normalized = strings.ReplaceAll(normalized, "\n", "||")
	encoded := strings.ReplaceAll(url.QueryEscape(normalized), "+", "%20")
	return quickStatementsBaseURL + encoded
}
