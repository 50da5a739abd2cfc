package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotus-cli/internal/model"
	"github.com/sells-group/lotus-cli/internal/qs"
)

// StatusReportPath derives the per-record report path from the batch output
// path: batch.qs -> batch_status.tsv, alongside it.
func StatusReportPath(outputPath string) string {
	return siblingPath(outputPath, "_status.tsv", "status")
}

// BatchURLPath derives the ready-to-run link path from the batch output
// path: batch.qs -> batch_qs_url.txt.
func BatchURLPath(outputPath string) string {
	return siblingPath(outputPath, "_qs_url.txt", "quickstatements")
}

func siblingPath(outputPath, suffix, fallbackStem string) string {
	stem := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	if stem == "" {
		stem = fallbackStem
	}
	return filepath.Join(filepath.Dir(outputPath), stem+suffix)
}

// WriteCommands writes the batch command stream, one command per line.
func WriteCommands(w io.Writer, commands []string) error {
	for _, command := range commands {
		if _, err := fmt.Fprintln(w, command); err != nil {
			return eris.Wrap(err, "pipeline: write commands")
		}
	}
	return nil
}

// WriteStatusReport writes the per-record report as a tab-separated file.
// The column set is stable; downstream curation spreadsheets key on it.
func WriteStatusReport(w io.Writer, reports []model.RecordReport) error {
	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'

	header := []string{
		"chemical_entity_name",
		"chemical_entity_smiles",
		"taxon_name",
		"reference_doi",
		"chemical_qid",
		"taxon_qid",
		"reference_qid",
		"create_chemical",
		"create_reference",
		"create_occurrence",
		"occurrence_waiting_on_reference",
		"status",
		"issues",
	}
	if err := tsv.Write(header); err != nil {
		return eris.Wrap(err, "pipeline: write report header")
	}

	for _, report := range reports {
		issues := strings.Join(report.Issues, "; ")
		if report.Error != "" {
			if issues != "" {
				issues += "; "
			}
			issues += report.Error
		}
		row := []string{
			report.ChemicalName,
			report.SMILES,
			report.TaxonName,
			report.DOI,
			report.ChemicalQID,
			report.TaxonQID,
			report.ReferenceQID,
			yesNo(report.CreateChemical),
			yesNo(report.CreateReference),
			yesNo(report.CreateClaim),
			yesNo(report.DeferClaim),
			string(report.Status),
			issues,
		}
		if err := tsv.Write(row); err != nil {
			return eris.Wrap(err, "pipeline: write report row")
		}
	}

	tsv.Flush()
	return eris.Wrap(tsv.Error(), "pipeline: flush report")
}

func yesNo(flag bool) string {
	if flag {
		return "yes"
	}
	return "no"
}

// WriteArtifacts persists a run's outputs next to the batch file: the
// command stream, the status report, and (when there is anything to submit)
// the ready-to-run QuickStatements link.
func WriteArtifacts(outputPath string, result *Result) (reportPath, urlPath string, err error) {
	batch, err := os.Create(outputPath)
	if err != nil {
		return "", "", eris.Wrap(err, "pipeline: create batch file")
	}
	defer batch.Close()
	if err := WriteCommands(batch, result.Commands); err != nil {
		return "", "", err
	}

	reportPath = StatusReportPath(outputPath)
	reportFile, err := os.Create(reportPath)
	if err != nil {
		return "", "", eris.Wrap(err, "pipeline: create status report")
	}
	defer reportFile.Close()
	if err := WriteStatusReport(reportFile, result.Reports); err != nil {
		return "", "", err
	}

	if len(result.Commands) == 0 {
		return reportPath, "", nil
	}

	urlPath = BatchURLPath(outputPath)
	link := qs.BatchURL(strings.Join(result.Commands, "\n") + "\n")
	if err := os.WriteFile(urlPath, []byte(link+"\n"), 0o644); err != nil {
		return "", "", eris.Wrap(err, "pipeline: write batch link")
	}

	return reportPath, urlPath, nil
}

// RenderSummary prints the operator-facing run summary and next actions.
func RenderSummary(w io.Writer, result *Result, outputPath, reportPath, urlPath string) {
	s := result.Summary

	fmt.Fprintln(w, "\n--- Summary ---")
	fmt.Fprintf(w, "Records read: %d\n", s.Records)
	fmt.Fprintf(w, "Successfully processed: %d\n", s.Processed)
	fmt.Fprintf(w, "Chemical items queued for creation: %d\n", s.ChemicalCreations)
	fmt.Fprintf(w, "Reference items queued for creation: %d\n", s.ReferenceCreations)
	fmt.Fprintf(w, "Occurrence statements queued: %d\n", s.ClaimsQueued)
	if s.ClaimsDeferred > 0 {
		fmt.Fprintf(w, "Occurrence statements waiting on new references: %d\n", s.ClaimsDeferred)
		fmt.Fprintln(w, "  QuickStatements cannot cite items created earlier in the same batch; rerun after the reference batch finishes.")
	}
	if s.UnresolvedTaxa > 0 {
		fmt.Fprintf(w, "Records without a taxon item (not auto-created): %d\n", s.UnresolvedTaxa)
	}
	if s.NeedsReview > 0 {
		fmt.Fprintf(w, "Records requiring manual review: %d (see status report)\n", s.NeedsReview)
	}
	fmt.Fprintf(w, "Errors encountered: %d\n", s.Failed)

	fmt.Fprintln(w, "\n--- Next actions ---")
	if len(result.Commands) > 0 {
		fmt.Fprintf(w, "- Submit %s via QuickStatements (https://quickstatements.toolforge.org/#/batch).\n", outputPath)
		if urlPath != "" {
			fmt.Fprintf(w, "- Or open the ready-to-run link saved in %s (OAuth required).\n", urlPath)
		}
	} else {
		fmt.Fprintln(w, "- No batch generated in this run; nothing to upload.")
	}
	if s.ClaimsDeferred > 0 {
		fmt.Fprintf(w, "- After this batch finishes, rerun the importer to emit the %d deferred occurrence statement(s).\n", s.ClaimsDeferred)
	} else if len(result.Commands) > 0 {
		fmt.Fprintln(w, "- Once the QuickStatements run completes, no second pass is required.")
	}
	if reportPath != "" {
		fmt.Fprintf(w, "- Review per-record results in %s for flagged issues.\n", reportPath)
	}
	if s.UnresolvedTaxa > 0 {
		fmt.Fprintf(w, "- Resolve the %d missing taxon item(s) manually before rerunning.\n", s.UnresolvedTaxa)
	}
}
