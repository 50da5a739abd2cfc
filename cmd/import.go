package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lotus-cli/internal/ingest"
	"github.com/sells-group/lotus-cli/internal/pipeline"
)

var (
	importInput  string
	importOutput string
	importLimit  int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reconcile an input file and generate a QuickStatements batch",
	Long: `Reads chemical-found-in-taxon rows from a CSV, TSV, or XLSX file,
enriches each structure, checks what already exists on Wikidata, and writes
a QuickStatements batch plus a per-record status report.

Examples:
  # Full run
  lotus-cli import --input occurrences.csv --output batch.qs

  # First ten rows only
  lotus-cli import --input occurrences.csv --output batch.qs --limit 10`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		records, err := ingest.ReadFile(importInput, inputColumns())
		if err != nil {
			return eris.Wrap(err, "import: read input")
		}
		zap.L().Info("input loaded", zap.Int("records", len(records)))

		if importLimit > 0 && importLimit < len(records) {
			records = records[:importLimit]
		}
		if len(records) == 0 {
			zap.L().Info("no valid records; nothing to do")
			return nil
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, records)
		if err != nil {
			return eris.Wrap(err, "import: run pipeline")
		}

		reportPath, urlPath, err := pipeline.WriteArtifacts(importOutput, result)
		if err != nil {
			return err
		}

		pipeline.RenderSummary(os.Stdout, result, importOutput, reportPath, urlPath)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importInput, "input", "", "path to input CSV/TSV/XLSX file (required)")
	importCmd.Flags().StringVar(&importOutput, "output", "batch.qs", "path for the QuickStatements batch file")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max records to process (0 = all)")
	_ = importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}
