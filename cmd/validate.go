package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lotus-cli/internal/ingest"
)

var (
	validateInput  string
	validateEnrich bool
	validateLimit  int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an input file without generating a batch",
	Long: `Parses and validates the input file, optionally running enrichment and
knowledge-base resolution, and dumps the result as JSON. Nothing is written
besides the dump; use it to check a dataset before a real import.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		records, err := ingest.ReadFile(validateInput, inputColumns())
		if err != nil {
			return eris.Wrap(err, "validate: read input")
		}
		zap.L().Info("input valid", zap.Int("records", len(records)))

		if validateLimit > 0 && validateLimit < len(records) {
			records = records[:validateLimit]
		}

		if !validateEnrich {
			return dumpJSON(records)
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		enriched, errs, err := env.Pipeline.Enrich(ctx, records)
		if err != nil {
			return eris.Wrap(err, "validate: enrich")
		}

		type row struct {
			Record any    `json:"record"`
			Error  string `json:"error,omitempty"`
		}
		rows := make([]row, len(enriched))
		for i := range enriched {
			rows[i] = row{Record: enriched[i]}
			if errs[i] != nil {
				rows[i].Error = errs[i].Error()
			}
		}
		return dumpJSON(rows)
	},
}

func dumpJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "validate: encode output")
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "path to input CSV/TSV/XLSX file (required)")
	validateCmd.Flags().BoolVar(&validateEnrich, "enrich", false, "also run enrichment and knowledge-base resolution")
	validateCmd.Flags().IntVar(&validateLimit, "limit", 0, "max records to validate (0 = all)")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
