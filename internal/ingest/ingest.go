// Package ingest loads chemical-occurrence rows from CSV or XLSX files and
// validates them into model.InputRecord values.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotus-cli/internal/model"
)

// ColumnConfig maps input-file headers onto record fields. Zero values fall
// back to the conventional header names.
type ColumnConfig struct {
	ChemicalName string
	SMILES       string
	Taxon        string
	DOI          string
}

// DefaultColumns returns the conventional header names.
func DefaultColumns() ColumnConfig {
	return ColumnConfig{
		ChemicalName: "chemical_entity_name",
		SMILES:       "chemical_entity_smiles",
		Taxon:        "taxon_name",
		DOI:          "reference_doi",
	}
}

func (c ColumnConfig) withDefaults() ColumnConfig {
	def := DefaultColumns()
	if c.ChemicalName == "" {
		c.ChemicalName = def.ChemicalName
	}
	if c.SMILES == "" {
		c.SMILES = def.SMILES
	}
	if c.Taxon == "" {
		c.Taxon = def.Taxon
	}
	if c.DOI == "" {
		c.DOI = def.DOI
	}
	return c
}

// NormalizeTaxon reduces a taxon name to its first two whitespace-separated
// tokens, stripping infraspecific ranks and author citations so the name
// matches how binomials are labelled in the knowledge base.
func NormalizeTaxon(name string) string {
	fields := strings.Fields(name)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

// ReadFile loads records from path, dispatching on the file extension.
// CSV and TSV files are parsed with encoding/csv; .xlsx files with tealeg.
func ReadFile(path string, cols ColumnConfig) ([]model.InputRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return fromRows(rows, cols)
	case ".tsv":
		return readDelimited(path, '\t', cols)
	default:
		return readDelimited(path, ',', cols)
	}
}

func readDelimited(path string, comma rune, cols ColumnConfig) ([]model.InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open input file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read input file")
		}
		rows = append(rows, row)
	}

	return fromRows(rows, cols)
}

// fromRows maps raw rows (header first) into validated records. Every cell
// is trimmed; a blank required cell fails the whole file with its row number
// so the operator fixes the data before anything is sent upstream.
func fromRows(rows [][]string, cols ColumnConfig) ([]model.InputRecord, error) {
	cols = cols.withDefaults()

	if len(rows) == 0 {
		return nil, eris.New("ingest: input file has no header row")
	}

	header := map[string]int{}
	for idx, name := range rows[0] {
		header[strings.TrimSpace(name)] = idx
	}

	chemIdx, err := columnIndex(header, cols.ChemicalName)
	if err != nil {
		return nil, err
	}
	smilesIdx, err := columnIndex(header, cols.SMILES)
	if err != nil {
		return nil, err
	}
	taxonIdx, err := columnIndex(header, cols.Taxon)
	if err != nil {
		return nil, err
	}
	doiIdx, err := columnIndex(header, cols.DOI)
	if err != nil {
		return nil, err
	}

	records := make([]model.InputRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2 // header + 1-based

		rec := model.InputRecord{
			ChemicalName: cell(row, chemIdx),
			SMILES:       cell(row, smilesIdx),
			TaxonName:    cell(row, taxonIdx),
			DOI:          cell(row, doiIdx),
		}

		switch {
		case rec.ChemicalName == "":
			return nil, missingValue(cols.ChemicalName, rowNum)
		case rec.SMILES == "":
			return nil, missingValue(cols.SMILES, rowNum)
		case rec.TaxonName == "":
			return nil, missingValue(cols.Taxon, rowNum)
		case rec.DOI == "":
			return nil, missingValue(cols.DOI, rowNum)
		}

		rec.TaxonName = NormalizeTaxon(rec.TaxonName)
		records = append(records, rec)
	}

	return records, nil
}

func columnIndex(header map[string]int, name string) (int, error) {
	idx, ok := header[name]
	if !ok {
		return 0, eris.Errorf("ingest: column %q not found in header", name)
	}
	return idx, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func missingValue(column string, row int) error {
	return eris.Errorf("ingest: missing value for column %q at row %d", column, row)
}
