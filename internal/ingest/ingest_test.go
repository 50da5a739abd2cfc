package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFileCSV(t *testing.T) {
	path := writeTempCSV(t, "input.csv",
		"chemical_entity_name,chemical_entity_smiles,taxon_name,reference_doi\n"+
			"caffeine,CN1C=NC2=C1C(=O)N(C(=O)N2C)C,Coffea arabica,10.1021/NP50056A005\n")

	records, err := ReadFile(path, ColumnConfig{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "caffeine", records[0].ChemicalName)
	assert.Equal(t, "CN1C=NC2=C1C(=O)N(C(=O)N2C)C", records[0].SMILES)
	assert.Equal(t, "Coffea arabica", records[0].TaxonName)
	assert.Equal(t, "10.1021/NP50056A005", records[0].DOI)
}

func TestReadFileTSV(t *testing.T) {
	path := writeTempCSV(t, "input.tsv",
		"chemical_entity_name\tchemical_entity_smiles\ttaxon_name\treference_doi\n"+
			"quinine\tsmiles\tCinchona officinalis\t10.1234/q\n")

	records, err := ReadFile(path, ColumnConfig{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "quinine", records[0].ChemicalName)
}

func TestReadFileCustomColumns(t *testing.T) {
	path := writeTempCSV(t, "input.csv",
		"compound,structure,organism,doi\n"+
			"morphine,CN1CC...,Papaver somniferum L.,10.1234/m\n")

	records, err := ReadFile(path, ColumnConfig{
		ChemicalName: "compound",
		SMILES:       "structure",
		Taxon:        "organism",
		DOI:          "doi",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "morphine", records[0].ChemicalName)
	assert.Equal(t, "Papaver somniferum", records[0].TaxonName)
}

func TestReadFileMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "input.csv",
		"chemical_entity_name,taxon_name,reference_doi\na,b,c\n")

	_, err := ReadFile(path, ColumnConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "chemical_entity_smiles" not found`)
}

func TestReadFileMissingValue(t *testing.T) {
	path := writeTempCSV(t, "input.csv",
		"chemical_entity_name,chemical_entity_smiles,taxon_name,reference_doi\n"+
			"caffeine,smiles,Coffea arabica,10.1234/ok\n"+
			"theobromine,,Theobroma cacao,10.1234/bad\n")

	_, err := ReadFile(path, ColumnConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing value for column "chemical_entity_smiles" at row 3`)
}

func TestReadFileTrimsCells(t *testing.T) {
	path := writeTempCSV(t, "input.csv",
		"chemical_entity_name,chemical_entity_smiles,taxon_name,reference_doi\n"+
			" caffeine , CN1C , Coffea arabica , 10.1234/x \n")

	records, err := ReadFile(path, ColumnConfig{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "caffeine", records[0].ChemicalName)
	assert.Equal(t, "10.1234/x", records[0].DOI)
}

func TestNormalizeTaxon(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Coffea arabica", "Coffea arabica"},
		{"Papaver somniferum L.", "Papaver somniferum"},
		{"Salvia   officinalis   subsp. lavandulifolia", "Salvia officinalis"},
		{"Ginkgo", "Ginkgo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTaxon(tt.in), "input %q", tt.in)
	}
}
