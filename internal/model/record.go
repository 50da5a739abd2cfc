package model

// InputRecord is one validated row from the input file: a chemical found in a
// taxon, backed by a literature reference.
type InputRecord struct {
	ChemicalName string `json:"chemical_name"`
	SMILES       string `json:"smiles"`
	TaxonName    string `json:"taxon_name"`
	DOI          string `json:"doi"`
}

// EnrichedRecord is an InputRecord plus the structural descriptors returned by
// the cheminformatics service. Built once per row and read-only afterward.
type EnrichedRecord struct {
	ChemicalName string `json:"chemical_name"`
	InputSMILES  string `json:"input_smiles"`

	// SanitizedSMILES is the structure as normalized by the enrichment
	// service; Sanitized reports whether it differs from the input.
	SanitizedSMILES string `json:"sanitized_smiles"`
	Sanitized       bool   `json:"sanitized"`

	TaxonName string `json:"taxon_name"`
	DOI       string `json:"doi"`

	CanonicalSMILES  string   `json:"canonical_smiles,omitempty"`
	IsomericSMILES   string   `json:"isomeric_smiles,omitempty"`
	InChI            string   `json:"inchi,omitempty"`
	InChIKey         string   `json:"inchikey,omitempty"`
	MolecularFormula string   `json:"molecular_formula,omitempty"`
	ExactMass        *float64 `json:"exact_mass,omitempty"`

	// OtherDescriptors is the service's open-ended descriptor bag, passed
	// through opaquely.
	OtherDescriptors map[string]any `json:"other_descriptors,omitempty"`
}
