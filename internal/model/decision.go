package model

// Decision is what must happen for one record: which entities to create,
// whether the occurrence claim can be emitted now or must wait for a rerun,
// and any issues a curator should see.
type Decision struct {
	CreateChemical  bool `json:"create_chemical"`
	CreateReference bool `json:"create_reference"`
	CreateClaim     bool `json:"create_claim"`
	DeferClaim      bool `json:"defer_claim"`

	Issues []string `json:"issues,omitempty"`
}

// RecordStatus classifies where a record ended up after a run.
type RecordStatus string

const (
	// StatusEmitted means the record's commands are in the batch (possibly
	// zero commands because everything already existed).
	StatusEmitted RecordStatus = "emitted"
	// StatusDeferred means the claim waits on a reference created this run.
	StatusDeferred RecordStatus = "deferred"
	// StatusFailed means enrichment or resolution failed for the record.
	StatusFailed RecordStatus = "failed"
)

// RecordReport is the per-record row handed to the status-report writer.
type RecordReport struct {
	ChemicalName string `json:"chemical_name"`
	SMILES       string `json:"smiles"`
	TaxonName    string `json:"taxon_name"`
	DOI          string `json:"doi"`

	ChemicalQID  string `json:"chemical_qid,omitempty"`
	TaxonQID     string `json:"taxon_qid,omitempty"`
	ReferenceQID string `json:"reference_qid,omitempty"`

	CreateChemical  bool `json:"create_chemical"`
	CreateReference bool `json:"create_reference"`
	CreateClaim     bool `json:"create_claim"`
	DeferClaim      bool `json:"defer_claim"`

	Status RecordStatus `json:"status"`
	Issues []string     `json:"issues,omitempty"`

	// Error holds the failure message for StatusFailed records.
	Error string `json:"error,omitempty"`
}
