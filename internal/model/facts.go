package model

// Match is the outcome of a single entity lookup: zero, one, or several
// knowledge-base items. When several match, QID holds the first one (the
// importer never disambiguates) and Count records how many were seen so the
// ambiguity can be reported.
type Match struct {
	QID   string `json:"qid,omitempty"`
	Count int    `json:"count"`
}

// Found reports whether at least one entity matched.
func (m Match) Found() bool { return m.QID != "" }

// Ambiguous reports whether more than one entity matched.
func (m Match) Ambiguous() bool { return m.Count > 1 }

// ResolvedFacts collects everything the resolver learned about one record.
// Built once per record and never mutated afterward.
type ResolvedFacts struct {
	Chemical  Match `json:"chemical"`
	Taxon     Match `json:"taxon"`
	Reference Match `json:"reference"`

	// ClaimExists is true when the exact (chemical, taxon, reference)
	// statement already exists at normal rank. Only ever checked when all
	// three QIDs are present.
	ClaimExists bool `json:"claim_exists"`

	// ReferenceMetadata is populated only when the DOI was not found in the
	// knowledge base and the bibliographic lookup succeeded.
	ReferenceMetadata *ReferenceMetadata `json:"reference_metadata,omitempty"`
}
