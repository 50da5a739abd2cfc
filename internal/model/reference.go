package model

import (
	"fmt"
	"time"
)

// Wikibase time-value precision codes.
const (
	PrecisionYear  = 9
	PrecisionMonth = 10
	PrecisionDay   = 11
)

// ReferenceDate is a publication date with implied precision: a bare year, a
// year+month, or a full date. Year is always set.
type ReferenceDate struct {
	Year  int  `json:"year"`
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
}

// Precision returns the Wikibase precision code implied by which fields are
// populated.
func (d ReferenceDate) Precision() int {
	switch {
	case d.Day != nil:
		return PrecisionDay
	case d.Month != nil:
		return PrecisionMonth
	default:
		return PrecisionYear
	}
}

// WikibaseTime renders the date as a QuickStatements time value,
// e.g. "+2012-03-21T00:00:00Z/11". Missing parts render as 00, per the
// Wikibase convention for reduced precision.
func (d ReferenceDate) WikibaseTime() string {
	month, day := 0, 0
	if d.Month != nil {
		month = *d.Month
	}
	if d.Day != nil {
		day = *d.Day
	}
	return fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z/%d", d.Year, month, day, d.Precision())
}

// ReferenceAuthor is an author name string with its 1-based position in the
// author list.
type ReferenceAuthor struct {
	FullName string `json:"full_name"`
	Ordinal  int    `json:"ordinal"`
}

// ReferenceMetadata holds the bibliographic facts needed to mint a reference
// item when the DOI is absent from the knowledge base.
type ReferenceMetadata struct {
	// DOI in the registrar's canonical casing.
	DOI   string `json:"doi"`
	Title string `json:"title"`

	// TitleLanguage is a BCP 47 code for the title ("en", "fr", ...);
	// LanguageQID is the matching Wikidata language item, when known.
	TitleLanguage string `json:"title_language,omitempty"`
	LanguageQID   string `json:"language_qid,omitempty"`

	// WorkTypeQID classifies the publication (scholarly article, book
	// chapter, ...). Always set.
	WorkTypeQID string `json:"work_type_qid"`

	PublicationDate *ReferenceDate `json:"publication_date,omitempty"`

	Volume         string `json:"volume,omitempty"`
	Issue          string `json:"issue,omitempty"`
	ContainerTitle string `json:"container_title,omitempty"`
	ISSN           string `json:"issn,omitempty"`

	// JournalQID is filled in by the resolver when the container journal
	// exists in the knowledge base.
	JournalQID string `json:"journal_qid,omitempty"`

	Authors []ReferenceAuthor `json:"authors,omitempty"`

	// RetrievedOn is the day the metadata was fetched; it sources every
	// statement on the minted item.
	RetrievedOn time.Time `json:"retrieved_on"`
}

// RetrievedTime renders RetrievedOn as a day-precision QuickStatements time
// value for S813 qualifiers.
func (m *ReferenceMetadata) RetrievedTime() string {
	return fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z/%d",
		m.RetrievedOn.Year(), int(m.RetrievedOn.Month()), m.RetrievedOn.Day(), PrecisionDay)
}
