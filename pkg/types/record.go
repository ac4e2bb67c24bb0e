// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model: normalized Scopus records,
// input citations and configuration.
package types

// Record is one normalized Scopus search result together with the
// provenance and classification columns added later in the pipeline.
// Optional strings use "" for absent.
type Record struct {
	ScopusID        string `json:"scopus_id,omitempty" yaml:"scopus_id,omitempty"`
	EID             string `json:"eid,omitempty" yaml:"eid,omitempty"`
	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	PublicationName string `json:"publication_name,omitempty" yaml:"publication_name,omitempty"`
	ISSN            string `json:"issn,omitempty" yaml:"issn,omitempty"`
	ISBN            string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	EISSN           string `json:"eissn,omitempty" yaml:"eissn,omitempty"`
	Volume          string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue           string `json:"issue,omitempty" yaml:"issue,omitempty"`
	PageRange       string `json:"page_range,omitempty" yaml:"page_range,omitempty"`
	CoverDate       string `json:"cover_date,omitempty" yaml:"cover_date,omitempty"`
	DOI             string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`

	// CitationCount is nil when the API value is missing or not numeric.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Affiliation is passed through exactly as decoded from the API.
	Affiliation any `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	AggregationType    string `json:"aggregation_type,omitempty" yaml:"aggregation_type,omitempty"`
	SubtypeDescription string `json:"subtype_description,omitempty" yaml:"subtype_description,omitempty"`

	// AuthorNames and AuthorIDs are parallel and never nil.
	AuthorNames []string `json:"author_name_list" yaml:"author_name_list"`
	AuthorIDs   []string `json:"author_ids" yaml:"author_ids"`

	AuthKeywords string `json:"auth_keywords,omitempty" yaml:"auth_keywords,omitempty"`
	FundAcr      string `json:"fund_acr,omitempty" yaml:"fund_acr,omitempty"`
	FundNo       string `json:"fund_no,omitempty" yaml:"fund_no,omitempty"`
	FundSponsor  string `json:"fund_sponsor,omitempty" yaml:"fund_sponsor,omitempty"`
	FullText     string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// Provenance stamped by the retrieval stage.
	UniqueID string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	AwardID  string `json:"award_id,omitempty" yaml:"award_id,omitempty"`
	CitedEID string `json:"EID,omitempty" yaml:"cited_eid,omitempty"`
	Query    string `json:"query,omitempty" yaml:"query,omitempty"`

	// Classification stamped by the classify stage.
	Field          string   `json:"Field,omitempty" yaml:"field,omitempty"`
	Quartile       string   `json:"Quartile,omitempty" yaml:"quartile,omitempty"`
	CiteScore      *float64 `json:"CiteScore,omitempty" yaml:"cite_score,omitempty"`
	Source         string   `json:"Source,omitempty" yaml:"source,omitempty"`
	SourceQuartile string   `json:"SourceQuartile,omitempty" yaml:"source_quartile,omitempty"`
	CrossIntra     string   `json:"CrossIntra,omitempty" yaml:"cross_intra,omitempty"`
	CiteType       string   `json:"CiteType,omitempty" yaml:"cite_type,omitempty"`
	Dataset        string   `json:"Dataset,omitempty" yaml:"dataset,omitempty"`
}

// Citation is one manually copied award citation, optionally already split
// into title, journal, issue and year.
type Citation struct {
	UniqueID string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	IRID     string `json:"IR_ID,omitempty" yaml:"ir_id,omitempty"`
	ID       string `json:"ID,omitempty" yaml:"id,omitempty"`
	Citation string `json:"Citation" yaml:"citation"`
	Title    string `json:"Title,omitempty" yaml:"title,omitempty"`
	Journal  string `json:"Journal,omitempty" yaml:"journal,omitempty"`
	Issue    string `json:"Issue,omitempty" yaml:"issue,omitempty"`
	Year     string `json:"Year,omitempty" yaml:"year,omitempty"`
}

// Key identifies the citation in outputs and error logs. Older inputs carry
// no unique_id column, so the award and row identifiers stand in for it.
func (c Citation) Key() string {
	if c.UniqueID != "" {
		return c.UniqueID
	}
	return c.IRID + ", " + c.ID
}
