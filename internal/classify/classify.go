// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify joins retrieved records against the reference catalog and
// filters out rows that cannot be classified.
package classify

import (
	"github.com/pdiddy/citation-engine/internal/catalog"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Lookuper resolves a publication name. *catalog.Catalog satisfies it.
type Lookuper interface {
	Lookup(name string) (catalog.Entry, bool)
}

// Citation relationship labels.
const (
	Intra = "Intra"
	Cross = "Cross"
)

// Drop reasons reported in Summary.
const (
	ReasonDuplicate       = "duplicate"
	ReasonAggregationType = "aggregation_type"
	ReasonField           = "field"
	ReasonQuartile        = "quartile"
	ReasonSourceSet       = "in_source_set"
	ReasonNSFSponsor      = "nsf_sponsor"
	ReasonNSFAcronym      = "nsf_acronym"
	ReasonSharedAuthor    = "shared_author"
)

var journalTypes = map[string]bool{"Journal": true, "Trade Journal": true}

// MapFields returns a copy of records with Field, Quartile and CiteScore
// filled from the catalog. Names the catalog does not know leave all three
// empty.
func MapFields(records []types.Record, cat Lookuper) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		r.Field, r.Quartile, r.CiteScore = "", "", nil
		if e, ok := cat.Lookup(r.PublicationName); ok {
			r.Field = string(e.Field)
			r.Quartile = e.Quartile
			r.CiteScore = e.CiteScore
		}
		out[i] = r
	}
	return out
}

// MapCitedFields labels citing records with the discipline of the work they
// cite. CitedEID is joined against the EID of sources; the first source with
// a given eid wins. When the cited eid is unknown Source, SourceQuartile,
// CrossIntra and CiteType stay empty.
func MapCitedFields(cited, sources []types.Record) []types.Record {
	byEID := make(map[string]types.Record, len(sources))
	for _, s := range sources {
		if _, dup := byEID[s.EID]; !dup && s.EID != "" {
			byEID[s.EID] = s
		}
	}

	out := make([]types.Record, len(cited))
	for i, r := range cited {
		r.Source, r.SourceQuartile, r.CrossIntra, r.CiteType = "", "", "", ""
		if src, ok := byEID[r.CitedEID]; ok {
			r.Source = src.Field
			r.SourceQuartile = src.Quartile
			r.CrossIntra = Cross
			if r.Source == r.Field {
				r.CrossIntra = Intra
			}
			r.CiteType = r.CrossIntra + " " + r.Source
		}
		out[i] = r
	}
	return out
}

// Options control CleanAndFilter.
type Options struct {
	// Dataset is stamped on every kept row.
	Dataset string
	// Cited keeps duplicate eids and labels rows against Sources.
	Cited   bool
	Sources []types.Record
}

// Summary counts what happened to the rows of one cleaning pass.
type Summary struct {
	Input   int
	Kept    int
	Dropped map[string]int
}

func newSummary(n int) Summary {
	return Summary{Input: n, Dropped: make(map[string]int)}
}

// CleanAndFilter deduplicates by eid (first kept, skipped in cited mode),
// maps fields, keeps only journal rows with a recognised discipline and
// quartile, labels cited rows and stamps the dataset name. Unclassifiable
// rows are dropped and counted, never reported as errors.
func CleanAndFilter(records []types.Record, cat Lookuper, opts Options) ([]types.Record, Summary) {
	sum := newSummary(len(records))

	if !opts.Cited {
		records = dedupe(records, &sum)
	}
	records = MapFields(records, cat)

	kept := make([]types.Record, 0, len(records))
	for _, r := range records {
		if reason := rejection(r); reason != "" {
			sum.Dropped[reason]++
			continue
		}
		kept = append(kept, r)
	}

	if opts.Cited {
		kept = MapCitedFields(kept, opts.Sources)
	}
	for i := range kept {
		kept[i].Dataset = opts.Dataset
	}
	sum.Kept = len(kept)
	return kept, sum
}

func dedupe(records []types.Record, sum *Summary) []types.Record {
	seen := make(map[string]bool, len(records))
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if seen[r.EID] {
			sum.Dropped[ReasonDuplicate]++
			continue
		}
		seen[r.EID] = true
		out = append(out, r)
	}
	return out
}

func rejection(r types.Record) string {
	switch {
	case !journalTypes[r.AggregationType]:
		return ReasonAggregationType
	case !catalog.Discipline(r.Field).Valid():
		return ReasonField
	case !catalog.ValidQuartile(r.Quartile):
		return ReasonQuartile
	}
	return ""
}
