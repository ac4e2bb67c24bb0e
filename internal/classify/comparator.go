// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "github.com/pdiddy/citation-engine/pkg/types"

const (
	nsfSponsor = "National Science Foundation"
	nsfAcronym = "NSF"
)

// otherNSF are sponsors that share the NSF acronym.
var otherNSF = map[string]bool{
	"National Sleep Foundation":  true,
	"National Stroke Foundation": true,
}

// ComparatorOptions control FilterComparators.
type ComparatorOptions struct {
	Dataset string
	// Sources is the set the comparators are matched against; its eids
	// are excluded.
	Sources []types.Record
	// AuthorPools hold records whose authors must not appear among the
	// comparators.
	AuthorPools [][]types.Record
}

// FilterComparators drops comparator records that overlap the funded set by
// eid or by author, then cleans the rest and removes NSF-funded work.
func FilterComparators(comp []types.Record, cat Lookuper, opts ComparatorOptions) ([]types.Record, Summary) {
	inSource := make(map[string]bool, len(opts.Sources))
	for _, s := range opts.Sources {
		inSource[s.EID] = true
	}
	var fresh []types.Record
	excluded := 0
	for _, r := range comp {
		if inSource[r.EID] {
			excluded++
			continue
		}
		fresh = append(fresh, r)
	}

	kept, sum := CleanAndFilter(fresh, cat, Options{Dataset: opts.Dataset})
	sum.Input = len(comp)
	if excluded > 0 {
		sum.Dropped[ReasonSourceSet] = excluded
	}

	authors := make(map[string]bool)
	for _, pool := range opts.AuthorPools {
		for _, r := range pool {
			for _, id := range r.AuthorIDs {
				authors[id] = true
			}
		}
	}

	out := kept[:0]
	for _, r := range kept {
		switch {
		case r.FundSponsor == nsfSponsor:
			sum.Dropped[ReasonNSFSponsor]++
		case r.FundAcr == nsfAcronym && !otherNSF[r.FundSponsor]:
			sum.Dropped[ReasonNSFAcronym]++
		case sharesAuthor(r, authors):
			sum.Dropped[ReasonSharedAuthor]++
		default:
			out = append(out, r)
		}
	}
	sum.Kept = len(out)
	return out, sum
}

func sharesAuthor(r types.Record, authors map[string]bool) bool {
	for _, id := range r.AuthorIDs {
		if authors[id] {
			return true
		}
	}
	return false
}
