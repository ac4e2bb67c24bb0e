// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citeparse splits citations copied from NSF award pages into title,
// journal, volume and year. The award pages render citations as
//
//	Author, A. 'Title of the work,' Journal Name, v.12, 2015, p. 1.
package citeparse

import (
	"regexp"

	"github.com/pdiddy/citation-engine/pkg/types"
)

var (
	withVolume    = regexp.MustCompile(`'(.+?),'.*?\s(.+?),.*?\sv.([0-9]+),.*?\s(20[0-9]{2})`)
	withoutVolume = regexp.MustCompile(`'(.+),'.*?\s(.+?),.*?\s(20[0-9]{2})`)
)

// Parts are the pieces of a split citation. Issue holds the "v." number.
type Parts struct {
	Title   string
	Journal string
	Issue   string
	Year    string
}

// Split extracts the parts of citation. The second result is false when
// neither layout matches, in which case Parts is empty.
func Split(citation string) (Parts, bool) {
	if m := withVolume.FindStringSubmatch(citation); m != nil {
		return Parts{Title: m[1], Journal: m[2], Issue: m[3], Year: m[4]}, true
	}
	if m := withoutVolume.FindStringSubmatch(citation); m != nil {
		return Parts{Title: m[1], Journal: m[2], Year: m[3]}, true
	}
	return Parts{}, false
}

// Apply fills Title, Journal, Issue and Year of each citation from its text
// and returns how many could not be split. Unsplit citations get empty parts.
func Apply(citations []types.Citation) int {
	failed := 0
	for i := range citations {
		p, ok := Split(citations[i].Citation)
		if !ok {
			failed++
		}
		citations[i].Title = p.Title
		citations[i].Journal = p.Journal
		citations[i].Issue = p.Issue
		citations[i].Year = p.Year
	}
	return failed
}
