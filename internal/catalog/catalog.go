// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maps publication names to a discipline, a Scopus quartile
// and a CiteScore. A Catalog is built once from the static source tables and
// is read-only afterwards.
package catalog

import (
	"strings"
	"unicode"
)

// Discipline is the controlled field vocabulary.
type Discipline string

const (
	NS    Discipline = "NS"    // natural science
	EC    Discipline = "EC"    // economics and commerce
	GI    Discipline = "GI"    // general / interdisciplinary
	Other Discipline = "Other" // everything else
)

// Valid reports whether d is one of the four recognised disciplines.
func (d Discipline) Valid() bool {
	switch d {
	case NS, EC, GI, Other:
		return true
	}
	return false
}

// Quartiles as written in the Scopus source tables.
var Quartiles = []string{"Quartile 1", "Quartile 2", "Quartile 3", "Quartile 4"}

// ValidQuartile reports whether q is one of Quartiles.
func ValidQuartile(q string) bool {
	for _, v := range Quartiles {
		if q == v {
			return true
		}
	}
	return false
}

// Entry is what the catalog knows about one publication.
type Entry struct {
	Field     Discipline
	Quartile  string
	CiteScore *float64
}

// pinnedGI are the broad-scope titles classified as GI whatever the tables
// say.
var pinnedGI = []string{
	"nature",
	"science",
	"proceedings of the national academy of sciences of the united states of america",
}

// Catalog is an immutable name index. The zero value is empty and usable.
type Catalog struct {
	entries map[string]Entry
}

// newCatalog freezes entries and applies the GI pins. Pinned names absent
// from entries get a field but no quartile.
func newCatalog(entries map[string]Entry) *Catalog {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	for _, name := range pinnedGI {
		e := entries[name]
		e.Field = GI
		entries[name] = e
	}
	return &Catalog{entries: entries}
}

// Lookup finds the entry for a publication name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	if c == nil || c.entries == nil {
		return Entry{}, false
	}
	e, ok := c.entries[NormalizeName(name)]
	return e, ok
}

// Len is the number of indexed names.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Stats counts entries per discipline and quartile.
func (c *Catalog) Stats() (byField map[Discipline]int, byQuartile map[string]int) {
	byField = make(map[Discipline]int)
	byQuartile = make(map[string]int)
	if c == nil {
		return byField, byQuartile
	}
	for _, e := range c.entries {
		byField[e.Field]++
		byQuartile[e.Quartile]++
	}
	return byField, byQuartile
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "“", "\"", "”", "\"",
	"–", "-", "—", "-", "\u00a0", " ",
)

// NormalizeName is the catalog key for a publication name: lower-cased,
// typographic quotes and dashes folded to ASCII, whitespace runs collapsed
// to single spaces and trimmed.
func NormalizeName(name string) string {
	name = typographic.Replace(strings.ToLower(name))
	return strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " ")
}
