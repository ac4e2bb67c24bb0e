// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Heuristic selects how a journal's discipline is chosen.
type Heuristic string

const (
	// HeuristicASJC derives the field from each CiteScore row's ASJC code.
	HeuristicASJC Heuristic = "asjc"
	// HeuristicSubjects derives the field from the source list's subject
	// areas. It disagrees with HeuristicASJC for journals listed under
	// several subject areas.
	HeuristicSubjects Heuristic = "subjects"
	// HeuristicMapping reads a precomputed name→field table.
	HeuristicMapping Heuristic = "mapping"
)

// MetricsRow is one row of the CiteScore metrics table. A journal appears
// once per ASJC sub-subject area it is listed under.
type MetricsRow struct {
	Title     string
	Quartile  string
	CiteScore string
	ASJCCode  string
}

// SourceRow is one row of the Scopus source list. Subjects holds the subject
// areas joined with '&'.
type SourceRow struct {
	Title      string
	SourceType string
	Subjects   string
}

// MappingRow is one row of a precomputed journal mapping.
type MappingRow struct {
	Name      string
	Quartile  string
	Field     string
	CiteScore string
}

// Tables are the inputs a heuristic may draw on. FieldMap maps an ASJC
// prefix ("11**") or a subject area name to a discipline.
type Tables struct {
	Metrics  []MetricsRow
	Sources  []SourceRow
	FieldMap map[string]string
	Mapping  []MappingRow
}

// Build constructs a catalog with the chosen heuristic.
func Build(h Heuristic, t Tables) (*Catalog, error) {
	switch h {
	case HeuristicASJC:
		return BuildASJC(t.Metrics, t.FieldMap), nil
	case HeuristicSubjects:
		return BuildSubjects(t.Sources, t.Metrics, t.FieldMap), nil
	case HeuristicMapping:
		return BuildFromMapping(t.Mapping), nil
	default:
		return nil, fmt.Errorf("unknown catalog heuristic %q", h)
	}
}

// multidisciplinaryNS are "Multidisciplinary" titles whose content is
// natural science.
var multidisciplinaryNS = map[string]bool{}

func init() {
	for _, t := range []string{
		"anais da academia brasileira de ciencias",
		"archives des sciences",
		"asm science journal",
		"beijing daxue xuebao (ziran kexue ban)/acta scientiarum naturalium universitatis pekinensis",
		"brazilian archives of biology and technology",
		"bulletin de la societe royale des sciences de liege",
		"bulletin de la societe vaudoise des sciences naturelles",
		"bulletin of the georgian national academy of sciences",
		"chiang mai university journal of natural sciences",
		"ciencia and engenharia/ science and engineering journal",
		"comptes rendus de l'academie bulgare des sciences",
		"current science",
		"heliyon",
		"hunan daxue xuebao/journal of hunan university natural sciences",
		"interciencia",
		"jilin daxue xuebao (gongxueban)/journal of jilin university (engineering and technology edition)",
		"journal and proceedings - royal society of new south wales",
		"journal of advanced research",
		"journal of king saud university - science",
		"journal of sciences, islamic republic of iran",
		"journal of scientific and industrial research",
		"journal of shanghai jiaotong university (science)",
		"journal of the indian institute of science",
		"journal of the national science foundation of sri lanka",
		"journal of the royal society of new zealand",
		"journal of zhejiang university, science edition",
		"kexue tongbao, scientia",
		"kuwait journal of science",
		"liaoning gongcheng jishu daxue xuebao (ziran kexue ban)/journal of liaoning technical university (natural science edition)",
		"maejo international journal of science and technology",
		"malaysian journal of science",
		"national science review",
		"new scientist",
		"ohio journal of sciences",
		"pacific science",
		"papers and proceedings - royal society of tasmania",
		"philippine journal of science",
		"plos one",
		"proceedings of the latvian academy of sciences, section b: natural, exact, and applied sciences",
		"revista lasallista de investigacion",
		"royal society open science",
		"sadhana - academy proceedings in engineering sciences",
		"sains malaysiana",
		"science advances",
		"science bulletin",
		"science progress",
		"science, technology and society",
		"scienceasia",
		"scientific american",
		"scientific journal of king faisal university",
		"scientific reports",
		"shanghai jiaotong daxue xuebao/journal of shanghai jiaotong university",
		"shenyang jianzhu daxue xuebao (ziran kexue ban)/journal of shenyang jianzhu university (natural science)",
		"songklanakarin journal of science and technology",
		"tianjin daxue xuebao (ziran kexue yu gongcheng jishu ban)/journal of tianjin university science and technology",
		"tongji daxue xuebao/journal of tongji university",
		"transactions of tianjin university",
		"tsinghua science and technology",
		"universitas scientiarum",
		"walailak journal of science and technology",
		"world review of science, technology and sustainable development",
		"wuhan university journal of natural sciences",
		"xi'an shiyou daxue xuebao (ziran kexue ban)/journal of xi'an shiyou university, natural sciences edition",
		"xinan jiaotong daxue xuebao/journal of southwest jiaotong university",
		"zhongshan daxue xuebao/acta scientiarum natralium universitatis sunyatseni",
	} {
		multidisciplinaryNS[t] = true
	}
}

// ASJCPrefix turns a four-digit ASJC code into its subject-area key, e.g.
// "1105" → "11**".
func ASJCPrefix(code string) string {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return ""
	}
	return code[:2] + "**"
}

// BuildASJC classifies each metrics row by its ASJC subject area, then
// reduces the rows of each title to one entry:
//
//   - all rows share a quartile: the first EC row if any, else the first row
//     of the most frequent field (ties go to the field seen first);
//   - quartiles differ: the first row.
func BuildASJC(rows []MetricsRow, fieldMap map[string]string) *Catalog {
	type classified struct {
		quartile, citeScore string
		field               Discipline
	}
	grouped := make(map[string][]classified)
	var order []string

	for _, r := range rows {
		key := NormalizeName(r.Title)
		if key == "" {
			continue
		}
		field := Discipline(fieldMap[ASJCPrefix(r.ASJCCode)])
		if multidisciplinaryNS[key] {
			field = NS
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], classified{r.Quartile, r.CiteScore, field})
	}

	entries := make(map[string]Entry, len(grouped))
	for _, key := range order {
		rs := grouped[key]
		pick := 0
		if sameQuartile(rs, func(c classified) string { return c.quartile }) {
			fields := make([]Discipline, len(rs))
			for i, c := range rs {
				fields[i] = c.field
			}
			pick = preferredField(fields)
		}
		c := rs[pick]
		entries[key] = Entry{Field: c.field, Quartile: c.quartile, CiteScore: parseScore(c.citeScore)}
	}
	return newCatalog(entries)
}

func sameQuartile[T any](rs []T, q func(T) string) bool {
	for _, r := range rs[1:] {
		if q(r) != q(rs[0]) {
			return false
		}
	}
	return true
}

// preferredField returns the index of the first EC field, or else of the
// first occurrence of the modal field.
func preferredField(fields []Discipline) int {
	counts := make(map[Discipline]int)
	first := make(map[Discipline]int)
	for i, f := range fields {
		if f == EC {
			return i
		}
		if _, ok := first[f]; !ok {
			first[f] = i
		}
		counts[f]++
	}
	best := 0
	for f, i := range first {
		bf := fields[best]
		if counts[f] > counts[bf] || (counts[f] == counts[bf] && i < first[bf]) {
			best = i
		}
	}
	return best
}

// BuildSubjects classifies journals from the source list. Only Journal and
// Trade Journal sources are kept. Each subject area is mapped through
// fieldMap, unmapped ones pass through unchanged. All NS gives NS, any EC
// gives EC, otherwise the first mapped value wins. Quartile and CiteScore
// come from the metrics table; the last row per title wins.
func BuildSubjects(sources []SourceRow, metrics []MetricsRow, fieldMap map[string]string) *Catalog {
	entries := make(map[string]Entry)

	for _, s := range sources {
		if s.SourceType != "Journal" && s.SourceType != "Trade Journal" {
			continue
		}
		key := NormalizeName(s.Title)
		if key == "" {
			continue
		}
		entries[key] = Entry{Field: subjectsField(s.Subjects, fieldMap)}
	}

	for _, m := range metrics {
		key := NormalizeName(m.Title)
		if key == "" {
			continue
		}
		e := entries[key]
		e.Quartile = m.Quartile
		e.CiteScore = parseScore(m.CiteScore)
		entries[key] = e
	}
	return newCatalog(entries)
}

func subjectsField(subjects string, fieldMap map[string]string) Discipline {
	var mapped []Discipline
	for _, s := range strings.Split(subjects, "&") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if m, ok := fieldMap[s]; ok {
			s = m
		}
		mapped = append(mapped, Discipline(s))
	}
	if len(mapped) == 0 {
		return ""
	}

	allNS := true
	for _, f := range mapped {
		if f == EC {
			return EC
		}
		if f != NS {
			allNS = false
		}
	}
	if allNS {
		return NS
	}
	return mapped[0]
}

// BuildFromMapping loads a table produced by an earlier build.
func BuildFromMapping(rows []MappingRow) *Catalog {
	entries := make(map[string]Entry, len(rows))
	for _, r := range rows {
		key := NormalizeName(r.Name)
		if key == "" {
			continue
		}
		entries[key] = Entry{Field: Discipline(r.Field), Quartile: r.Quartile, CiteScore: parseScore(r.CiteScore)}
	}
	return newCatalog(entries)
}

// Rows flattens the catalog back into mapping rows sorted by name.
func (c *Catalog) Rows() []MappingRow {
	if c == nil {
		return nil
	}
	rows := make([]MappingRow, 0, len(c.entries))
	for name, e := range c.entries {
		score := ""
		if e.CiteScore != nil {
			score = strconv.FormatFloat(*e.CiteScore, 'f', -1, 64)
		}
		rows = append(rows, MappingRow{Name: name, Quartile: e.Quartile, Field: string(e.Field), CiteScore: score})
	}
	slices.SortFunc(rows, func(a, b MappingRow) int { return strings.Compare(a.Name, b.Name) })
	return rows
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
