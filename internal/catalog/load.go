// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Column names in the Scopus downloads.
const (
	colTitle       = "Title"
	colQuartile    = "Quartile"
	colCiteScore   = "CiteScore"
	colASJC        = "Scopus ASJC Code (Sub-subject Area)"
	colSourceTitle = "Source Title (Medline-sourced journals are indicated in Green)"
	colSourceType  = "Source Type"
	colSubjects    = "x2"
	colASJCCode    = "ASJC_Code"
	colField       = "Field"
	colMapping     = "Mapping"
	colPubName     = "Publication_Name"

	// headerScanRows bounds the search for a header row below a preamble.
	headerScanRows = 5
)

// ErrMissingColumn is returned when no header row holds the required columns.
var ErrMissingColumn = errors.New("required column not found")

// table is a CSV file with named columns.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// readTable parses CSV from r. The header is the first of the leading rows
// that holds every required column; rows above it are ignored.
func readTable(r io.Reader, encoding string, required ...string) (*table, error) {
	if strings.EqualFold(encoding, "cp1252") {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	for h := 0; h < len(records) && h < headerScanRows; h++ {
		index := make(map[string]int, len(records[h]))
		for i, name := range records[h] {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
		ok := true
		for _, col := range required {
			if _, found := index[col]; !found {
				ok = false
				break
			}
		}
		if ok {
			return &table{index: index, rows: records[h+1:]}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(required, ", "))
}

// ReadMetrics reads the CiteScore metrics download. The ASJC code column is
// optional here; use ReadASJCMetrics when fields are derived from it.
func ReadMetrics(r io.Reader, encoding string) ([]MetricsRow, error) {
	return readMetrics(r, encoding, colTitle, colQuartile, colCiteScore)
}

// ReadASJCMetrics reads the CiteScore metrics download and fails with
// ErrMissingColumn unless the ASJC code column is present.
func ReadASJCMetrics(r io.Reader, encoding string) ([]MetricsRow, error) {
	return readMetrics(r, encoding, colTitle, colQuartile, colCiteScore, colASJC)
}

func readMetrics(r io.Reader, encoding string, required ...string) ([]MetricsRow, error) {
	t, err := readTable(r, encoding, required...)
	if err != nil {
		return nil, err
	}
	rows := make([]MetricsRow, 0, len(t.rows))
	for _, rec := range t.rows {
		rows = append(rows, MetricsRow{
			Title:     t.get(rec, colTitle),
			Quartile:  t.get(rec, colQuartile),
			CiteScore: t.get(rec, colCiteScore),
			ASJCCode:  t.get(rec, colASJC),
		})
	}
	return rows, nil
}

// ReadSources reads the Scopus source list with its joined subject column.
func ReadSources(r io.Reader, encoding string) ([]SourceRow, error) {
	t, err := readTable(r, encoding, colSourceTitle, colSourceType, colSubjects)
	if err != nil {
		return nil, err
	}
	rows := make([]SourceRow, 0, len(t.rows))
	for _, rec := range t.rows {
		rows = append(rows, SourceRow{
			Title:      t.get(rec, colSourceTitle),
			SourceType: t.get(rec, colSourceType),
			Subjects:   t.get(rec, colSubjects),
		})
	}
	return rows, nil
}

// ReadFieldMap reads the discipline mapping. The key column is ASJC_Code
// ("11**") when present, otherwise Field (a subject area name).
func ReadFieldMap(r io.Reader, encoding string) (map[string]string, error) {
	t, err := readTable(r, encoding, colMapping)
	if err != nil {
		return nil, err
	}
	key := colASJCCode
	if !t.has(key) {
		key = colField
	}
	if !t.has(key) {
		return nil, fmt.Errorf("%w: %s or %s", ErrMissingColumn, colASJCCode, colField)
	}

	m := make(map[string]string, len(t.rows))
	for _, rec := range t.rows {
		if k := t.get(rec, key); k != "" {
			m[k] = t.get(rec, colMapping)
		}
	}
	return m, nil
}

// ReadMapping reads a precomputed journal mapping table.
func ReadMapping(r io.Reader, encoding string) ([]MappingRow, error) {
	t, err := readTable(r, encoding, colPubName, colQuartile, colField)
	if err != nil {
		return nil, err
	}
	rows := make([]MappingRow, 0, len(t.rows))
	for _, rec := range t.rows {
		rows = append(rows, MappingRow{
			Name:      t.get(rec, colPubName),
			Quartile:  t.get(rec, colQuartile),
			Field:     t.get(rec, colField),
			CiteScore: t.get(rec, colCiteScore),
		})
	}
	return rows, nil
}

// WriteMapping writes the catalog in the format ReadMapping accepts.
func WriteMapping(w io.Writer, c *Catalog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colPubName, colQuartile, colField, colCiteScore}); err != nil {
		return err
	}
	for _, r := range c.Rows() {
		if err := cw.Write([]string{r.Name, r.Quartile, r.Field, r.CiteScore}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the tables the configured heuristic needs and builds the
// catalog.
func Load(cfg types.CatalogConfig) (*Catalog, error) {
	h := Heuristic(cfg.Heuristic)
	var t Tables
	var err error

	open := func(path string, read func(io.Reader, string) error) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening catalog table: %w", err)
		}
		defer f.Close()
		if err := read(f, cfg.Encoding); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		return nil
	}
	readMetrics := func(r io.Reader, enc string) (err error) {
		t.Metrics, err = ReadMetrics(r, enc)
		return err
	}
	readASJCMetrics := func(r io.Reader, enc string) (err error) {
		t.Metrics, err = ReadASJCMetrics(r, enc)
		return err
	}
	readSources := func(r io.Reader, enc string) (err error) {
		t.Sources, err = ReadSources(r, enc)
		return err
	}
	readFieldMap := func(r io.Reader, enc string) (err error) {
		t.FieldMap, err = ReadFieldMap(r, enc)
		return err
	}
	readMapping := func(r io.Reader, enc string) (err error) {
		t.Mapping, err = ReadMapping(r, enc)
		return err
	}

	switch h {
	case HeuristicASJC:
		err = errors.Join(open(cfg.MetricsFile, readASJCMetrics), open(cfg.FieldMapFile, readFieldMap))
	case HeuristicSubjects:
		err = errors.Join(open(cfg.SourcesFile, readSources), open(cfg.MetricsFile, readMetrics),
			open(cfg.FieldMapFile, readFieldMap))
	case HeuristicMapping:
		err = open(cfg.MappingFile, readMapping)
	}
	if err != nil {
		return nil, err
	}
	return Build(h, t)
}
