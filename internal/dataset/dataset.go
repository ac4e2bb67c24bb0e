// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset reads and writes the CSV files exchanged between pipeline
// stages: record sets, award citations and error logs.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// RecordColumns is the column order of a record CSV.
var RecordColumns = []string{
	"scopus_id", "eid", "title", "publication_name",
	"issn", "isbn", "eissn", "volume", "issue", "page_range",
	"cover_date", "doi", "description", "citation_count",
	"affiliation", "aggregation_type", "subtype_description",
	"author_name_list", "author_ids", "auth_keywords",
	"fund_acr", "fund_no", "fund_sponsor", "full_text",
	"unique_id", "award_id", "EID", "query",
	"Field", "Quartile", "CiteScore", "Source", "SourceQuartile",
	"CrossIntra", "CiteType", "Dataset",
}

// CitationColumns is the column order of an award citation CSV.
var CitationColumns = []string{"unique_id", "IR_ID", "ID", "Citation", "Title", "Journal", "Issue", "Year"}

// ErrNoHeader is returned for an empty CSV.
var ErrNoHeader = errors.New("csv has no header row")

// Table is a header plus rows, addressed by column name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a Table with the given header.
func NewTable(header ...string) *Table {
	t := &Table{Header: header}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Has reports whether the table has column col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Get returns the cell of row in column col, or "" when either is missing.
func (t *Table) Get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Append adds a row given as column → value. Unknown columns are ignored.
func (t *Table) Append(values map[string]string) {
	row := make([]string, len(t.Header))
	for col, v := range values {
		if i, ok := t.index[col]; ok {
			row[i] = v
		}
	}
	t.Rows = append(t.Rows, row)
}

// ReadTable parses a CSV with a header row.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	t := &Table{Header: records[0], Rows: records[1:]}
	t.reindex()
	return t, nil
}

// Write writes the table as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// RecordsTable lays records out in RecordColumns order. Author lists and
// affiliation are JSON encoded.
func RecordsTable(records []types.Record) (*Table, error) {
	t := NewTable(RecordColumns...)
	for _, r := range records {
		names, err := jsonCell(r.AuthorNames)
		if err != nil {
			return nil, err
		}
		ids, err := jsonCell(r.AuthorIDs)
		if err != nil {
			return nil, err
		}
		aff := ""
		if r.Affiliation != nil {
			if aff, err = jsonCell(r.Affiliation); err != nil {
				return nil, err
			}
		}
		t.Rows = append(t.Rows, []string{
			r.ScopusID, r.EID, r.Title, r.PublicationName,
			r.ISSN, r.ISBN, r.EISSN, r.Volume, r.Issue, r.PageRange,
			r.CoverDate, r.DOI, r.Description, intCell(r.CitationCount),
			aff, r.AggregationType, r.SubtypeDescription,
			names, ids, r.AuthKeywords,
			r.FundAcr, r.FundNo, r.FundSponsor, r.FullText,
			r.UniqueID, r.AwardID, r.CitedEID, r.Query,
			r.Field, r.Quartile, floatCell(r.CiteScore), r.Source, r.SourceQuartile,
			r.CrossIntra, r.CiteType, r.Dataset,
		})
	}
	return t, nil
}

// WriteRecords writes records as CSV.
func WriteRecords(w io.Writer, records []types.Record) error {
	t, err := RecordsTable(records)
	if err != nil {
		return err
	}
	return t.Write(w)
}

// ReadRecords parses a record CSV. Missing columns read as absent and
// malformed numeric or JSON cells read as absent.
func ReadRecords(r io.Reader) ([]types.Record, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	records := make([]types.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		g := func(col string) string { return t.Get(row, col) }
		rec := types.Record{
			ScopusID:           g("scopus_id"),
			EID:                g("eid"),
			Title:              g("title"),
			PublicationName:    g("publication_name"),
			ISSN:               g("issn"),
			ISBN:               g("isbn"),
			EISSN:              g("eissn"),
			Volume:             g("volume"),
			Issue:              g("issue"),
			PageRange:          g("page_range"),
			CoverDate:          g("cover_date"),
			DOI:                g("doi"),
			Description:        g("description"),
			CitationCount:      parseInt(g("citation_count")),
			Affiliation:        parseJSON(g("affiliation")),
			AggregationType:    g("aggregation_type"),
			SubtypeDescription: g("subtype_description"),
			AuthorNames:        parseList(g("author_name_list")),
			AuthorIDs:          parseList(g("author_ids")),
			AuthKeywords:       g("auth_keywords"),
			FundAcr:            g("fund_acr"),
			FundNo:             g("fund_no"),
			FundSponsor:        g("fund_sponsor"),
			FullText:           g("full_text"),
			UniqueID:           g("unique_id"),
			AwardID:            g("award_id"),
			CitedEID:           g("EID"),
			Query:              g("query"),
			Field:              g("Field"),
			Quartile:           g("Quartile"),
			CiteScore:          parseFloat(g("CiteScore")),
			Source:             g("Source"),
			SourceQuartile:     g("SourceQuartile"),
			CrossIntra:         g("CrossIntra"),
			CiteType:           g("CiteType"),
			Dataset:            g("Dataset"),
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCitations parses an award citation CSV. Only the Citation column is
// required; split columns are read when present.
func ReadCitations(r io.Reader) ([]types.Citation, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if !t.Has("Citation") {
		return nil, fmt.Errorf("citations csv: missing column %q", "Citation")
	}
	cs := make([]types.Citation, 0, len(t.Rows))
	for _, row := range t.Rows {
		cs = append(cs, types.Citation{
			UniqueID: t.Get(row, "unique_id"),
			IRID:     t.Get(row, "IR_ID"),
			ID:       t.Get(row, "ID"),
			Citation: t.Get(row, "Citation"),
			Title:    t.Get(row, "Title"),
			Journal:  t.Get(row, "Journal"),
			Issue:    t.Get(row, "Issue"),
			Year:     t.Get(row, "Year"),
		})
	}
	return cs, nil
}

// WriteCitations writes citations in CitationColumns order.
func WriteCitations(w io.Writer, cs []types.Citation) error {
	t := NewTable(CitationColumns...)
	for _, c := range cs {
		t.Rows = append(t.Rows, []string{c.UniqueID, c.IRID, c.ID, c.Citation, c.Title, c.Journal, c.Issue, c.Year})
	}
	return t.Write(w)
}

// ErrorPath names the error log written next to output: Error_<base>.
func ErrorPath(output string) string {
	return filepath.Join(filepath.Dir(output), "Error_"+filepath.Base(output))
}

// WriteFile creates path and hands it to write. The file is removed when
// write fails.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile opens path and hands it to read.
func ReadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return v, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

func jsonCell(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding cell: %w", err)
	}
	return string(b), nil
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseJSON(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

// parseList decodes a JSON string array. Anything else gives an empty list.
func parseList(s string) []string {
	out := []string{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
