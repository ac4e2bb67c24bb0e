// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Stage names the lookup query that produced a match.
type Stage string

const (
	StageTitleJournal Stage = "title_journal"
	StageTitle        Stage = "title"
	StageCitation     Stage = "citation"

	stageNotFound = "not_found"
)

// Match is the record chosen for one citation.
type Match struct {
	Record types.Record
	Query  string
	Stage  Stage
	Quota  int
}

// PullOne finds the best single record for a copied citation. It tries
// title plus journal, then title alone, then the whole citation text, moving
// on whenever a stage errors or comes back empty. Stages with no input are
// skipped. When all fail the error is a *NotFoundError. A stage left untried
// because the quota ran out yields an error matching scopus.ErrQuotaExhausted
// instead, since the citation was not fully looked up.
func (s *Strategy) PullOne(ctx context.Context, title, journal, citation string) (*Match, error) {
	title, journal, citation = SimpleString(title), SimpleString(journal), SimpleString(citation)

	type stage struct {
		name  Stage
		query string
		ok    bool
	}
	stages := []stage{
		{StageTitleJournal, TitleJournalQuery(title, journal), title != "" && journal != ""},
		{StageTitle, TitleQuery(title), title != ""},
		{StageCitation, CitationQuery(citation), strings.TrimSpace(citation) != ""},
	}

	nf := &NotFoundError{Diagnostic: "no usable title, journal or citation", Quota: scopus.QuotaUnknown}
	for _, st := range stages {
		if !st.ok {
			continue
		}
		if nf.Quota == 0 {
			return nil, fmt.Errorf("lookup stopped after %d queries: %w", len(nf.Queries), scopus.ErrQuotaExhausted)
		}
		res, quota, qerr, err := s.search(ctx, st.query)
		if err != nil {
			return nil, err
		}
		nf.Queries = append(nf.Queries, st.query)
		nf.Quota = quota
		if qerr != nil {
			nf.Diagnostic = qerr.Diagnostic
			s.log.Debug().Str("query", st.query).Str("diagnostic", qerr.Diagnostic).Msg("lookup stage failed")
			continue
		}

		s.metrics.IncLookup(string(st.name))
		return &Match{Record: s.tieBreak(res.Records), Query: st.query, Stage: st.name, Quota: quota}, nil
	}

	s.metrics.IncLookup(stageNotFound)
	return nil, nf
}

// Failure is one citation that produced no record.
type Failure struct {
	Key      string
	Citation string
	Info     string
}

// ManualReport is the outcome of PullManual.
type ManualReport struct {
	Records     []types.Record
	Failures    []Failure
	Unprocessed []string
	Quota       int
}

const missingTitle = "Citation missing title"

// PullManual runs PullOne over copied award citations. Citations without a
// title are recorded as failures without spending a query. The loop stops
// once the quota reaches zero and lists the untouched citations as
// Unprocessed, including one whose lookup the quota cut short.
func (s *Strategy) PullManual(ctx context.Context, citations []types.Citation) (*ManualReport, error) {
	rep := &ManualReport{Quota: scopus.QuotaUnknown}
	row := 0

	for i, c := range citations {
		if err := ctx.Err(); err != nil {
			rep.Unprocessed = appendKeys(rep.Unprocessed, citations[i:])
			return rep, err
		}
		if strings.TrimSpace(c.Title) == "" {
			rep.Failures = append(rep.Failures, Failure{Key: c.Key(), Citation: c.Citation, Info: missingTitle})
			continue
		}

		var quota int
		m, err := s.PullOne(ctx, c.Title, c.Journal, c.Citation)
		var nf *NotFoundError
		switch {
		case errors.Is(err, scopus.ErrQuotaExhausted):
			rep.Quota = 0
			rep.Unprocessed = appendKeys(rep.Unprocessed, citations[i:])
			s.stopped(row, len(citations)-i)
			return rep, nil
		case err == nil:
			quota = m.Quota
			rec := m.Record
			rec.UniqueID = c.Key()
			rep.Records = append(rep.Records, rec)
		case errors.As(err, &nf):
			quota = nf.Quota
			rep.Failures = append(rep.Failures, Failure{Key: c.Key(), Citation: c.Citation, Info: nf.Diagnostic})
		default:
			rep.Unprocessed = appendKeys(rep.Unprocessed, citations[i:])
			return rep, err
		}

		s.progress(row, quota)
		row++
		if quota != scopus.QuotaUnknown {
			rep.Quota = quota
		}
		if quota == 0 {
			rep.Unprocessed = appendKeys(rep.Unprocessed, citations[i+1:])
			s.stopped(row, len(citations)-i-1)
			break
		}
	}
	return rep, nil
}

func appendKeys(dst []string, cs []types.Citation) []string {
	for _, c := range cs {
		dst = append(dst, c.Key())
	}
	return dst
}
