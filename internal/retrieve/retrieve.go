// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve drives the Scopus client through the lookups a dataset
// build needs: best single match for a copied citation, comparator issues
// and cited-by lists, all under a shrinking weekly quota.
package retrieve

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citation-engine/internal/observability"
	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Searcher runs one query to completion. *scopus.Client satisfies it.
type Searcher interface {
	SearchAll(ctx context.Context, query string) (*scopus.Result, error)
}

// TieBreak picks one record out of a non-empty result set.
type TieBreak func(records []types.Record) types.Record

// FirstMatch keeps the record Scopus ranked first. No relevance check is
// made between several hits.
func FirstMatch(records []types.Record) types.Record {
	return records[0]
}

const defaultProgressEvery = 100

// Strategy runs lookups sequentially against a Searcher.
type Strategy struct {
	searcher      Searcher
	tieBreak      TieBreak
	progressEvery int
	log           zerolog.Logger
	metrics       *observability.Metrics
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithTieBreak replaces FirstMatch.
func WithTieBreak(tb TieBreak) Option {
	return func(s *Strategy) { s.tieBreak = tb }
}

// WithProgressEvery logs remaining quota every n rows of a bulk pull.
func WithProgressEvery(n int) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.progressEvery = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Strategy) { s.log = l }
}

// WithMetrics records lookup and cited-by outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Strategy) { s.metrics = m }
}

// New creates a Strategy over searcher.
func New(searcher Searcher, opts ...Option) *Strategy {
	s := &Strategy{
		searcher:      searcher,
		tieBreak:      FirstMatch,
		progressEvery: defaultProgressEvery,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrNotFound is wrapped by NotFoundError.
var ErrNotFound = errors.New("no matching record")

// NotFoundError reports a citation for which every lookup stage failed.
type NotFoundError struct {
	Queries    []string
	Diagnostic string
	Quota      int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v after %d queries: %s", ErrNotFound, len(e.Queries), e.Diagnostic)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// stopped logs the end of a bulk loop cut short by the quota.
func (s *Strategy) stopped(done, unprocessed int) {
	s.log.Warn().Int("processed", done).Int("unprocessed", unprocessed).Msg("quota exhausted, stopping")
}

// progress logs the remaining quota every progressEvery rows, starting at
// row 0.
func (s *Strategy) progress(row, quota int) {
	if row%s.progressEvery == 0 {
		s.log.Info().Int("row", row).Int("remaining_quota", quota).Msg("progress")
	}
}

// search runs one query and folds the outcome into (result, quota, query
// error). Transport failures come back as err, and so does a request refused
// for lack of quota, which matches scopus.ErrQuotaExhausted: that query was
// never answered and must not be reported as a miss.
func (s *Strategy) search(ctx context.Context, query string) (res *scopus.Result, quota int, qerr *scopus.QueryError, err error) {
	res, err = s.searcher.SearchAll(ctx, query)
	if err != nil {
		if errors.Is(err, scopus.ErrQuotaExhausted) {
			return nil, 0, nil, err
		}
		if qe, ok := scopus.AsQueryError(err); ok {
			return nil, qe.Quota, qe, nil
		}
		return nil, scopus.QuotaUnknown, nil, err
	}
	if len(res.Records) == 0 {
		return nil, res.Quota, &scopus.QueryError{
			Query: query, Kind: scopus.Rejected, Diagnostic: "empty result set", Quota: res.Quota,
		}, nil
	}
	return res, res.Quota, nil, nil
}
