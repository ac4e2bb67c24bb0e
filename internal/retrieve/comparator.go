// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"

	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// QueryFailure is a comparator query that returned no records.
type QueryFailure struct {
	Query string
	Info  string
}

// ComparatorReport is the outcome of PullComparators.
type ComparatorReport struct {
	Records     []types.Record
	Failures    []QueryFailure
	Unprocessed []string
	Quota       int
}

// PullComparators runs each distinct query once, in first-seen order, and
// keeps every record of every result set stamped with its query. Typical
// queries come from FormatQuery, one per journal issue. A query refused for
// lack of quota is listed as Unprocessed along with every query after it.
func (s *Strategy) PullComparators(ctx context.Context, queries []string) (*ComparatorReport, error) {
	rep := &ComparatorReport{Quota: scopus.QuotaUnknown}
	queries = distinct(queries)

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			rep.Unprocessed = append(rep.Unprocessed, queries[i:]...)
			return rep, err
		}

		res, quota, qerr, err := s.search(ctx, q)
		if errors.Is(err, scopus.ErrQuotaExhausted) {
			rep.Quota = 0
			rep.Unprocessed = append(rep.Unprocessed, queries[i:]...)
			s.stopped(i, len(queries)-i)
			break
		}
		if err != nil {
			rep.Unprocessed = append(rep.Unprocessed, queries[i:]...)
			return rep, err
		}
		if qerr != nil {
			rep.Failures = append(rep.Failures, QueryFailure{Query: q, Info: qerr.Diagnostic})
		} else {
			for _, rec := range res.Records {
				rec.Query = q
				rep.Records = append(rep.Records, rec)
			}
		}

		s.progress(i, quota)
		if quota != scopus.QuotaUnknown {
			rep.Quota = quota
		}
		if quota == 0 {
			rep.Unprocessed = append(rep.Unprocessed, queries[i+1:]...)
			s.stopped(i+1, len(queries)-i-1)
			break
		}
	}
	return rep, nil
}

func distinct(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
