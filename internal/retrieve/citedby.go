// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"regexp"

	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var awardDigits = regexp.MustCompile(`\d+`)

// CitedTarget is one source document whose citing works are wanted.
type CitedTarget struct {
	EID      string
	UniqueID string
}

// TargetsFrom lists the eids of records in order. Records without an eid are
// skipped.
func TargetsFrom(records []types.Record) []CitedTarget {
	targets := make([]CitedTarget, 0, len(records))
	for _, r := range records {
		if r.EID == "" {
			continue
		}
		targets = append(targets, CitedTarget{EID: r.EID, UniqueID: r.UniqueID})
	}
	return targets
}

// CitedByReport separates the eids that were queried from the ones never
// attempted. Misses are eids whose query came back as a QueryError.
type CitedByReport struct {
	Records     []types.Record
	Processed   []string
	Misses      []string
	Unprocessed []string
	Quota       int
}

// PullCitedBy collects every record citing each target, in target order.
// Query errors count as misses and the loop goes on. Once a response reports
// zero remaining quota the loop stops and the rest of the targets are listed
// as Unprocessed; a target whose query was refused for lack of quota is
// Unprocessed too, never a miss. Transport errors and cancellation also stop the loop; the
// report then holds everything gathered so far.
func (s *Strategy) PullCitedBy(ctx context.Context, targets []CitedTarget) (*CitedByReport, error) {
	rep := &CitedByReport{Quota: scopus.QuotaUnknown}

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			rep.Unprocessed = appendEIDs(rep.Unprocessed, targets[i:])
			return rep, err
		}

		res, quota, qerr, err := s.search(ctx, CitedByQuery(t.EID))
		if errors.Is(err, scopus.ErrQuotaExhausted) {
			rest := targets[i:]
			rep.Quota = 0
			rep.Unprocessed = appendEIDs(rep.Unprocessed, rest)
			s.metrics.AddCitedBy("unprocessed", len(rest))
			s.stopped(len(rep.Processed), len(rest))
			break
		}
		if err != nil {
			rep.Unprocessed = appendEIDs(rep.Unprocessed, targets[i:])
			return rep, err
		}
		rep.Processed = append(rep.Processed, t.EID)

		if qerr != nil {
			rep.Misses = append(rep.Misses, t.EID)
			s.metrics.AddCitedBy("miss", 1)
			s.log.Debug().Str("eid", t.EID).Str("diagnostic", qerr.Diagnostic).Msg("no citing records")
		} else {
			for _, rec := range res.Records {
				rec.CitedEID = t.EID
				if t.UniqueID != "" {
					rec.UniqueID = t.UniqueID
					rec.AwardID = awardDigits.FindString(t.UniqueID)
				}
				rep.Records = append(rep.Records, rec)
			}
			s.metrics.AddCitedBy("hit", 1)
		}

		s.progress(i, quota)
		if quota != scopus.QuotaUnknown {
			rep.Quota = quota
		}
		if quota == 0 {
			rest := targets[i+1:]
			rep.Unprocessed = appendEIDs(rep.Unprocessed, rest)
			s.metrics.AddCitedBy("unprocessed", len(rest))
			s.stopped(len(rep.Processed), len(rest))
			break
		}
	}
	return rep, nil
}

func appendEIDs(dst []string, ts []CitedTarget) []string {
	for _, t := range ts {
		dst = append(dst, t.EID)
	}
	return dst
}
