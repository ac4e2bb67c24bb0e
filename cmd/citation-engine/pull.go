// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/citeparse"
	"github.com/pdiddy/citation-engine/internal/dataset"
	"github.com/pdiddy/citation-engine/internal/report"
	"github.com/pdiddy/citation-engine/internal/retrieve"
	"github.com/pdiddy/citation-engine/internal/store"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var pullManualCmd = &cobra.Command{
	Use:   "pull-manual IN OUT",
	Short: "Find the Scopus record of each copied award citation",
	Long: `pull-manual reads a citations CSV (IR_ID, ID, Citation and optionally
Title, Journal) and looks each citation up with a title and journal query,
then a title-only query, then a full-text query. The first record of the
first non-empty result is kept.

Citations with no record are written to Error_<OUT>. Use --split when the
Title and Journal columns have not been filled in by split-citations.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		citations, err := dataset.ReadFile(in, dataset.ReadCitations)
		if err != nil {
			return err
		}
		if split, _ := cmd.Flags().GetBool("split"); split {
			if n := citeparse.Apply(citations); n > 0 {
				logger.Warn().Int("unsplit", n).Msg("some citations did not match a known layout")
			}
		}

		t, err := beginRun(ctx, "pull-manual", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		strat, err := newStrategy(t.log)
		if err != nil {
			return err
		}

		rep, pullErr := strat.PullManual(ctx, citations)
		t.setQuota(rep.Quota)
		t.report.Counts = report.Counts{Input: len(citations), Records: len(rep.Records), Failures: len(rep.Failures)}
		t.report.Unprocessed = rep.Unprocessed

		errs := []error{pullErr, writeRecords(out, rep.Records)}
		if len(rep.Failures) > 0 {
			t.report.Errors = dataset.ErrorPath(out)
			errs = append(errs, dataset.WriteFile(t.report.Errors, manualFailures(rep.Failures).Write))
		}
		return errors.Join(errs...)
	},
}

var pullCompCmd = &cobra.Command{
	Use:   "pull-comp IN OUT",
	Short: "Pull every record of the comparator journal issues",
	Long: `pull-comp runs one query per distinct journal issue and keeps every
record returned. Queries come from the query column of IN; rows without one
get an exact source title query built from publication_name, volume and
issue.

Queries that return nothing are written to Error_<OUT>.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		records, err := dataset.ReadFile(in, dataset.ReadRecords)
		if err != nil {
			return err
		}
		queries := comparatorQueries(records)

		t, err := beginRun(ctx, "pull-comp", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		strat, err := newStrategy(t.log)
		if err != nil {
			return err
		}

		rep, pullErr := strat.PullComparators(ctx, queries)
		t.setQuota(rep.Quota)
		t.report.Counts = report.Counts{Input: len(queries), Records: len(rep.Records), Failures: len(rep.Failures)}
		t.report.Unprocessed = rep.Unprocessed

		errs := []error{pullErr, writeRecords(out, rep.Records)}
		if len(rep.Failures) > 0 {
			t.report.Errors = dataset.ErrorPath(out)
			errs = append(errs, dataset.WriteFile(t.report.Errors, queryFailures(rep.Failures).Write))
		}
		return errors.Join(errs...)
	},
}

var pullCitedCmd = &cobra.Command{
	Use:   "pull-cited IN OUT",
	Short: "Pull the works citing each record of IN",
	Long: `pull-cited queries REFEID(eid) for every record of IN and keeps all citing
records, stamped with the eid they cite. This needs a key with the REFEID
entitlement.

The weekly quota rarely covers a whole dataset. The run stops when the quota
reaches zero; the eids it did not reach are listed in the run report. Run
again with --resume and a new OUT the following week to skip every eid the
ledger already has for IN.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		records, err := dataset.ReadFile(in, dataset.ReadRecords)
		if err != nil {
			return err
		}
		targets := retrieve.TargetsFrom(records)

		t, err := beginRun(ctx, "pull-cited", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		if resume, _ := cmd.Flags().GetBool("resume"); resume {
			done, err := t.store.CitedDone(ctx, in)
			if err != nil {
				return err
			}
			targets = pendingTargets(targets, done)
			t.log.Info().Int("done", len(done)).Int("pending", len(targets)).Msg("resuming")
		}

		strat, err := newStrategy(t.log)
		if err != nil {
			return err
		}

		rep, pullErr := strat.PullCitedBy(ctx, targets)
		t.setQuota(rep.Quota)
		t.report.Counts = report.Counts{Input: len(targets), Records: len(rep.Records), Failures: len(rep.Misses)}
		t.report.Unprocessed = rep.Unprocessed

		// Progress is recorded even when the pull was interrupted.
		hits, misses := splitProcessed(rep)
		keep := context.WithoutCancel(ctx)
		errs := []error{
			pullErr,
			writeRecords(out, rep.Records),
			t.store.MarkCited(keep, t.id, in, store.CitedHit, hits),
			t.store.MarkCited(keep, t.id, in, store.CitedMiss, misses),
		}
		if len(misses) > 0 {
			t.report.Errors = dataset.ErrorPath(out)
			errs = append(errs, dataset.WriteFile(t.report.Errors, citedMisses(misses).Write))
		}
		return errors.Join(errs...)
	},
}

func init() {
	pullManualCmd.Flags().Bool("split", false, "split Title, Journal, Issue and Year out of the citation text first")
	pullCitedCmd.Flags().Bool("resume", false, "skip eids of IN already queried by earlier runs")

	rootCmd.AddCommand(pullManualCmd, pullCompCmd, pullCitedCmd)
}

func writeRecords(path string, records []types.Record) error {
	return dataset.WriteFile(path, func(w io.Writer) error {
		return dataset.WriteRecords(w, records)
	})
}

// comparatorQueries takes each record's query, or builds one from its
// journal issue when the column is empty.
func comparatorQueries(records []types.Record) []string {
	queries := make([]string, 0, len(records))
	for _, r := range records {
		q := r.Query
		if q == "" {
			q = retrieve.FormatQuery(r.PublicationName, r.Volume, r.Issue)
		}
		queries = append(queries, q)
	}
	return queries
}

func pendingTargets(targets []retrieve.CitedTarget, done map[string]bool) []retrieve.CitedTarget {
	pending := make([]retrieve.CitedTarget, 0, len(targets))
	for _, t := range targets {
		if !done[t.EID] {
			pending = append(pending, t)
		}
	}
	return pending
}

// splitProcessed separates the queried eids into hits and misses.
func splitProcessed(rep *retrieve.CitedByReport) (hits, misses []string) {
	missed := make(map[string]bool, len(rep.Misses))
	for _, e := range rep.Misses {
		missed[e] = true
	}
	for _, e := range rep.Processed {
		if !missed[e] {
			hits = append(hits, e)
		}
	}
	return hits, rep.Misses
}

func manualFailures(fs []retrieve.Failure) *dataset.Table {
	tbl := dataset.NewTable("unique_id", "Citation", "error_info")
	for _, f := range fs {
		tbl.Append(map[string]string{"unique_id": f.Key, "Citation": f.Citation, "error_info": f.Info})
	}
	return tbl
}

func queryFailures(fs []retrieve.QueryFailure) *dataset.Table {
	tbl := dataset.NewTable("query", "error_info")
	for _, f := range fs {
		tbl.Append(map[string]string{"query": f.Query, "error_info": f.Info})
	}
	return tbl
}

func citedMisses(eids []string) *dataset.Table {
	tbl := dataset.NewTable("EID", "error_info")
	for _, e := range eids {
		tbl.Append(map[string]string{"EID": e, "error_info": "no citing records"})
	}
	return tbl
}
