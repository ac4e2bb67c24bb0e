// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/catalog"
	"github.com/pdiddy/citation-engine/internal/citeparse"
	"github.com/pdiddy/citation-engine/internal/classify"
	"github.com/pdiddy/citation-engine/internal/dataset"
	"github.com/pdiddy/citation-engine/internal/report"
	"github.com/pdiddy/citation-engine/internal/retrieve"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean IN OUT",
	Short: "Deduplicate, classify and filter a record CSV",
	Long: `clean drops duplicate eids, looks every publication up in the reference
catalog and keeps journal articles with a known discipline and quartile.
Every kept row is labelled with --dataset.

With --cited the input is a pull-cited output: duplicates are kept, since
one work can cite several sources, and each row is labelled Cross or Intra
against the records of --source. --with-query fills the query column with
the exact source title query of each row's journal issue, ready for
pull-comp.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		opts := classify.Options{}
		opts.Dataset, _ = cmd.Flags().GetString("dataset")
		opts.Cited, _ = cmd.Flags().GetBool("cited")
		withQuery, _ := cmd.Flags().GetBool("with-query")

		records, err := dataset.ReadFile(in, dataset.ReadRecords)
		if err != nil {
			return err
		}
		if opts.Cited {
			source, _ := cmd.Flags().GetString("source")
			if opts.Sources, err = dataset.ReadFile(source, dataset.ReadRecords); err != nil {
				return err
			}
		}
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}

		t, err := beginRun(ctx, "clean", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		kept, sum := classify.CleanAndFilter(records, cat, opts)
		if withQuery {
			stampQueries(kept)
		}
		t.setDropped(sum)
		t.report.Counts = report.Counts{Input: sum.Input, Records: sum.Kept}
		return writeRecords(out, kept)
	},
}

var filterCompCmd = &cobra.Command{
	Use:   "filter-comp IN OUT",
	Short: "Filter comparator records against the funded set",
	Long: `filter-comp removes from a pull-comp output every record that is itself in
--source, every record sharing an author with --source or any
--exclude-authors file, and every record funded by the National Science
Foundation. The rest is cleaned like clean and labelled with --dataset.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		opts := classify.ComparatorOptions{}
		opts.Dataset, _ = cmd.Flags().GetString("dataset")
		source, _ := cmd.Flags().GetString("source")
		exclude, _ := cmd.Flags().GetStringSlice("exclude-authors")

		comp, err := dataset.ReadFile(in, dataset.ReadRecords)
		if err != nil {
			return err
		}
		if opts.Sources, err = dataset.ReadFile(source, dataset.ReadRecords); err != nil {
			return err
		}
		opts.AuthorPools = append(opts.AuthorPools, opts.Sources)
		for _, path := range exclude {
			pool, err := dataset.ReadFile(path, dataset.ReadRecords)
			if err != nil {
				return err
			}
			opts.AuthorPools = append(opts.AuthorPools, pool)
		}
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}

		t, err := beginRun(ctx, "filter-comp", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		kept, sum := classify.FilterComparators(comp, cat, opts)
		t.setDropped(sum)
		t.report.Counts = report.Counts{Input: sum.Input, Records: sum.Kept}
		return writeRecords(out, kept)
	},
}

var splitCitationsCmd = &cobra.Command{
	Use:   "split-citations IN OUT",
	Short: "Split award citations into title, journal, issue and year",
	Long: `split-citations fills the Title, Journal, Issue and Year columns of a
citations CSV from the free-text Citation column. Citations in neither known
layout keep empty parts and are counted as failures; fill their Title and
Journal by hand before pull-manual, which skips citations without a title.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in, out := args[0], args[1]
		ctx := cmd.Context()

		citations, err := dataset.ReadFile(in, dataset.ReadCitations)
		if err != nil {
			return err
		}

		t, err := beginRun(ctx, "split-citations", in, out)
		if err != nil {
			return err
		}
		defer func() { err = t.finish(ctx, err) }()

		failed := citeparse.Apply(citations)
		t.report.Counts = report.Counts{Input: len(citations), Records: len(citations) - failed, Failures: failed}
		return dataset.WriteFile(out, func(w io.Writer) error {
			return dataset.WriteCitations(w, citations)
		})
	},
}

func init() {
	cleanCmd.Flags().String("dataset", "", "label stamped on every kept row (required)")
	cleanCmd.Flags().Bool("cited", false, "input is a pull-cited output")
	cleanCmd.Flags().String("source", "", "records the cited input was pulled for (required with --cited)")
	cleanCmd.Flags().Bool("with-query", false, "fill the query column for pull-comp")
	_ = cleanCmd.MarkFlagRequired("dataset")
	cleanCmd.MarkFlagsRequiredTogether("cited", "source")

	filterCompCmd.Flags().String("dataset", "", "label stamped on every kept row (required)")
	filterCompCmd.Flags().String("source", "", "funded records the comparators are matched against (required)")
	filterCompCmd.Flags().StringSlice("exclude-authors", nil, "further record CSVs whose authors are excluded")
	_ = filterCompCmd.MarkFlagRequired("dataset")
	_ = filterCompCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(cleanCmd, filterCompCmd, splitCitationsCmd)
}

// stampQueries sets each record's query to its journal issue query.
func stampQueries(records []types.Record) {
	for i := range records {
		records[i].Query = retrieve.FormatQuery(records[i].PublicationName, records[i].Volume, records[i].Issue)
	}
}
