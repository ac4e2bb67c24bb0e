// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/catalog"
	"github.com/pdiddy/citation-engine/internal/dataset"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the reference catalog of journals",
	Long: `The reference catalog maps a publication name to a discipline (NS, EC, GI
or Other), a CiteScore quartile and a CiteScore. It is built from the tables
under catalog.* in the config with the heuristic named by catalog.heuristic.`,
}

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup NAME...",
	Short: "Print the catalog entry of each publication name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFIELD\tQUARTILE\tCITESCORE")
		for _, name := range args {
			e, ok := cat.Lookup(name)
			if !ok {
				fmt.Fprintf(tw, "%s\t-\t-\t-\n", name)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, e.Field, dash(e.Quartile), score(e.CiteScore))
		}
		return tw.Flush()
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count catalog entries by field and quartile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}
		return writeStats(cmd.OutOrStdout(), cat)
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export OUT",
	Short: "Write the built catalog as a precomputed mapping table",
	Long: `export writes Publication_Name, Quartile, Field and CiteScore for every
entry. Point catalog.mapping_file at the result and set catalog.heuristic to
mapping to skip the build on later runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}
		if err := dataset.WriteFile(args[0], func(w io.Writer) error {
			return catalog.WriteMapping(w, cat)
		}); err != nil {
			return err
		}
		logger.Info().Int("entries", cat.Len()).Str("output", args[0]).Msg("catalog exported")
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogLookupCmd, catalogStatsCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func writeStats(w io.Writer, cat *catalog.Catalog) error {
	byField, byQuartile := cat.Stats()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "entries\t%d\n", cat.Len())
	fmt.Fprintf(tw, "heuristic\t%s\n", cfg.Catalog.Heuristic)
	for _, f := range slices.Sorted(maps.Keys(byField)) {
		fmt.Fprintf(tw, "field %s\t%d\n", f, byField[f])
	}
	for _, q := range slices.Sorted(maps.Keys(byQuartile)) {
		fmt.Fprintf(tw, "%s\t%d\n", dash(q), byQuartile[q])
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func score(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
