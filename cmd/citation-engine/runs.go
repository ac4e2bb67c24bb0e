// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return writeRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

func writeRuns(w io.Writer, runs []store.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCOMMAND\tSTATUS\tRECORDS\tFAILURES\tUNPROCESSED\tQUOTA\tINPUT\tOUTPUT")
	for _, r := range runs {
		quota := "-"
		if r.Quota.Valid {
			quota = strconv.FormatInt(r.Quota.Int64, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.StartedAt, r.Command, r.Status, r.Records, r.Failures, r.Unprocessed, quota, r.Input, r.Output)
	}
	return tw.Flush()
}
