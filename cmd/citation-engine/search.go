// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/observability"
	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run one Scopus query and print every record as JSON",
	Long: `search runs an advanced-search query such as
TITLE(coupled human and natural systems) AND SRCTITLE(science) and follows
the result cursor to the last page. Records are printed to stdout as a JSON
array; the remaining quota is logged.

A query Scopus rejects or answers with an empty result exits non-zero with
the diagnostic.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		log := observability.WithQueryContext(logger, query)

		client, err := newClient(log)
		if err != nil {
			return err
		}
		res, err := client.SearchAll(cmd.Context(), query)
		if err != nil {
			if q := scopus.QuotaOf(err); q != scopus.QuotaUnknown {
				log.Info().Int("quota", q).Msg("remaining quota")
			}
			return err
		}
		log.Info().Int("total", res.Total).Int("records", len(res.Records)).Int("quota", res.Quota).Msg("search finished")

		records := res.Records
		if records == nil {
			records = []types.Record{}
		}
		enc := json.NewEncoder(os.Stdout)
		if compact, _ := cmd.Flags().GetBool("compact"); !compact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(records)
	},
}

func init() {
	searchCmd.Flags().Bool("compact", false, "print one line of JSON")

	rootCmd.AddCommand(searchCmd)
}
