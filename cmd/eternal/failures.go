package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/client"
)

func newFailuresCmd() *cobra.Command {
	var (
		kind  string
		since time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List recorded sync failures on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.SyncFailureListOptions{Kind: kind, Limit: limit}
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}

			failures, hasMore, err := newAPIClient().SyncFailures.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if flagFmt != "table" {
				output(w, map[string]any{"failures": failures, "has_more": hasMore}, strconv.Itoa(len(failures)))
				return nil
			}

			rows := make([][]string, 0, len(failures))
			for _, f := range failures {
				rows = append(rows, []string{
					f.OccurredAt.Format(time.RFC3339),
					f.Kind,
					f.Op,
					strconv.Itoa(len(f.EntityIDs)),
					f.Message,
				})
			}
			formatTable(w, []string{"WHEN", "KIND", "OP", "IDS", "MESSAGE"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only failures of this kind (person, tree, post, post_tags, media_tags)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only failures newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum failures to list")
	return cmd
}
