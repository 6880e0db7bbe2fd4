package commands

import (
	"fmt"

	"flowcap/internal/ingest"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch tasks and status history from ClickUp into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := newSession().Refresh(cmd.Context())
		if err != nil {
			return err
		}
		printResults(cmd, results)
		return nil
	},
}

func printResults(cmd *cobra.Command, results []ingest.Result) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%-8s list %s: %s tasks over %d page(s)", r.Set, r.ListID, humanize.Comma(int64(r.Tasks)), r.Pages)
		if r.Histories > 0 || r.Unavailable > 0 {
			fmt.Fprintf(out, ", %d histories, %d unavailable", r.Histories, r.Unavailable)
		}
		if r.Truncated {
			fmt.Fprint(out, " (truncated at page limit)")
		}
		fmt.Fprintln(out)
	}
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
