package commands

import (
	"fmt"
	"time"

	"flowcap/internal/capacity"
	"flowcap/internal/report"

	"github.com/spf13/cobra"
)

var asOf string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the capacity snapshot from the cache and write all reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		session := newSession()
		if err := session.Ensure(cmd.Context()); err != nil {
			return err
		}
		return analyze(cmd, session)
	},
}

func analyze(cmd *cobra.Command, session *capacity.Session) error {
	var ref time.Time
	if asOf != "" {
		var err error
		if ref, err = capacity.ParseReferenceDate(asOf); err != nil {
			return err
		}
	}

	snap := session.Snapshot(ref)
	outputs, err := reportWriter().WriteAll(cmd.Context(), snap)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Summary(snap, session.Now()))
	fmt.Fprintf(out, "\nSnapshot:  %s\nDashboard: %s\nMarkdown:  %s\n", outputs.Snapshot, outputs.Dashboard, outputs.Markdown)
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD or RFC 3339); defaults to now")
	rootCmd.AddCommand(analyzeCmd)
}
