package commands

import (
	"fmt"
	"time"

	"flowcap/internal/report"
	"flowcap/internal/store"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the headline figures of the last snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := store.LoadSnapshot(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("no snapshot found, run analyze first: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Summary(*snap, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
