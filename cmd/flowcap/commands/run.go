package commands

import (
	"errors"

	"flowcap/internal/capacity"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, analyze and render in one go",
	Long: `Fetches both lists from ClickUp, then analyzes and writes every report.
Without tracker credentials the cached tasks are analyzed as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session := newSession()

		results, err := session.Refresh(cmd.Context())
		switch {
		case errors.Is(err, capacity.ErrNoTracker):
			log.Warn().Msg("No tracker configured, analyzing the cached tasks")
			if err := session.Load(); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			printResults(cmd, results)
		}

		return analyze(cmd, session)
	},
}

func init() {
	runCmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD or RFC 3339); defaults to now")
	rootCmd.AddCommand(runCmd)
}
