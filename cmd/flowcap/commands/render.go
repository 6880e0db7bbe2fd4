package commands

import (
	"fmt"

	"flowcap/internal/store"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var openDashboard bool

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render the dashboard and Markdown report from the last snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := store.LoadSnapshot(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("no snapshot to render, run analyze first: %w", err)
		}

		outputs, err := reportWriter().RenderOnly(cmd.Context(), *snap)
		if err != nil {
			return fmt.Errorf("failed to render reports: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dashboard: %s\nMarkdown:  %s\n", outputs.Dashboard, outputs.Markdown)

		if openDashboard {
			if err := browser.OpenFile(outputs.Dashboard); err != nil {
				log.Warn().Err(err).Msg("Could not open the dashboard in a browser")
			}
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&openDashboard, "open", false, "open the dashboard in the default browser")
	rootCmd.AddCommand(renderCmd)
}
