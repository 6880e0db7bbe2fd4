package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flowcap/internal/capacity"
	"flowcap/internal/config"
	"flowcap/internal/dashboard"
	"flowcap/internal/ingest"
	"flowcap/internal/logging"
	"flowcap/internal/report"
	"flowcap/internal/store"
	"flowcap/internal/tracker"
	"flowcap/internal/workflow"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	wf      *workflow.Workflow
)

var rootCmd = &cobra.Command{
	Use:   "flowcap",
	Short: "Flowcap measures WIP, flow efficiency and capacity of a ClickUp pipeline",
	Long: `Flowcap pulls tasks and their status history from ClickUp, classifies every open task
by where its time went (work, blocked, queue) and derives flow ratio, Little's Law WIP targets,
per-phase benchmarks and remaining-time forecasts. Results are written as JSON, Markdown and
a self-contained HTML dashboard, or served to agents over MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		wf, err = workflow.Load(cfg.WorkflowFile)
		if err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Flowcap starting")
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// newSession wires the cache, the workflow and, when credentials are present, the tracker.
func newSession() *capacity.Session {
	st := store.NewTaskStore()

	var provider *ingest.Provider
	if cfg.Tracker.Token != "" && cfg.PipelineListID != "" {
		client := tracker.NewClient(cfg.Tracker)
		provider = ingest.NewProvider(client, st, wf, cfg.DataPath, ingest.Options{
			PageDelay: cfg.PageDelay,
			TaskDelay: cfg.TaskDelay,
			MaxPages:  cfg.MaxPages,
		})
	} else {
		log.Debug().Msg("No tracker credentials, working from the cache only")
	}

	return capacity.NewSession(st, provider, wf, capacity.Options{
		CacheDir:     cfg.DataPath,
		PipelineList: cfg.PipelineListID,
		TicketsList:  cfg.TicketsListID,
	})
}

func reportWriter() report.Writer {
	return report.Writer{
		OutputDir: cfg.OutputDir,
		Charts:    cfg.EnableMermaidCharts,
		Dashboard: dashboard.Options{
			Title:  "Flow capacity",
			Minify: true,
		},
	}
}
