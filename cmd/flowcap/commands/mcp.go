package commands

import (
	"flowcap/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the capacity tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcp.NewServer(newSession(), Version).Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
