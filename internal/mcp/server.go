package mcp

import (
	"context"

	"flowcap/internal/capacity"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is the implementation name announced to clients.
const ServerName = "flowcap"

// Server exposes capacity analysis as MCP tools.
type Server struct {
	session *capacity.Session
	version string
}

// NewServer creates a new MCP server over an analysis session.
func NewServer(session *capacity.Session, version string) *Server {
	return &Server{session: session, version: version}
}

// Build creates the SDK server with every tool registered.
func (s *Server) Build() *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: s.version}, nil)

	addTool(server, &sdk.Tool{
		Name: "capacity_snapshot",
		Description: "Compute the capacity snapshot of the pipeline: WIP age buckets, C1/C2/C3 scenarios, flow ratio, " +
			"critical WIP share, Little's Law WIP targets, throughput and cycle time. " +
			"Guidance: outlier months (bulk closures) are already excluded from averages; report them, do not re-add them. " +
			"Use 'as_of' (YYYY-MM-DD) to replay an earlier date and 'refresh' only when the user asks for fresh tracker data.",
	}, s.handleCapacitySnapshot)

	addTool(server, &sdk.Tool{
		Name: "task_forecast",
		Description: "List remaining-time estimates for open tasks, soonest first, derived from per-phase benchmarks. " +
			"Guidance: estimates are phase averages, not commitments. Mention when a benchmark fell back to its configured default.",
	}, s.handleTaskForecast)

	addTool(server, &sdk.Tool{
		Name: "classify_history",
		Description: "Reduce one task's status history to work, blocked and queue days, flow efficiency and scenario. " +
			"Pass 'task_id' for a cached task, or 'status' plus 'history' to classify an ad-hoc history.",
	}, s.handleClassifyHistory)

	return server
}

// Start runs the server over stdio until the client disconnects or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server on stdio")
	return s.Build().Run(ctx, &sdk.StdioTransport{})
}

// addTool registers a handler with an input schema generated from its argument struct.
func addTool[In any](server *sdk.Server, tool *sdk.Tool, handler sdk.ToolHandlerFor[In, any]) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		log.Error().Err(err).Str("tool", tool.Name).Msg("Failed to build input schema")
		return
	}
	tool.InputSchema = schema
	sdk.AddTool(server, tool, handler)
}
