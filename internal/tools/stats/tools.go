package stats

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/server"
)

// ToolGovernanceStats is the governance telemetry tool name.
const ToolGovernanceStats = "propertyhub_governance_stats"

// RegisterStatsTools registers the governance telemetry tool with the MCP server
func RegisterStatsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	statsTool := mcp.NewTool(ToolGovernanceStats,
		mcp.WithDescription("Report aggregate response-governance telemetry: pagination and summarization adoption, response sizes, latency, and oversized-response events, overall and per endpoint"),
	)

	s.AddTool(statsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGovernanceStats(ctx, request, sc)
	})

	return nil
}
