package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stayware/mcp-propertyhub/internal/server"
)

// handleGovernanceStats reports the telemetry aggregates. The stats
// response itself is deliberately not governed: it is small by
// construction and must not show up in its own numbers.
func handleGovernanceStats(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	snapshot := sc.Telemetry().Snapshot()

	out, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize governance stats: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
