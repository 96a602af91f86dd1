package finance

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools"
)

// ToolFinancialReport doubles as the endpoint key for governance config
// overrides.
const ToolFinancialReport = "propertyhub_financial_report"

// RegisterFinanceTools registers all financial reporting tools with the MCP server
func RegisterFinanceTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	reportTool := mcp.NewTool(ToolFinancialReport,
		mcp.WithDescription("Get the financial report for a listing over a period; large reports are summarized to their essential fields unless fullOutput is set"),
		mcp.WithString("listingId",
			mcp.Required(),
			mcp.Description("ID of the listing to report on"),
		),
		mcp.WithString("periodStart",
			mcp.Description("Start of the reporting period, YYYY-MM-DD (optional, upstream default applies)"),
		),
		mcp.WithString("periodEnd",
			mcp.Description("End of the reporting period, YYYY-MM-DD (optional, upstream default applies)"),
		),
		tools.FullOutputParam(),
	)

	s.AddTool(reportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFinancialReport(ctx, request, sc)
	})

	return nil
}
