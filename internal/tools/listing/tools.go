package listing

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools"
)

// Tool names double as the endpoint keys for governance config overrides.
const (
	ToolListListings = "propertyhub_list_listings"
	ToolGetListing   = "propertyhub_get_listing"
)

// RegisterListingTools registers all listing tools with the MCP server
func RegisterListingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// propertyhub_list_listings tool
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List property listings as a paginated page with a continuation cursor"),
	}
	listOpts = append(listOpts, tools.PaginationParams()...)
	listTool := mcp.NewTool(ToolListListings, listOpts...)

	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListListings(ctx, request, sc)
	})

	// propertyhub_get_listing tool
	getTool := mcp.NewTool(ToolGetListing,
		mcp.WithDescription("Get a single property listing by ID; large listings are summarized to their essential fields unless fullOutput is set"),
		mcp.WithString("listingId",
			mcp.Required(),
			mcp.Description("ID of the listing to fetch"),
		),
		tools.FullOutputParam(),
	)

	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetListing(ctx, request, sc)
	})

	return nil
}
