package booking

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools"
)

// Tool names double as the endpoint keys for governance config overrides.
const (
	ToolListBookings = "propertyhub_list_bookings"
	ToolGetBooking   = "propertyhub_get_booking"
)

// RegisterBookingTools registers all booking tools with the MCP server
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// propertyhub_list_bookings tool
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List bookings as a paginated page with a continuation cursor, optionally filtered"),
		mcp.WithString("listingId",
			mcp.Description("Only bookings for this listing (optional)"),
		),
		mcp.WithString("status",
			mcp.Description("Only bookings with this status (optional)"),
			mcp.Enum("inquiry", "pending", "confirmed", "cancelled", "completed"),
		),
		mcp.WithString("arrivalFrom",
			mcp.Description("Only bookings arriving on or after this date, YYYY-MM-DD (optional)"),
		),
		mcp.WithString("arrivalTo",
			mcp.Description("Only bookings arriving on or before this date, YYYY-MM-DD (optional)"),
		),
	}
	listOpts = append(listOpts, tools.PaginationParams()...)
	listTool := mcp.NewTool(ToolListBookings, listOpts...)

	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListBookings(ctx, request, sc)
	})

	// propertyhub_get_booking tool
	getTool := mcp.NewTool(ToolGetBooking,
		mcp.WithDescription("Get a single booking by ID; large bookings are summarized to their essential fields unless fullOutput is set"),
		mcp.WithString("bookingId",
			mcp.Required(),
			mcp.Description("ID of the booking to fetch"),
		),
		tools.FullOutputParam(),
	)

	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetBooking(ctx, request, sc)
	})

	return nil
}
