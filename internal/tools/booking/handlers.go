package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stayware/mcp-propertyhub/internal/governance"
	"github.com/stayware/mcp-propertyhub/internal/governance/pagination"
	"github.com/stayware/mcp-propertyhub/internal/governance/projection"
	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools"
)

// handleListBookings serves one page of bookings.
func handleListBookings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	filter := propertyapi.BookingFilter{}
	filter.ListingID, _ = args["listingId"].(string)
	filter.Status, _ = args["status"].(string)
	filter.ArrivalFrom, _ = args["arrivalFrom"].(string)
	filter.ArrivalTo, _ = args["arrivalTo"].(string)

	ctx, span := instrumentation.StartToolSpan(ctx, ToolListBookings,
		instrumentation.NewSpanAttributeBuilder().WithListing(filter.ListingID).Build()...)
	defer span.End()

	settings := sc.ConfigService().Resolve(ToolListBookings)

	if !settings.EnablePagination {
		items, _, err := sc.PropertyClient().ListBookings(ctx, settings.MaxPageSize, 0, filter)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return tools.RespondError(sc, ToolListBookings, start, err)
		}
		return tools.Respond(sc, governance.Request{
			Endpoint: ToolListBookings,
			Payload:  items,
			Start:    start,
		})
	}

	page, err := pagination.BuildPage(ctx, sc.CursorCodec(), settings, tools.PaginationRequest(args),
		func(ctx context.Context, limit, offset int) ([]map[string]any, int, error) {
			return sc.PropertyClient().ListBookings(ctx, limit, offset, filter)
		})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if result, ok := tools.CursorErrorResult(err); ok {
			return result, nil
		}
		return tools.RespondError(sc, ToolListBookings, start, err)
	}

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithPageSize(page.Meta.PageSize).
		Build()...)

	return tools.Respond(sc, governance.Request{
		Endpoint: ToolListBookings,
		Payload:  page,
		Start:    start,
	})
}

// handleGetBooking serves a single booking, summarized when oversized.
func handleGetBooking(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	bookingID, ok := args["bookingId"].(string)
	if !ok || bookingID == "" {
		return mcp.NewToolResultError("bookingId is required"), nil
	}
	fullOutput, _ := args["fullOutput"].(bool)

	ctx, span := instrumentation.StartToolSpan(ctx, ToolGetBooking,
		instrumentation.NewSpanAttributeBuilder().WithBooking(bookingID).Build()...)
	defer span.End()

	obj, err := sc.PropertyClient().GetBooking(ctx, bookingID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if propertyapi.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("Booking %q not found", bookingID)), nil
		}
		return tools.RespondError(sc, ToolGetBooking, start, err)
	}

	return tools.Respond(sc, governance.Request{
		Endpoint:        ToolGetBooking,
		Payload:         obj,
		Kind:            projection.KindBooking,
		DrillDownParams: map[string]string{"bookingId": bookingID},
		FullOutput:      fullOutput,
		Start:           start,
	})
}
