package listing

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

// handleListListings serves one page of listings.
func handleListListings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	ctx, span := instrumentation.StartToolSpan(ctx, ToolListListings)
	defer span.End()

	settings := sc.ConfigService().Resolve(ToolListListings)

	if !settings.EnablePagination {
		// Pagination disabled for this endpoint: one bounded fetch, with
		// the raw list measured downstream against the hard cap.
		items, _, err := sc.PropertyClient().ListListings(ctx, settings.MaxPageSize, 0)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return tools.RespondError(sc, ToolListListings, start, err)
		}
		return tools.Respond(sc, governance.Request{
			Endpoint: ToolListListings,
			Payload:  items,
			Start:    start,
		})
	}

	page, err := pagination.BuildPage(ctx, sc.CursorCodec(), settings, tools.PaginationRequest(args),
		func(ctx context.Context, limit, offset int) ([]map[string]any, int, error) {
			return sc.PropertyClient().ListListings(ctx, limit, offset)
		})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if result, ok := tools.CursorErrorResult(err); ok {
			return result, nil
		}
		return tools.RespondError(sc, ToolListListings, start, err)
	}

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithPageSize(page.Meta.PageSize).
		Build()...)

	return tools.Respond(sc, governance.Request{
		Endpoint: ToolListListings,
		Payload:  page,
		Start:    start,
	})
}

// handleGetListing serves a single listing, summarized when oversized.
func handleGetListing(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	listingID, ok := args["listingId"].(string)
	if !ok || listingID == "" {
		return mcp.NewToolResultError("listingId is required"), nil
	}
	fullOutput, _ := args["fullOutput"].(bool)

	ctx, span := instrumentation.StartToolSpan(ctx, ToolGetListing,
		instrumentation.NewSpanAttributeBuilder().WithListing(listingID).Build()...)
	defer span.End()

	obj, err := sc.PropertyClient().GetListing(ctx, listingID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if propertyapi.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("Listing %q not found", listingID)), nil
		}
		return tools.RespondError(sc, ToolGetListing, start, err)
	}

	return tools.Respond(sc, governance.Request{
		Endpoint:        ToolGetListing,
		Payload:         obj,
		Kind:            projection.KindListing,
		DrillDownParams: map[string]string{"listingId": listingID},
		FullOutput:      fullOutput,
		Start:           start,
	})
}
