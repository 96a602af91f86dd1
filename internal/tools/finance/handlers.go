package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stayware/mcp-propertyhub/internal/governance"
	"github.com/stayware/mcp-propertyhub/internal/governance/projection"
	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools"
)

// handleFinancialReport serves a listing's financial report, summarized
// when oversized.
func handleFinancialReport(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()

	listingID, ok := args["listingId"].(string)
	if !ok || listingID == "" {
		return mcp.NewToolResultError("listingId is required"), nil
	}
	fullOutput, _ := args["fullOutput"].(bool)

	period := propertyapi.ReportPeriod{}
	period.Start, _ = args["periodStart"].(string)
	period.End, _ = args["periodEnd"].(string)

	ctx, span := instrumentation.StartToolSpan(ctx, ToolFinancialReport,
		instrumentation.NewSpanAttributeBuilder().WithListing(listingID).Build()...)
	defer span.End()

	report, err := sc.PropertyClient().GetFinancialReport(ctx, listingID, period)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if propertyapi.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("Listing %q not found", listingID)), nil
		}
		return tools.RespondError(sc, ToolFinancialReport, start, err)
	}

	drillDown := map[string]string{"listingId": listingID}
	if period.Start != "" {
		drillDown["periodStart"] = period.Start
	}
	if period.End != "" {
		drillDown["periodEnd"] = period.End
	}

	return tools.Respond(sc, governance.Request{
		Endpoint:        ToolFinancialReport,
		Payload:         report,
		Kind:            projection.KindFinancialReport,
		DrillDownParams: drillDown,
		FullOutput:      fullOutput,
		Start:           start,
	})
}
