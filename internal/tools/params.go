// Package tools provides shared utilities and types for MCP tool implementations.
package tools

import (
	"errors"
	"fmt"
	"time"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/stayware/mcp-propertyhub/internal/governance"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/governance/pagination"
	"github.com/stayware/mcp-propertyhub/internal/server"
)

// PaginationParams returns the tool options shared by all list tools.
//
// Usage in tool registration:
//
//	opts := []mcp.ToolOption{
//	    mcp.WithDescription("..."),
//	}
//	opts = append(opts, tools.PaginationParams()...)
//	opts = append(opts, /* tool-specific params */...)
//	tool := mcp.NewTool("tool_name", opts...)
func PaginationParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of items per page (optional, server default applies; oversized values are clamped)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Opaque continuation cursor from a previous page (optional, omit for the first page)"),
		),
	}
}

// FullOutputParam returns the tool option that lets a client opt out of
// preview summarization for a single object.
func FullOutputParam() mcp.ToolOption {
	return mcp.WithBoolean("fullOutput",
		mcp.Description("Return the complete object instead of a summarized preview (default: false)"),
	)
}

// PaginationRequest extracts the pagination parameters from tool arguments.
func PaginationRequest(args map[string]any) pagination.Request {
	req := pagination.Request{}
	if limit, ok := args["limit"].(float64); ok {
		req.Limit = int(limit)
	}
	if c, ok := args["cursor"].(string); ok {
		req.Cursor = c
	}
	return req
}

// CursorErrorResult maps cursor validation failures to client-correctable
// tool errors. A stale or tampered cursor must never silently restart the
// listing from the first page. The second return value reports whether err
// was a cursor error.
func CursorErrorResult(err error) (*mcp.CallToolResult, bool) {
	switch {
	case errors.Is(err, cursor.ErrExpired):
		return mcp.NewToolResultError("Cursor has expired; restart from the first page by omitting the cursor parameter"), true
	case errors.Is(err, cursor.ErrInvalidSignature):
		return mcp.NewToolResultError("Cursor signature is invalid; use only cursors returned by a previous page of this server"), true
	case errors.Is(err, cursor.ErrMalformed):
		return mcp.NewToolResultError("Cursor is malformed; use only cursors returned by a previous page of this server"), true
	default:
		return nil, false
	}
}

// Respond runs a payload through response governance and wraps the result
// for the MCP client.
func Respond(sc *server.ServerContext, req governance.Request) (*mcp.CallToolResult, error) {
	out, err := sc.Processor().Process(req)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(out), nil
}

// RespondError reports an upstream failure as a tool error. The error
// payload still passes through governance so the call is counted in
// telemetry.
func RespondError(sc *server.ServerContext, endpoint string, start time.Time, err error) (*mcp.CallToolResult, error) {
	msg := fmt.Sprintf("Upstream request failed: %v", err)
	if _, procErr := sc.Processor().Process(governance.Request{
		Endpoint: endpoint,
		Payload:  map[string]any{"error": msg},
		IsError:  true,
		Start:    start,
	}); procErr != nil {
		return nil, procErr
	}
	return mcp.NewToolResultError(msg), nil
}
