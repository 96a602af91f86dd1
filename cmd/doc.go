// Package cmd provides the command-line interface for mcp-propertyhub.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// The CLI maintains backwards compatibility by running the serve command when
// no subcommand is specified, preserving the original behavior of the application.
//
// Command Structure:
//
//	mcp-propertyhub [flags]                 # Starts the MCP server (default)
//	mcp-propertyhub serve [flags]           # Explicitly starts the MCP server
//	mcp-propertyhub version                 # Shows version information
//	mcp-propertyhub self-update             # Updates to latest release
//	mcp-propertyhub help [command]          # Shows help information
//
// The serve command supports multiple transport options:
//   - stdio: Standard input/output (default) - for command-line integration
//   - sse: Server-Sent Events over HTTP - for web-based clients
//   - streamable-http: Streamable HTTP transport - for HTTP-based integration
//
// Transport Configuration Examples:
//
//	mcp-propertyhub serve --transport stdio           # Default STDIO transport
//	mcp-propertyhub serve --transport sse --http-addr :8080 --sse-endpoint /sse
//	mcp-propertyhub serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// The serve command also supports configuration flags for the upstream
// property API connection, the governance configuration file, and signed
// pagination cursors (secret and TTL).
package cmd
