// Package middleware provides HTTP middleware for the streamable HTTP
// transport: request metrics with cardinality-bounded path normalization,
// security headers, and CORS handling for browser-based MCP clients.
package middleware
