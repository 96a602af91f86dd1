// Package server provides the MCP server runtime: the ServerContext
// dependency container with functional options, health and readiness
// endpoints for orchestrator probes, and the /statusz governance
// telemetry endpoint.
package server
