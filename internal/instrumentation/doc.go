// Package instrumentation provides OpenTelemetry instrumentation for the
// mcp-propertyhub server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, governance outcomes, and upstream calls
//   - Distributed tracing for tool invocations and property API calls
//   - Prometheus metrics export via /metrics endpoint
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_mcp_sessions: Gauge of active MCP client sessions
//
// Governance Metrics:
//   - governed_responses_total: Counter of tool responses by outcome (and endpoint)
//   - response_estimated_tokens: Histogram of estimated response token sizes
//   - governance_duration_seconds: Histogram of end-to-end tool handling durations
//
// Upstream Property API Metrics:
//   - upstream_requests_total: Counter of upstream requests by operation and status
//   - upstream_request_duration_seconds: Histogram of upstream request durations
//
// Configuration Metrics:
//   - config_reloads_total: Counter of governance config reload attempts by result
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - HTTP request handling
//   - MCP tool invocations
//   - Upstream property API calls
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mcp-propertyhub)
//   - METRICS_DETAILED_LABELS: Attach per-endpoint labels (default: true)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "mcp-propertyhub",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record an HTTP request
//	recorder.RecordHTTPRequest(ctx, "POST", "/mcp", 200, time.Since(start))
//
//	// Record a governed response
//	recorder.RecordGovernedResponse(ctx, "propertyhub_get_listing",
//		instrumentation.OutcomeSummarized, 1200, time.Since(start))
package instrumentation
