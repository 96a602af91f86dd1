package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrEndpoint  = "endpoint"
	attrOutcome   = "outcome"
	attrOperation = "operation"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Governance metrics
	governedResponsesTotal  metric.Int64Counter
	responseEstimatedTokens metric.Int64Histogram
	governanceDuration      metric.Float64Histogram

	// Upstream property API metrics
	upstreamRequestsTotal   metric.Int64Counter
	upstreamRequestDuration metric.Float64Histogram

	// Configuration reload metrics
	configReloadsTotal metric.Int64Counter

	// detailedLabels controls whether the endpoint label is attached to
	// governance metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether the endpoint label is included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_mcp_sessions",
		metric.WithDescription("Number of active MCP client sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_mcp_sessions gauge: %w", err)
	}

	// Governance Metrics
	m.governedResponsesTotal, err = meter.Int64Counter(
		"governed_responses_total",
		metric.WithDescription("Total number of governed tool responses by outcome"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create governed_responses_total counter: %w", err)
	}

	m.responseEstimatedTokens, err = meter.Int64Histogram(
		"response_estimated_tokens",
		metric.WithDescription("Estimated token size of governed responses"),
		metric.WithUnit("{token}"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 2000, 4000, 8000, 16000, 32000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response_estimated_tokens histogram: %w", err)
	}

	m.governanceDuration, err = meter.Float64Histogram(
		"governance_duration_seconds",
		metric.WithDescription("End-to-end tool handling duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create governance_duration_seconds histogram: %w", err)
	}

	// Upstream Property API Metrics
	m.upstreamRequestsTotal, err = meter.Int64Counter(
		"upstream_requests_total",
		metric.WithDescription("Total number of upstream property API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_requests_total counter: %w", err)
	}

	m.upstreamRequestDuration, err = meter.Float64Histogram(
		"upstream_request_duration_seconds",
		metric.WithDescription("Upstream property API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_request_duration_seconds histogram: %w", err)
	}

	// Configuration Reload Metrics
	m.configReloadsTotal, err = meter.Int64Counter(
		"config_reloads_total",
		metric.WithDescription("Total number of governance configuration reload attempts by result"),
		metric.WithUnit("{reload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config_reloads_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGovernedResponse records one governed tool response with its
// outcome, estimated token size, and handling duration. Outcome should be
// one of the Outcome* constants.
func (m *Metrics) RecordGovernedResponse(ctx context.Context, endpoint, outcome string, estimatedTokens int, duration time.Duration) {
	if m.governedResponsesTotal == nil || m.responseEstimatedTokens == nil || m.governanceDuration == nil {
		return // Instrumentation not initialized
	}

	// Always include outcome (low cardinality)
	attrs := []attribute.KeyValue{
		attribute.String(attrOutcome, outcome),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrEndpoint, endpoint))
	}

	m.governedResponsesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.responseEstimatedTokens.Record(ctx, int64(estimatedTokens), metric.WithAttributes(attrs...))
	m.governanceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordUpstreamRequest records an upstream property API request with
// operation type, status, and duration.
func (m *Metrics) RecordUpstreamRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m.upstreamRequestsTotal == nil || m.upstreamRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.upstreamRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.upstreamRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordConfigReload records a configuration reload attempt.
// Result should be one of: "success", "error"
func (m *Metrics) RecordConfigReload(ctx context.Context, result string) {
	if m.configReloadsTotal == nil {
		return // Instrumentation not initialized
	}

	m.configReloadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// IncrementActiveSessions increments the active MCP sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active MCP sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, -1)
}
