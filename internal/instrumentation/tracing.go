package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the mcp-propertyhub package.
const TracerName = "github.com/stayware/mcp-propertyhub"

// Span attribute keys for governance and upstream operations.
const (
	// SpanAttrTool is the MCP tool name.
	SpanAttrTool = "mcp.tool"

	// SpanAttrOutcome is the governance outcome (passthrough, paginated,
	// summarized, oversized, error).
	SpanAttrOutcome = "governance.outcome"

	// SpanAttrObjectKind is the governed object kind (listing, booking,
	// financialReport).
	SpanAttrObjectKind = "governance.object_kind"

	// SpanAttrEstimatedTokens is the estimated token size of the response.
	SpanAttrEstimatedTokens = "governance.estimated_tokens"

	// SpanAttrPageSize is the effective page size of a paginated response.
	SpanAttrPageSize = "governance.page_size"

	// SpanAttrOperation is the upstream operation type (list_listings,
	// get_booking, etc.).
	SpanAttrOperation = "propertyhub.operation"

	// SpanAttrListingID is the listing identifier.
	SpanAttrListingID = "propertyhub.listing_id"

	// SpanAttrBookingID is the booking identifier.
	SpanAttrBookingID = "propertyhub.booking_id"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithOutcome adds the governance outcome attribute.
func (b *SpanAttributeBuilder) WithOutcome(outcome string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOutcome, outcome))
	return b
}

// WithObjectKind adds the governed object kind attribute.
func (b *SpanAttributeBuilder) WithObjectKind(kind string) *SpanAttributeBuilder {
	if kind != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrObjectKind, kind))
	}
	return b
}

// WithEstimatedTokens adds the estimated token size attribute.
func (b *SpanAttributeBuilder) WithEstimatedTokens(tokens int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrEstimatedTokens, tokens))
	return b
}

// WithPageSize adds the effective page size attribute.
func (b *SpanAttributeBuilder) WithPageSize(size int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrPageSize, size))
	return b
}

// WithOperation adds the upstream operation type attribute.
func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOperation, operation))
	return b
}

// WithListing adds the listing identifier attribute.
func (b *SpanAttributeBuilder) WithListing(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrListingID, id))
	}
	return b
}

// WithBooking adds the booking identifier attribute.
func (b *SpanAttributeBuilder) WithBooking(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrBookingID, id))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// Returns the context with the span and the span itself.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation.
// Automatically adds tool name and sets appropriate span kind.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartUpstreamSpan starts a span for upstream property API calls.
// Includes the operation attribute and sets appropriate span kind.
func StartUpstreamSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "upstream."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

// SpanContextString returns a human-readable trace context string.
// Format: "trace_id=X span_id=Y" or empty string if no valid context.
func SpanContextString(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return "trace_id=" + span.SpanContext().TraceID().String() +
		" span_id=" + span.SpanContext().SpanID().String()
}
