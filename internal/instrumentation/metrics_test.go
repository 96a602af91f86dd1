package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// mockMeterProvider creates a simple meter for testing
func mockMeterProvider() metric.Meter {
	provider := sdkmetric.NewMeterProvider()
	return provider.Meter("test")
}

func TestNewMetrics(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false) // false = no detailed labels
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Verify all metrics are initialized (non-nil)
	if metrics.httpRequestsTotal == nil {
		t.Error("expected httpRequestsTotal to be initialized")
	}
	if metrics.httpRequestDuration == nil {
		t.Error("expected httpRequestDuration to be initialized")
	}
	if metrics.activeSessions == nil {
		t.Error("expected activeSessions to be initialized")
	}
	if metrics.governedResponsesTotal == nil {
		t.Error("expected governedResponsesTotal to be initialized")
	}
	if metrics.responseEstimatedTokens == nil {
		t.Error("expected responseEstimatedTokens to be initialized")
	}
	if metrics.governanceDuration == nil {
		t.Error("expected governanceDuration to be initialized")
	}
	if metrics.upstreamRequestsTotal == nil {
		t.Error("expected upstreamRequestsTotal to be initialized")
	}
	if metrics.upstreamRequestDuration == nil {
		t.Error("expected upstreamRequestDuration to be initialized")
	}
	if metrics.configReloadsTotal == nil {
		t.Error("expected configReloadsTotal to be initialized")
	}

	// Verify detailedLabels is set correctly
	if metrics.detailedLabels != false {
		t.Error("expected detailedLabels to be false")
	}
}

func TestNewMetrics_DetailedLabels(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, true) // true = detailed labels
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	if metrics.detailedLabels != true {
		t.Error("expected detailedLabels to be true")
	}
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)

	// Test with different status codes
	metrics.RecordHTTPRequest(ctx, "GET", "/metrics", 200, 50*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 200*time.Millisecond)
}

func TestMetrics_RecordHTTPRequest_NilMetrics(t *testing.T) {
	// Test that recording with nil metrics doesn't panic
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
}

func TestMetrics_RecordGovernedResponse(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, true)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordGovernedResponse(ctx, "propertyhub_list_listings", OutcomePaginated, 800, 50*time.Millisecond)
	metrics.RecordGovernedResponse(ctx, "propertyhub_get_listing", OutcomeSummarized, 1200, 100*time.Millisecond)
	metrics.RecordGovernedResponse(ctx, "propertyhub_get_booking", OutcomePassthrough, 300, 30*time.Millisecond)
	metrics.RecordGovernedResponse(ctx, "propertyhub_financial_report", OutcomeOversized, 20000, 250*time.Millisecond)
}

func TestMetrics_RecordGovernedResponse_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordGovernedResponse(ctx, "propertyhub_list_listings", OutcomePaginated, 800, 50*time.Millisecond)
}

func TestMetrics_RecordUpstreamRequest(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordUpstreamRequest(ctx, OperationListListings, StatusSuccess, 100*time.Millisecond)
	metrics.RecordUpstreamRequest(ctx, OperationGetBooking, StatusSuccess, 200*time.Millisecond)
	metrics.RecordUpstreamRequest(ctx, OperationFinancialReport, StatusError, 75*time.Millisecond)
}

func TestMetrics_RecordUpstreamRequest_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordUpstreamRequest(ctx, OperationGetListing, StatusSuccess, 50*time.Millisecond)
}

func TestMetrics_RecordConfigReload(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordConfigReload(ctx, StatusSuccess)
	metrics.RecordConfigReload(ctx, StatusError)
}

func TestMetrics_RecordConfigReload_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.RecordConfigReload(ctx, StatusSuccess)
}

func TestMetrics_ActiveSessions(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()

	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_ActiveSessions_NilMetrics(t *testing.T) {
	metrics := &Metrics{}
	ctx := context.Background()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetricConstants(t *testing.T) {
	// Test that metric constants are defined
	if StatusSuccess == "" {
		t.Error("StatusSuccess should not be empty")
	}
	if StatusError == "" {
		t.Error("StatusError should not be empty")
	}
	if OutcomePassthrough == "" || OutcomePaginated == "" || OutcomeSummarized == "" || OutcomeOversized == "" {
		t.Error("governance outcome constants should not be empty")
	}
}
