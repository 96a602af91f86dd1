package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	client, err := propertyapi.NewClient(context.Background(), propertyapi.Config{BaseURL: "http://127.0.0.1:0"}, logger, nil)
	if err != nil {
		t.Fatalf("failed to create property client: %v", err)
	}

	sc, err := server.NewServerContext(context.Background(),
		server.WithConfigService(config.NewStaticService(logger)),
		server.WithPropertyClient(client),
		server.WithCursorCodec(cursor.NewCodec([]byte("test-secret"))),
		server.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestHandleGovernanceStats(t *testing.T) {
	sc := newTestContext(t)

	sc.Telemetry().Record(telemetry.Record{
		Endpoint:        "propertyhub_list_listings",
		ResponseBytes:   4000,
		EstimatedTokens: 1200,
		WasPaginated:    true,
		Latency:         20 * time.Millisecond,
	})
	sc.Telemetry().Record(telemetry.Record{
		Endpoint:        "propertyhub_get_listing",
		ResponseBytes:   1000,
		EstimatedTokens: 300,
		WasSummarized:   true,
		Latency:         10 * time.Millisecond,
	})

	result, err := handleGovernanceStats(context.Background(), mcp.CallToolRequest{}, sc)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatal("unexpected tool error")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}

	var snapshot telemetry.Snapshot
	if err := json.Unmarshal([]byte(text.Text), &snapshot); err != nil {
		t.Fatalf("failed to parse stats: %v", err)
	}

	if snapshot.TotalRequests != 2 {
		t.Errorf("expected 2 requests, got %d", snapshot.TotalRequests)
	}
	if snapshot.PaginationAdoptionRate != 0.5 {
		t.Errorf("expected pagination adoption 0.5, got %v", snapshot.PaginationAdoptionRate)
	}
	if snapshot.SummarizationAdoptionRate != 0.5 {
		t.Errorf("expected summarization adoption 0.5, got %v", snapshot.SummarizationAdoptionRate)
	}
	if len(snapshot.Endpoints) != 2 {
		t.Errorf("expected stats for 2 endpoints, got %d", len(snapshot.Endpoints))
	}

	// The stats call itself is not governed and must not inflate the
	// counters it reports.
	if after := sc.Telemetry().Snapshot().TotalRequests; after != 2 {
		t.Errorf("stats call must not record telemetry, got %d", after)
	}
}

func TestHandleGovernanceStats_Empty(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleGovernanceStats(context.Background(), mcp.CallToolRequest{}, sc)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent)
	var snapshot telemetry.Snapshot
	if err := json.Unmarshal([]byte(text.Text), &snapshot); err != nil {
		t.Fatalf("failed to parse stats: %v", err)
	}
	if snapshot.TotalRequests != 0 {
		t.Errorf("expected zero requests, got %d", snapshot.TotalRequests)
	}
}
