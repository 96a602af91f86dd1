package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSnapshot_Aggregates(t *testing.T) {
	svc := NewService(16)

	svc.Record(Record{
		Endpoint:        "propertyhub_list_listings",
		ResponseBytes:   1000,
		EstimatedTokens: 300,
		WasPaginated:    true,
		Latency:         20 * time.Millisecond,
	})
	svc.Record(Record{
		Endpoint:        "propertyhub_get_listing",
		ResponseBytes:   3000,
		EstimatedTokens: 900,
		WasSummarized:   true,
		Latency:         40 * time.Millisecond,
	})
	svc.Record(Record{
		Endpoint:        "propertyhub_list_bookings",
		ResponseBytes:   8000,
		EstimatedTokens: 2400,
		WasOversized:    true,
		Latency:         60 * time.Millisecond,
	})

	snap := svc.Snapshot()

	if snap.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snap.TotalRequests)
	}
	if got := snap.PaginationAdoptionRate; got < 0.33 || got > 0.34 {
		t.Errorf("PaginationAdoptionRate = %v, want ~1/3", got)
	}
	if got := snap.SummarizationAdoptionRate; got < 0.33 || got > 0.34 {
		t.Errorf("SummarizationAdoptionRate = %v, want ~1/3", got)
	}
	if snap.AvgResponseSizeBytes != 4000 {
		t.Errorf("AvgResponseSizeBytes = %v, want 4000", snap.AvgResponseSizeBytes)
	}
	if snap.AvgLatencyMs != 40 {
		t.Errorf("AvgLatencyMs = %v, want 40", snap.AvgLatencyMs)
	}
	if snap.OversizedEventCount != 1 {
		t.Errorf("OversizedEventCount = %d, want 1", snap.OversizedEventCount)
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v, want >= 0", snap.UptimeSeconds)
	}

	ep, ok := snap.Endpoints["propertyhub_get_listing"]
	if !ok {
		t.Fatal("missing per-endpoint stats for propertyhub_get_listing")
	}
	if ep.Requests != 1 || ep.SummarizedRequests != 1 {
		t.Errorf("endpoint stats = %+v", ep)
	}
	if ep.AvgResponseSizeBytes != 3000 {
		t.Errorf("endpoint AvgResponseSizeBytes = %v, want 3000", ep.AvgResponseSizeBytes)
	}
}

func TestSnapshot_Empty(t *testing.T) {
	snap := NewService(8).Snapshot()

	if snap.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", snap.TotalRequests)
	}
	if snap.PaginationAdoptionRate != 0 || snap.AvgLatencyMs != 0 {
		t.Error("empty snapshot must not divide by zero")
	}
	if snap.Endpoints != nil {
		t.Error("empty snapshot should omit endpoint map")
	}
}

func TestRecent_RingBufferEviction(t *testing.T) {
	svc := NewService(4)

	for i := 0; i < 10; i++ {
		svc.Record(Record{Endpoint: fmt.Sprintf("ep-%d", i)})
	}

	recent := svc.Recent(10)
	if len(recent) != 4 {
		t.Fatalf("Recent returned %d records, want ring size 4", len(recent))
	}
	// Newest first.
	for i, want := range []string{"ep-9", "ep-8", "ep-7", "ep-6"} {
		if recent[i].Endpoint != want {
			t.Errorf("recent[%d].Endpoint = %q, want %q", i, recent[i].Endpoint, want)
		}
	}

	// Aggregates keep counting past the ring boundary.
	if snap := svc.Snapshot(); snap.TotalRequests != 10 {
		t.Errorf("TotalRequests = %d, want 10", snap.TotalRequests)
	}
}

func TestRecord_FillsTimestamp(t *testing.T) {
	svc := NewService(4)
	svc.Record(Record{Endpoint: "ep"})

	recent := svc.Recent(1)
	if len(recent) != 1 || recent[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be filled at record time")
	}
}

func TestRecord_ConcurrentWriters(t *testing.T) {
	svc := NewService(64)

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				svc.Record(Record{
					Endpoint:      fmt.Sprintf("ep-%d", w%3),
					ResponseBytes: 100,
					WasPaginated:  i%2 == 0,
				})
			}
		}(w)
	}
	wg.Wait()

	snap := svc.Snapshot()
	if want := int64(writers * perWriter); snap.TotalRequests != want {
		t.Errorf("TotalRequests = %d, want %d (no lost updates)", snap.TotalRequests, want)
	}
	var perEndpoint int64
	for _, ep := range snap.Endpoints {
		perEndpoint += ep.Requests
	}
	if perEndpoint != snap.TotalRequests {
		t.Errorf("per-endpoint sum %d != total %d", perEndpoint, snap.TotalRequests)
	}
}
