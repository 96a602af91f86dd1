// Package telemetry records per-request governance outcomes and aggregates
// them into process-lifetime statistics.
//
// Records live in a bounded in-memory ring buffer alongside running
// aggregates; nothing is persisted and everything resets on restart.
// The service exists so governance code records outcomes through an
// explicit interface instead of ambient globals, and can later be backed
// by a real metrics pipeline without touching the governance logic.
package telemetry

import (
	"sync"
	"time"
)

// DefaultRingSize bounds the number of raw records retained for debugging.
const DefaultRingSize = 1024

// Record is the outcome of a single governed response.
type Record struct {
	Endpoint        string        `json:"endpoint"`
	ResponseBytes   int           `json:"responseBytes"`
	EstimatedTokens int           `json:"estimatedTokens"`
	WasPaginated    bool          `json:"wasPaginated"`
	WasSummarized   bool          `json:"wasSummarized"`
	WasOversized    bool          `json:"wasOversized"`
	Latency         time.Duration `json:"latency"`
	Timestamp       time.Time     `json:"timestamp"`
}

// EndpointStats are running aggregates for one endpoint.
type EndpointStats struct {
	Requests             int64   `json:"requests"`
	PaginatedRequests    int64   `json:"paginatedRequests"`
	SummarizedRequests   int64   `json:"summarizedRequests"`
	OversizedEvents      int64   `json:"oversizedEvents"`
	AvgResponseSizeBytes float64 `json:"avgResponseSizeBytes"`
	AvgEstimatedTokens   float64 `json:"avgEstimatedTokens"`
	AvgLatencyMs         float64 `json:"avgLatencyMs"`
}

// Snapshot is the read-only aggregate view exposed on the status surface.
type Snapshot struct {
	TotalRequests             int64                    `json:"totalRequests"`
	PaginationAdoptionRate    float64                  `json:"paginationAdoptionRate"`
	SummarizationAdoptionRate float64                  `json:"summarizationAdoptionRate"`
	AvgResponseSizeBytes      float64                  `json:"avgResponseSizeBytes"`
	AvgLatencyMs              float64                  `json:"avgLatencyMs"`
	OversizedEventCount       int64                    `json:"oversizedEventCount"`
	UptimeSeconds             float64                  `json:"uptimeSeconds"`
	Endpoints                 map[string]EndpointStats `json:"endpoints,omitempty"`
}

// aggregate holds summable counters; averages are derived at snapshot time.
type aggregate struct {
	requests   int64
	paginated  int64
	summarized int64
	oversized  int64
	sumBytes   int64
	sumTokens  int64
	sumLatency time.Duration
}

func (a *aggregate) add(rec Record) {
	a.requests++
	if rec.WasPaginated {
		a.paginated++
	}
	if rec.WasSummarized {
		a.summarized++
	}
	if rec.WasOversized {
		a.oversized++
	}
	a.sumBytes += int64(rec.ResponseBytes)
	a.sumTokens += int64(rec.EstimatedTokens)
	a.sumLatency += rec.Latency
}

func (a *aggregate) stats() EndpointStats {
	s := EndpointStats{
		Requests:           a.requests,
		PaginatedRequests:  a.paginated,
		SummarizedRequests: a.summarized,
		OversizedEvents:    a.oversized,
	}
	if a.requests > 0 {
		s.AvgResponseSizeBytes = float64(a.sumBytes) / float64(a.requests)
		s.AvgEstimatedTokens = float64(a.sumTokens) / float64(a.requests)
		s.AvgLatencyMs = float64(a.sumLatency.Milliseconds()) / float64(a.requests)
	}
	return s
}

// Service aggregates governance telemetry. Safe for many concurrent
// writers; Snapshot takes the same lock but only for a map copy, so it
// never blocks writers for unbounded time.
type Service struct {
	mu          sync.Mutex
	ring        []Record
	next        int
	count       int
	totals      aggregate
	perEndpoint map[string]*aggregate
	startTime   time.Time
}

// NewService creates a telemetry service with the given ring buffer size
// (DefaultRingSize when non-positive).
func NewService(ringSize int) *Service {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Service{
		ring:        make([]Record, ringSize),
		perEndpoint: make(map[string]*aggregate),
		startTime:   time.Now(),
	}
}

// Record appends a record to the ring buffer and updates the aggregates.
// A zero Timestamp is filled with the current time.
func (s *Service) Record(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.next] = rec
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}

	s.totals.add(rec)
	agg := s.perEndpoint[rec.Endpoint]
	if agg == nil {
		agg = &aggregate{}
		s.perEndpoint[rec.Endpoint] = agg
	}
	agg.add(rec)
}

// Snapshot returns the current aggregate statistics.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       s.totals.requests,
		OversizedEventCount: s.totals.oversized,
		UptimeSeconds:       time.Since(s.startTime).Seconds(),
	}
	if s.totals.requests > 0 {
		n := float64(s.totals.requests)
		snap.PaginationAdoptionRate = float64(s.totals.paginated) / n
		snap.SummarizationAdoptionRate = float64(s.totals.summarized) / n
		snap.AvgResponseSizeBytes = float64(s.totals.sumBytes) / n
		snap.AvgLatencyMs = float64(s.totals.sumLatency.Milliseconds()) / n
	}

	if len(s.perEndpoint) > 0 {
		snap.Endpoints = make(map[string]EndpointStats, len(s.perEndpoint))
		for endpoint, agg := range s.perEndpoint {
			snap.Endpoints[endpoint] = agg.stats()
		}
	}

	return snap
}

// Recent returns up to n of the most recent records, newest first.
func (s *Service) Recent(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.count {
		n = s.count
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out
}
