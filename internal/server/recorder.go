package server

import (
	"context"

	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

// instrumentedRecorder fans every governance telemetry record out to the
// in-process telemetry ring and to the OpenTelemetry metrics pipeline.
type instrumentedRecorder struct {
	telemetry *telemetry.Service
	metrics   *instrumentation.Metrics
}

// Record stores the record and mirrors it as a governed-response metric.
func (r *instrumentedRecorder) Record(rec telemetry.Record) {
	r.telemetry.Record(rec)
	r.metrics.RecordGovernedResponse(context.Background(), rec.Endpoint, outcomeOf(rec), rec.EstimatedTokens, rec.Latency)
}

// outcomeOf maps a record's flags to a metric outcome label.
func outcomeOf(rec telemetry.Record) string {
	switch {
	case rec.WasSummarized:
		return instrumentation.OutcomeSummarized
	case rec.WasPaginated:
		return instrumentation.OutcomePaginated
	case rec.WasOversized:
		return instrumentation.OutcomeOversized
	default:
		return instrumentation.OutcomePassthrough
	}
}
