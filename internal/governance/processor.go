// Package governance applies response governance to tool results before
// they reach the model: pagination bookkeeping, preview summarization of
// oversized objects, oversize detection for endpoints that cannot
// paginate, and telemetry for every outcome.
package governance

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/pagination"
	"github.com/stayware/mcp-propertyhub/internal/governance/projection"
	"github.com/stayware/mcp-propertyhub/internal/governance/summary"
	"github.com/stayware/mcp-propertyhub/internal/governance/tokens"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

// Paginated marks payloads that already carry pagination metadata and
// therefore pass through without further size governance.
type Paginated interface {
	PageMeta() pagination.PageMetadata
}

// ConfigResolver yields the effective settings for an endpoint. Satisfied
// by config.Service.
type ConfigResolver interface {
	Resolve(endpoint string) config.Settings
}

// Recorder receives one telemetry record per processed response.
// Satisfied by telemetry.Service.
type Recorder interface {
	Record(rec telemetry.Record)
}

// Processor governs serialized tool responses.
type Processor struct {
	cfg      ConfigResolver
	recorder Recorder
	logger   *slog.Logger
}

// NewProcessor creates a response processor. A nil logger discards logs.
func NewProcessor(cfg ConfigResolver, recorder Recorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{cfg: cfg, recorder: recorder, logger: logger}
}

// Request describes one response to govern.
type Request struct {
	// Endpoint is the tool name producing the response.
	Endpoint string

	// Payload is the response value to serialize and govern.
	Payload any

	// Kind selects the essential-field table for summarization. Leave
	// empty for payloads with no summarizable shape.
	Kind projection.Kind

	// DrillDownParams identify the object for the follow-up request
	// embedded in a preview.
	DrillDownParams map[string]string

	// IsError marks an upstream error payload, which bypasses size
	// governance entirely.
	IsError bool

	// FullOutput suppresses summarization for an explicit drill-down
	// request.
	FullOutput bool

	// Start is when handling of the request began; zero means now.
	Start time.Time
}

// Process serializes the payload and applies the governance outcome its
// classification calls for. Every call records exactly one telemetry
// record, whatever the outcome.
//
// Classification order: error payloads and already-governed payloads pass
// through untouched; unpaginated lists are measured and flagged but never
// mutated; single objects of a known kind are summarized when they exceed
// the effective threshold.
func (p *Processor) Process(req Request) (string, error) {
	start := req.Start
	if start.IsZero() {
		start = time.Now()
	}

	rec := telemetry.Record{Endpoint: req.Endpoint}
	defer func() {
		rec.Latency = time.Since(start)
		p.recorder.Record(rec)
	}()

	data, marshalErr := json.Marshal(req.Payload)
	if marshalErr == nil {
		rec.ResponseBytes = len(data)
		rec.EstimatedTokens = tokens.EstimateBytes(data)
	}

	if req.IsError {
		if marshalErr != nil {
			return "", fmt.Errorf("failed to serialize error payload for %s: %w", req.Endpoint, marshalErr)
		}
		return string(data), nil
	}

	settings := p.cfg.Resolve(req.Endpoint)

	switch payload := req.Payload.(type) {
	case Paginated:
		rec.WasPaginated = true
		if marshalErr != nil {
			return "", fmt.Errorf("failed to serialize page for %s: %w", req.Endpoint, marshalErr)
		}
		p.flagIfOverCap(req.Endpoint, settings, &rec)
		return string(data), nil

	case *summary.Response:
		rec.WasSummarized = true
		if marshalErr != nil {
			return "", fmt.Errorf("failed to serialize preview for %s: %w", req.Endpoint, marshalErr)
		}
		p.flagIfOverCap(req.Endpoint, settings, &rec)
		return string(data), nil

	case map[string]any:
		if governed, paginated := alreadyGoverned(payload); governed {
			rec.WasPaginated = paginated
			rec.WasSummarized = !paginated
			if marshalErr != nil {
				return "", fmt.Errorf("failed to serialize payload for %s: %w", req.Endpoint, marshalErr)
			}
			p.flagIfOverCap(req.Endpoint, settings, &rec)
			return string(data), nil
		}
		return p.processObject(req, settings, payload, data, marshalErr, &rec)

	case []any:
		return p.processList(req, settings, data, marshalErr, &rec)
	case []map[string]any:
		return p.processList(req, settings, data, marshalErr, &rec)

	default:
		if marshalErr != nil {
			return "", fmt.Errorf("failed to serialize payload for %s: %w", req.Endpoint, marshalErr)
		}
		return string(data), nil
	}
}

// processObject summarizes an oversized single object when its kind is
// known, and flags it when it is not.
func (p *Processor) processObject(req Request, settings config.Settings, obj map[string]any, data []byte, marshalErr error, rec *telemetry.Record) (string, error) {
	// A failed estimate is treated as over-threshold rather than waved
	// through unmeasured.
	over := marshalErr != nil || summary.ShouldSummarize(settings, rec.EstimatedTokens)

	if over && !req.FullOutput && projection.KnownKind(req.Kind) {
		preview, err := summary.Summarize(obj, req.Kind, req.Endpoint, req.DrillDownParams)
		if err != nil {
			return "", fmt.Errorf("failed to summarize %s response: %w", req.Endpoint, err)
		}
		out, err := json.Marshal(preview)
		if err != nil {
			return "", fmt.Errorf("failed to serialize preview for %s: %w", req.Endpoint, err)
		}

		rec.WasSummarized = true
		rec.ResponseBytes = len(out)
		rec.EstimatedTokens = tokens.EstimateBytes(out)
		p.flagIfOverCap(req.Endpoint, settings, rec)
		p.logger.Debug("summarized oversized object response",
			slog.String("endpoint", req.Endpoint),
			slog.Int("previewTokens", rec.EstimatedTokens))
		return string(out), nil
	}

	if marshalErr != nil {
		return "", fmt.Errorf("failed to serialize payload for %s: %w", req.Endpoint, marshalErr)
	}
	if over && !req.FullOutput {
		// Over threshold but no field table to project with.
		rec.WasOversized = true
		p.logger.Warn("oversized object response passed through, no essential-field table for its kind",
			slog.String("endpoint", req.Endpoint),
			slog.Int("estimatedTokens", rec.EstimatedTokens),
			slog.Int("threshold", settings.OutputTokenThreshold))
	}
	return string(data), nil
}

// flagIfOverCap marks a governed response whose estimate still exceeds the
// endpoint's hard output cap. Pagination and summarization shrink most
// responses under the cap; when one slips past anyway the gap is a
// configuration problem (page size or field table too generous for the
// cap) and must show up in the oversized count.
func (p *Processor) flagIfOverCap(endpoint string, settings config.Settings, rec *telemetry.Record) {
	if rec.EstimatedTokens <= settings.HardOutputTokenCap {
		return
	}
	rec.WasOversized = true
	p.logger.Warn("governed response still exceeds hard output cap",
		slog.String("endpoint", endpoint),
		slog.Int("estimatedTokens", rec.EstimatedTokens),
		slog.Int("hardCap", settings.HardOutputTokenCap))
}

// processList handles a bare, unpaginated list. Such a payload signals a
// handler that skipped pagination, so it is measured and reported but
// deliberately not repaired here: silently paginating it would hide the
// gap and hand the client a page shape it never asked for.
func (p *Processor) processList(req Request, settings config.Settings, data []byte, marshalErr error, rec *telemetry.Record) (string, error) {
	if marshalErr != nil {
		return "", fmt.Errorf("failed to serialize payload for %s: %w", req.Endpoint, marshalErr)
	}

	if rec.EstimatedTokens > settings.HardOutputTokenCap {
		rec.WasOversized = true
		p.logger.Warn("unpaginated list response exceeds hard output cap",
			slog.String("endpoint", req.Endpoint),
			slog.Int("estimatedTokens", rec.EstimatedTokens),
			slog.Int("hardCap", settings.HardOutputTokenCap))
	}
	return string(data), nil
}

// alreadyGoverned inspects a decoded payload for governance metadata left
// by a previous pass. Reprocessing such a payload must be a no-op.
func alreadyGoverned(payload map[string]any) (governed, paginated bool) {
	meta, ok := payload["meta"].(map[string]any)
	if !ok {
		return false, false
	}
	if _, ok := meta["hasMore"]; ok {
		return true, true
	}
	if kind, ok := meta["kind"].(string); ok && (kind == summary.KindPreview || kind == summary.KindFull) {
		return true, false
	}
	return false, false
}
