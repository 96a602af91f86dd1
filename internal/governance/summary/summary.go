// Package summary turns oversized single-object responses into compact
// previews with drill-down instructions.
//
// A preview carries the object's essential fields, how much was cut, and
// the exact request that returns the full object, so an LLM agent can
// decide whether the preview suffices or the detail is worth the tokens.
package summary

import (
	"fmt"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/projection"
)

// Metadata kinds.
const (
	KindPreview = "preview"
	KindFull    = "full"
)

// Details describes the follow-up request that returns the full,
// un-summarized object.
type Details struct {
	Endpoint   string            `json:"endpoint"`
	Parameters map[string]string `json:"parameters"`
}

// Metadata accompanies a summarized response. When Kind is "preview",
// DetailsAvailable is always present.
type Metadata struct {
	Kind             string   `json:"kind"`
	TotalFields      int      `json:"totalFields"`
	ProjectedFields  []string `json:"projectedFields"`
	DetailsAvailable *Details `json:"detailsAvailable,omitempty"`
}

// Response is the summarized wire shape for single-object endpoints.
type Response struct {
	Summary map[string]any `json:"summary"`
	Meta    Metadata       `json:"meta"`
}

// ShouldSummarize reports whether a single-object response of the given
// estimated token size must be summarized under the effective settings.
func ShouldSummarize(cfg config.Settings, estimatedTokens int) bool {
	return cfg.EnableSummarization && estimatedTokens > cfg.OutputTokenThreshold
}

// Summarize projects obj down to its essential fields and wraps it as a
// preview. The endpoint and params describe the drill-down request that
// returns the full object (typically the same endpoint with fullOutput
// set).
func Summarize(obj map[string]any, kind projection.Kind, endpoint string, params map[string]string) (*Response, error) {
	if !projection.KnownKind(kind) {
		return nil, fmt.Errorf("no essential field table for object kind %q", kind)
	}

	projected := projection.Project(obj, kind)
	metrics := projection.ReductionMetrics(obj, projected)

	drillDown := make(map[string]string, len(params)+1)
	for k, v := range params {
		drillDown[k] = v
	}
	drillDown["fullOutput"] = "true"

	return &Response{
		Summary: projected,
		Meta: Metadata{
			Kind:            KindPreview,
			TotalFields:     metrics.OriginalFieldCount,
			ProjectedFields: presentFields(projected, kind),
			DetailsAvailable: &Details{
				Endpoint:   endpoint,
				Parameters: drillDown,
			},
		},
	}, nil
}

// presentFields returns the essential field paths the projection actually
// carries, in table order.
func presentFields(projected map[string]any, kind projection.Kind) []string {
	fields := make([]string, 0)
	for _, path := range projection.EssentialFields(kind) {
		if hasPath(projected, path) {
			fields = append(fields, path)
		}
	}
	return fields
}

func hasPath(obj map[string]any, path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			child, ok := obj[path[:i]].(map[string]any)
			if !ok {
				return false
			}
			_, ok = child[path[i+1:]]
			return ok
		}
	}
	_, ok := obj[path]
	return ok
}
