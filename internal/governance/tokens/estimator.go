// Package tokens approximates the LLM token cost of serialized payloads.
//
// The estimate is a character-count heuristic, not a tokenizer: roughly four
// characters per token, inflated by a fixed safety margin so the estimator
// over-counts rather than under-counts. A false "too big" costs an extra
// page or a summary; a false "fits" risks overflowing the client's context
// window.
package tokens

import (
	"encoding/json"
	"fmt"
)

const (
	// charsPerToken is the assumed average number of characters per token.
	charsPerToken = 4

	// safetyMarginPercent inflates every estimate to bias toward
	// over-estimation.
	safetyMarginPercent = 20
)

// Estimate returns the approximate token count of a serialized payload.
// It is a pure function with no I/O and runs in O(1).
func Estimate(serialized string) int {
	if len(serialized) == 0 {
		return 0
	}
	base := (len(serialized) + charsPerToken - 1) / charsPerToken
	return base + (base*safetyMarginPercent+99)/100
}

// EstimateBytes is Estimate for raw payload bytes.
func EstimateBytes(serialized []byte) int {
	if len(serialized) == 0 {
		return 0
	}
	base := (len(serialized) + charsPerToken - 1) / charsPerToken
	return base + (base*safetyMarginPercent+99)/100
}

// EstimateValue serializes a value as JSON and estimates its token count,
// also returning the serialized size in bytes.
//
// Serialization failure should not occur for well-formed payloads; callers
// must treat it as "oversized" so that estimation failures lead to more
// governance, never less.
func EstimateValue(v any) (estTokens int, sizeBytes int, err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to serialize payload for estimation: %w", err)
	}
	return EstimateBytes(data), len(data), nil
}
