package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/governance/pagination"
	"github.com/stayware/mcp-propertyhub/internal/governance/projection"
	"github.com/stayware/mcp-propertyhub/internal/governance/summary"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

type staticResolver struct {
	settings config.Settings
}

func (r staticResolver) Resolve(string) config.Settings { return r.settings }

type captureRecorder struct {
	records []telemetry.Record
}

func (c *captureRecorder) Record(rec telemetry.Record) { c.records = append(c.records, rec) }

func (c *captureRecorder) last(t *testing.T) telemetry.Record {
	t.Helper()
	if len(c.records) == 0 {
		t.Fatal("no telemetry record captured")
	}
	return c.records[len(c.records)-1]
}

func newTestProcessor(settings config.Settings) (*Processor, *captureRecorder) {
	rec := &captureRecorder{}
	return NewProcessor(staticResolver{settings}, rec, nil), rec
}

func tightSettings() config.Settings {
	s := config.DefaultSettings()
	s.OutputTokenThreshold = 100
	s.HardOutputTokenCap = 400
	return s
}

// bigListing is comfortably over a 100-token threshold.
func bigListing() map[string]any {
	return map[string]any{
		"id":          "li-1",
		"name":        "Harbour Loft",
		"status":      "active",
		"description": strings.Repeat("waterfront views and period features ", 40),
		"address":     map[string]any{"city": "Bristol", "countryCode": "GB"},
	}
}

func TestProcess_ErrorPayloadBypassesGovernance(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	payload := map[string]any{"error": strings.Repeat("upstream said no ", 200)}
	out, err := p.Process(Request{Endpoint: "propertyhub_get_listing", Payload: payload, IsError: true})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(payload)
	if out != string(want) {
		t.Error("error payload must pass through unchanged")
	}
	r := rec.last(t)
	if r.WasSummarized || r.WasOversized || r.WasPaginated {
		t.Errorf("error payload must not be flagged: %+v", r)
	}
	if r.ResponseBytes == 0 || r.EstimatedTokens == 0 {
		t.Error("error payload is still measured for telemetry")
	}
}

func TestProcess_PaginatedPayloadPassesThrough(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	codec := cursor.NewCodec([]byte("test"))
	page, err := pagination.BuildPage(context.Background(), codec, tightSettings(),
		pagination.Request{Limit: 2},
		func(_ context.Context, limit, offset int) ([]int, int, error) {
			items := make([]int, limit)
			return items, 100, nil
		})
	if err != nil {
		t.Fatal(err)
	}

	out, err := p.Process(Request{Endpoint: "propertyhub_list_listings", Payload: page})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["nextCursor"]; !ok {
		t.Error("page shape must survive processing")
	}
	if r := rec.last(t); !r.WasPaginated || r.WasSummarized {
		t.Errorf("page must be recorded as paginated: %+v", r)
	}
}

func TestProcess_AlreadyGovernedMapIsIdempotent(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	preview := map[string]any{
		"summary": map[string]any{"id": "li-1"},
		"meta":    map[string]any{"kind": "preview", "totalFields": 14.0},
	}
	out, err := p.Process(Request{Endpoint: "propertyhub_get_listing", Payload: preview, Kind: projection.KindListing})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(preview)
	if out != string(want) {
		t.Error("already-summarized payload must pass through unchanged")
	}
	if r := rec.last(t); !r.WasSummarized {
		t.Errorf("preview passthrough should still count as summarized: %+v", r)
	}

	paged := map[string]any{
		"items": []any{},
		"meta":  map[string]any{"hasMore": false, "pageSize": 10.0},
	}
	if _, err := p.Process(Request{Endpoint: "propertyhub_list_listings", Payload: paged}); err != nil {
		t.Fatal(err)
	}
	if r := rec.last(t); !r.WasPaginated {
		t.Errorf("page-shaped map should count as paginated: %+v", r)
	}
}

func TestProcess_SmallObjectPassesThrough(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	obj := map[string]any{"id": "li-1", "name": "Loft"}
	out, err := p.Process(Request{Endpoint: "propertyhub_get_listing", Payload: obj, Kind: projection.KindListing})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(obj)
	if out != string(want) {
		t.Error("under-threshold object must pass through unchanged")
	}
	if r := rec.last(t); r.WasSummarized || r.WasOversized {
		t.Errorf("small object must not be flagged: %+v", r)
	}
}

func TestProcess_OversizedObjectIsSummarized(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	out, err := p.Process(Request{
		Endpoint:        "propertyhub_get_listing",
		Payload:         bigListing(),
		Kind:            projection.KindListing,
		DrillDownParams: map[string]string{"listingId": "li-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Summary map[string]any `json:"summary"`
		Meta    struct {
			Kind             string `json:"kind"`
			DetailsAvailable *struct {
				Endpoint   string            `json:"endpoint"`
				Parameters map[string]string `json:"parameters"`
			} `json:"detailsAvailable"`
		} `json:"meta"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Meta.Kind != "preview" {
		t.Errorf("meta.kind = %q, want preview", resp.Meta.Kind)
	}
	if _, ok := resp.Summary["description"]; ok {
		t.Error("non-essential field survived summarization")
	}
	if resp.Meta.DetailsAvailable == nil || resp.Meta.DetailsAvailable.Parameters["fullOutput"] != "true" {
		t.Error("preview must carry a fullOutput drill-down")
	}

	r := rec.last(t)
	if !r.WasSummarized {
		t.Errorf("record not flagged as summarized: %+v", r)
	}
	if r.ResponseBytes != len(out) {
		t.Error("telemetry must measure the preview, not the original")
	}
}

func TestProcess_FullOutputSuppressesSummarization(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	obj := bigListing()
	out, err := p.Process(Request{
		Endpoint:   "propertyhub_get_listing",
		Payload:    obj,
		Kind:       projection.KindListing,
		FullOutput: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(obj)
	if out != string(want) {
		t.Error("fullOutput drill-down must return the complete object")
	}
	if r := rec.last(t); r.WasSummarized || r.WasOversized {
		t.Errorf("explicit drill-down must not be flagged: %+v", r)
	}
}

func TestProcess_OversizedObjectWithoutKindIsFlagged(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	obj := map[string]any{"blob": strings.Repeat("x", 2000)}
	out, err := p.Process(Request{Endpoint: "propertyhub_raw", Payload: obj})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(obj)
	if out != string(want) {
		t.Error("object without a field table must pass through unchanged")
	}
	if r := rec.last(t); !r.WasOversized || r.WasSummarized {
		t.Errorf("want oversized flag only: %+v", r)
	}
}

func TestProcess_UnpaginatedListOverCapFlaggedNotMutated(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	items := make([]map[string]any, 50)
	for i := range items {
		items[i] = map[string]any{"id": i, "padding": strings.Repeat("y", 50)}
	}
	out, err := p.Process(Request{Endpoint: "propertyhub_list_listings", Payload: items})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(items)
	if out != string(want) {
		t.Error("oversized list must pass through byte for byte")
	}
	if r := rec.last(t); !r.WasOversized {
		t.Errorf("oversized list not flagged: %+v", r)
	}
}

func TestProcess_SmallListNotFlagged(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	if _, err := p.Process(Request{Endpoint: "ep", Payload: []any{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if r := rec.last(t); r.WasOversized {
		t.Errorf("small list must not be flagged: %+v", r)
	}
}

func TestProcess_EveryOutcomeRecordsTelemetry(t *testing.T) {
	p, rec := newTestProcessor(tightSettings())

	requests := []Request{
		{Endpoint: "a", Payload: map[string]any{"ok": true}},
		{Endpoint: "b", Payload: map[string]any{"err": "x"}, IsError: true},
		{Endpoint: "c", Payload: []any{1, 2, 3}},
		{Endpoint: "d", Payload: bigListing(), Kind: projection.KindListing},
		{Endpoint: "e", Payload: make(chan int)}, // unserializable
	}
	for _, req := range requests {
		_, _ = p.Process(req)
	}

	if len(rec.records) != len(requests) {
		t.Errorf("got %d telemetry records for %d requests", len(rec.records), len(requests))
	}
	for i, r := range rec.records {
		if r.Latency < 0 {
			t.Errorf("record %d has negative latency", i)
		}
	}
}

func TestProcess_UnserializableObjectFailsSafeToSummary(t *testing.T) {
	// An object that cannot be measured is treated as over threshold and
	// summarized when a field table exists.
	p, _ := newTestProcessor(tightSettings())

	obj := map[string]any{"id": "li-7", "name": "Mill House", "broken": make(chan int)}
	out, err := p.Process(Request{Endpoint: "propertyhub_get_listing", Payload: obj, Kind: projection.KindListing})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["summary"]; !ok {
		t.Error("unmeasurable object should come back as a preview")
	}
}

func TestProcess_GovernedPageOverCapFlagged(t *testing.T) {
	// Pagination is bookkeeping, not a size guarantee: a page of huge
	// items can still blow past the cap, and the record must say so.
	settings := tightSettings() // cap 400
	p, rec := newTestProcessor(settings)

	codec := cursor.NewCodec([]byte("test"))
	page, err := pagination.BuildPage(context.Background(), codec, settings,
		pagination.Request{Limit: 2},
		func(_ context.Context, limit, offset int) ([]string, int, error) {
			items := make([]string, limit)
			for i := range items {
				items[i] = strings.Repeat("x", 4096)
			}
			return items, 10, nil
		})
	if err != nil {
		t.Fatal(err)
	}

	out, err := p.Process(Request{Endpoint: "propertyhub_list_listings", Payload: page})
	if err != nil {
		t.Fatal(err)
	}

	want, _ := json.Marshal(page)
	if out != string(want) {
		t.Error("over-cap page still passes through unmodified")
	}
	r := rec.last(t)
	if !r.WasPaginated {
		t.Errorf("record not flagged as paginated: %+v", r)
	}
	if !r.WasOversized {
		t.Errorf("page over the hard cap must be flagged oversized: estimate %d, cap %d",
			r.EstimatedTokens, settings.HardOutputTokenCap)
	}
}

func TestProcess_PreviewOverCapFlagged(t *testing.T) {
	settings := tightSettings() // cap 400
	p, rec := newTestProcessor(settings)

	preview := &summary.Response{
		Summary: map[string]any{"id": "li-1", "name": strings.Repeat("long ", 1000)},
		Meta:    summary.Metadata{Kind: summary.KindPreview},
	}
	if _, err := p.Process(Request{Endpoint: "propertyhub_get_listing", Payload: preview}); err != nil {
		t.Fatal(err)
	}

	r := rec.last(t)
	if !r.WasSummarized {
		t.Errorf("record not flagged as summarized: %+v", r)
	}
	if !r.WasOversized {
		t.Errorf("preview over the hard cap must be flagged oversized: estimate %d, cap %d",
			r.EstimatedTokens, settings.HardOutputTokenCap)
	}
}

func TestProcess_HardCapHeldAcrossPageSizes(t *testing.T) {
	// With coherent defaults, governed responses stay under the hard cap
	// at every allowed page size, and none is flagged oversized.
	settings := config.DefaultSettings()
	p, rec := newTestProcessor(settings)
	codec := cursor.NewCodec([]byte("test"))

	for _, pageSize := range []int{1, 10, 50, 200} {
		t.Run(fmt.Sprintf("page size %d", pageSize), func(t *testing.T) {
			page, err := pagination.BuildPage(context.Background(), codec, settings,
				pagination.Request{Limit: pageSize},
				func(_ context.Context, limit, offset int) ([]map[string]any, int, error) {
					items := make([]map[string]any, limit)
					for i := range items {
						items[i] = map[string]any{
							"id":          fmt.Sprintf("li-%04d", offset+i),
							"name":        fmt.Sprintf("Listing %d", offset+i),
							"city":        "Lisbon",
							"status":      "active",
							"nightlyRate": 120,
						}
					}
					return items, 1000, nil
				})
			if err != nil {
				t.Fatal(err)
			}

			if _, err := p.Process(Request{Endpoint: "propertyhub_list_listings", Payload: page}); err != nil {
				t.Fatal(err)
			}

			r := rec.last(t)
			if r.EstimatedTokens > settings.HardOutputTokenCap {
				t.Errorf("page size %d: estimate %d exceeds hard cap %d",
					pageSize, r.EstimatedTokens, settings.HardOutputTokenCap)
			}
			if r.WasOversized {
				t.Errorf("page size %d flagged oversized under the cap: %+v", pageSize, r)
			}
		})
	}

	t.Run("summarized object", func(t *testing.T) {
		tight := tightSettings()
		pTight, recTight := newTestProcessor(tight)

		if _, err := pTight.Process(Request{
			Endpoint: "propertyhub_get_listing",
			Payload:  bigListing(),
			Kind:     projection.KindListing,
		}); err != nil {
			t.Fatal(err)
		}

		r := recTight.last(t)
		if !r.WasSummarized {
			t.Fatalf("expected a summarized record: %+v", r)
		}
		if r.EstimatedTokens > tight.HardOutputTokenCap {
			t.Errorf("preview estimate %d exceeds hard cap %d", r.EstimatedTokens, tight.HardOutputTokenCap)
		}
		if r.WasOversized {
			t.Errorf("preview under the cap flagged oversized: %+v", r)
		}
	})
}
