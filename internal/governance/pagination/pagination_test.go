package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
)

var testCodec = cursor.NewCodec([]byte("pagination-test-secret"))

// datasetFetcher returns a PageFetcher over a synthetic dataset of n items
// identified 0..n-1.
func datasetFetcher(n int) PageFetcher[int] {
	return func(_ context.Context, limit, offset int) ([]int, int, error) {
		if offset >= n {
			return nil, n, nil
		}
		end := offset + limit
		if end > n {
			end = n
		}
		items := make([]int, 0, end-offset)
		for i := offset; i < end; i++ {
			items = append(items, i)
		}
		return items, n, nil
	}
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.DefaultPageSize = 10
	s.MaxPageSize = 50
	return s
}

func TestBuildPage_FirstPage(t *testing.T) {
	page, err := BuildPage(context.Background(), testCodec, testSettings(),
		Request{Limit: 10}, datasetFetcher(35))
	if err != nil {
		t.Fatal(err)
	}

	if len(page.Items) != 10 {
		t.Errorf("items = %d, want 10", len(page.Items))
	}
	if !page.Meta.HasMore {
		t.Error("HasMore should be true with 35 items and page size 10")
	}
	if page.NextCursor == "" {
		t.Error("NextCursor must be present when HasMore is true")
	}
	if page.Meta.TotalCount != 35 {
		t.Errorf("TotalCount = %d, want 35", page.Meta.TotalCount)
	}
}

func TestBuildPage_DisjointFullTraversal(t *testing.T) {
	const n, pageSize = 100, 10
	fetch := datasetFetcher(n)

	seen := make(map[int]bool)
	cur := ""
	pages := 0
	for {
		page, err := BuildPage(context.Background(), testCodec, testSettings(),
			Request{Limit: pageSize, Cursor: cur}, fetch)
		if err != nil {
			t.Fatal(err)
		}
		pages++
		for _, id := range page.Items {
			if seen[id] {
				t.Fatalf("item %d returned twice", id)
			}
			seen[id] = true
		}

		if page.Meta.HasMore != (page.NextCursor != "") {
			t.Fatal("NextCursor presence must match HasMore")
		}
		if !page.Meta.HasMore {
			break
		}
		cur = page.NextCursor
	}

	if len(seen) != n {
		t.Errorf("traversal covered %d items, want %d", len(seen), n)
	}
	if pages != n/pageSize {
		t.Errorf("traversal took %d pages, want %d", pages, n/pageSize)
	}
}

func TestBuildPage_FinalPageExactMultiple(t *testing.T) {
	// 30 items, pages of 10: the third page is exactly full and must still
	// be detected as the last one.
	fetch := datasetFetcher(30)

	cur := ""
	var last *Page[int]
	for i := 0; i < 3; i++ {
		page, err := BuildPage(context.Background(), testCodec, testSettings(),
			Request{Limit: 10, Cursor: cur}, fetch)
		if err != nil {
			t.Fatal(err)
		}
		last = page
		cur = page.NextCursor
	}

	if len(last.Items) != 10 {
		t.Errorf("final page has %d items, want 10", len(last.Items))
	}
	if last.Meta.HasMore {
		t.Error("exactly-full final page must report HasMore=false")
	}
	if last.NextCursor != "" {
		t.Error("exactly-full final page must not carry a cursor")
	}
}

func TestBuildPage_OffsetBeyondDataset(t *testing.T) {
	far, err := testCodec.Encode(500)
	if err != nil {
		t.Fatal(err)
	}

	page, err := BuildPage(context.Background(), testCodec, testSettings(),
		Request{Limit: 10, Cursor: far}, datasetFetcher(20))
	if err != nil {
		t.Fatalf("offset beyond dataset should not error: %v", err)
	}
	if len(page.Items) != 0 || page.Meta.HasMore || page.NextCursor != "" {
		t.Errorf("want empty terminal page, got %+v", page)
	}
	if page.Items == nil {
		t.Error("Items must serialize as [], not null")
	}
}

func TestBuildPage_CursorErrorsPropagate(t *testing.T) {
	_, err := BuildPage(context.Background(), testCodec, testSettings(),
		Request{Cursor: "garbage"}, datasetFetcher(5))
	if !errors.Is(err, cursor.ErrMalformed) {
		t.Errorf("err = %v, want cursor.ErrMalformed", err)
	}

	tampered, _ := cursor.NewCodec([]byte("other-secret")).Encode(3)
	_, err = BuildPage(context.Background(), testCodec, testSettings(),
		Request{Cursor: tampered}, datasetFetcher(5))
	if !errors.Is(err, cursor.ErrInvalidSignature) {
		t.Errorf("err = %v, want cursor.ErrInvalidSignature", err)
	}
}

func TestBuildPage_FetchErrorWrapped(t *testing.T) {
	boom := fmt.Errorf("upstream unavailable")
	fetch := func(context.Context, int, int) ([]int, int, error) { return nil, 0, boom }

	_, err := BuildPage(context.Background(), testCodec, testSettings(), Request{}, fetch)
	if !errors.Is(err, boom) {
		t.Errorf("fetch error not propagated, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	cfg := testSettings()

	tests := []struct {
		requested, want int
	}{
		{0, 10},   // default
		{-5, 10},  // default
		{7, 7},    // as requested
		{50, 50},  // at max
		{200, 50}, // clamped to max
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.requested, cfg); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestBuildPage_LookAheadDoesNotLeak(t *testing.T) {
	// The look-ahead item must be trimmed from the page.
	page, err := BuildPage(context.Background(), testCodec, testSettings(),
		Request{Limit: 10}, datasetFetcher(100))
	if err != nil {
		t.Fatal(err)
	}
	if got := page.Items[len(page.Items)-1]; got != 9 {
		t.Errorf("last item = %d, want 9", got)
	}
}
