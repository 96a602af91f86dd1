// Package pagination turns raw result sequences into pages with
// look-ahead-verified continuation cursors.
//
// A page fetch always requests one item more than the page size. The
// presence of that extra item is the only reliable signal that more data
// exists: a last page that is exactly full is otherwise indistinguishable
// from a page with data remaining. The extra item is trimmed before the
// page is returned.
package pagination

import (
	"context"
	"fmt"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
)

// PageMetadata describes a returned page.
type PageMetadata struct {
	// TotalCount is the total number of items in the dataset, as reported
	// by the upstream fetch.
	TotalCount int `json:"totalCount"`

	// PageSize is the effective (clamped) page size used for this page.
	PageSize int `json:"pageSize"`

	// HasMore indicates whether a following page exists.
	HasMore bool `json:"hasMore"`
}

// Page is the paginated wire shape consumed by list endpoints.
// NextCursor is present if and only if Meta.HasMore is true.
type Page[T any] struct {
	Items      []T          `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	Meta       PageMetadata `json:"meta"`
}

// PageMeta returns the page's metadata. It also lets downstream response
// processing recognize an already-paginated payload without inspecting
// its serialized form.
func (p *Page[T]) PageMeta() PageMetadata {
	return p.Meta
}

// PageFetcher returns up to limit items of the underlying dataset starting
// at offset, along with the dataset's total count. How the fetch is
// implemented (HTTP, retries, auth) is the upstream client's concern.
type PageFetcher[T any] func(ctx context.Context, limit, offset int) ([]T, int, error)

// Request carries the client's pagination parameters.
type Request struct {
	// Limit is the requested page size; zero or negative means "use the
	// configured default".
	Limit int

	// Cursor is the opaque continuation cursor from a previous page, or
	// empty for the first page.
	Cursor string
}

// ClampLimit resolves the effective page size for a request: the configured
// default when unspecified, clamped into [1, maxPageSize].
func ClampLimit(requested int, cfg config.Settings) int {
	limit := requested
	if limit <= 0 {
		limit = cfg.DefaultPageSize
	}
	if limit > cfg.MaxPageSize {
		limit = cfg.MaxPageSize
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// BuildPage fetches one page of results and derives its continuation state.
//
// Cursor errors (cursor.ErrMalformed, cursor.ErrInvalidSignature,
// cursor.ErrExpired) propagate unwrapped for the caller to surface as
// client-correctable errors; a stale cursor must never silently restart
// from the first page. An offset beyond the end of the dataset yields an
// empty page with HasMore=false, not an error.
func BuildPage[T any](ctx context.Context, codec *cursor.Codec, cfg config.Settings, req Request, fetch PageFetcher[T]) (*Page[T], error) {
	offset := 0
	if req.Cursor != "" {
		decoded, err := codec.Decode(req.Cursor)
		if err != nil {
			return nil, err
		}
		offset = decoded
	}

	limit := ClampLimit(req.Limit, cfg)

	// Look-ahead fetch: one extra item to detect a following page.
	items, total, err := fetch(ctx, limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("page fetch at offset %d failed: %w", offset, err)
	}

	page := &Page[T]{
		Meta: PageMetadata{
			TotalCount: total,
			PageSize:   limit,
		},
	}

	if len(items) > limit {
		page.Meta.HasMore = true
		items = items[:limit]

		next, err := codec.Encode(offset + limit)
		if err != nil {
			return nil, fmt.Errorf("failed to mint continuation cursor: %w", err)
		}
		page.NextCursor = next
	}

	if items == nil {
		items = []T{}
	}
	page.Items = items

	return page, nil
}
