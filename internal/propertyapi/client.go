// Package propertyapi is the HTTP client for the upstream property
// management API. It authenticates with OAuth2 client credentials and
// retries transient failures with a bounded backoff.
package propertyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/logging"
)

// Default client behavior.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond

	// maxErrorBodyBytes bounds how much of an error body is read for the
	// error message.
	maxErrorBodyBytes = 4 << 10
)

// Config describes how to reach the upstream property API.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.propertyhub.example/v1".
	BaseURL string

	// TokenURL, ClientID, and ClientSecret configure OAuth2 client
	// credentials. Leave ClientID empty to send unauthenticated requests
	// (local development against a stub).
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// Timeout bounds a single HTTP request (default 30s).
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient failures (default 2).
	MaxRetries int

	// RetryBackoff is the base delay between attempts; the delay doubles
	// per attempt (default 500ms).
	RetryBackoff time.Duration
}

// Client calls the upstream property API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	// group collapses concurrent identical single-object GETs into one
	// upstream request.
	group singleflight.Group

	maxRetries int
	backoff    time.Duration
}

// NewClient builds a property API client. The context governs OAuth2
// token refreshes for the lifetime of the client, not a single request.
// A nil metrics recorder disables upstream metrics; a nil logger discards
// logs.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("property API base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid property API base URL: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var httpClient *http.Client
	if cfg.ClientID != "" {
		if cfg.TokenURL == "" {
			return nil, fmt.Errorf("OAuth2 client credentials require a token URL")
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		httpClient = cc.Client(ctx)
		httpClient.Timeout = timeout
		logger.Info("property API client using OAuth2 client credentials",
			logging.Host(cfg.TokenURL))
	} else {
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// ListListings returns one window of listings plus the dataset total.
func (c *Client) ListListings(ctx context.Context, limit, offset int) ([]map[string]any, int, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var envelope listEnvelope
	if err := c.get(ctx, instrumentation.OperationListListings, "/listings", query, &envelope); err != nil {
		return nil, 0, err
	}
	return envelope.Items, envelope.TotalCount, nil
}

// ListBookings returns one window of bookings plus the dataset total,
// optionally filtered.
func (c *Client) ListBookings(ctx context.Context, limit, offset int, filter BookingFilter) ([]map[string]any, int, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if filter.ListingID != "" {
		query.Set("listingId", filter.ListingID)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.ArrivalFrom != "" {
		query.Set("arrivalFrom", filter.ArrivalFrom)
	}
	if filter.ArrivalTo != "" {
		query.Set("arrivalTo", filter.ArrivalTo)
	}

	var envelope listEnvelope
	if err := c.get(ctx, instrumentation.OperationListBookings, "/bookings", query, &envelope); err != nil {
		return nil, 0, err
	}
	return envelope.Items, envelope.TotalCount, nil
}

// GetListing returns one listing by ID.
func (c *Client) GetListing(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("listing ID is required")
	}
	return c.getObject(ctx, instrumentation.OperationGetListing, "/listings/"+url.PathEscape(id), nil)
}

// GetBooking returns one booking by ID.
func (c *Client) GetBooking(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("booking ID is required")
	}
	return c.getObject(ctx, instrumentation.OperationGetBooking, "/bookings/"+url.PathEscape(id), nil)
}

// GetFinancialReport returns the financial report for a listing over the
// given period.
func (c *Client) GetFinancialReport(ctx context.Context, listingID string, period ReportPeriod) (map[string]any, error) {
	if listingID == "" {
		return nil, fmt.Errorf("listing ID is required")
	}
	query := url.Values{}
	if period.Start != "" {
		query.Set("from", period.Start)
	}
	if period.End != "" {
		query.Set("to", period.End)
	}

	path := "/listings/" + url.PathEscape(listingID) + "/financials"
	return c.getObject(ctx, instrumentation.OperationFinancialReport, path, query)
}

// getObject fetches a single JSON object, deduplicating concurrent
// identical requests. Agents drilling into the same object from parallel
// tool calls share one upstream round trip; the returned map must be
// treated as read-only.
func (c *Client) getObject(ctx context.Context, operation, path string, query url.Values) (map[string]any, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var obj map[string]any
		if err := c.get(ctx, operation, path, query, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// get performs one GET with retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	ctx, span := instrumentation.StartUpstreamSpan(ctx, operation)
	defer span.End()
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff, context-aware.
			delay := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				c.recordResult(ctx, operation, instrumentation.StatusError, start)
				instrumentation.SetSpanError(span, ctx.Err())
				return ctx.Err()
			case <-time.After(delay):
			}
			c.logger.Debug("retrying property API request",
				logging.Operation(operation),
				slog.Int("attempt", attempt))
		}

		err := c.doOnce(ctx, requestURL, out)
		if err == nil {
			c.recordResult(ctx, operation, instrumentation.StatusSuccess, start)
			instrumentation.SetSpanSuccess(span)
			return nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}

	c.recordResult(ctx, operation, instrumentation.StatusError, start)
	instrumentation.SetSpanError(span, lastErr)
	c.logger.Warn("property API request failed",
		logging.Operation(operation),
		logging.SanitizedErr(lastErr))
	return fmt.Errorf("property API %s failed: %w", operation, lastErr)
}

func (c *Client) doOnce(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode property API response: %w", err)
	}
	return nil
}

func (c *Client) recordResult(ctx context.Context, operation, status string, start time.Time) {
	c.metrics.RecordUpstreamRequest(ctx, operation, status, time.Since(start))
}

// retryable reports whether an error is worth another attempt. Client
// errors (4xx) are final; server errors and transport failures are not.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	// Network-level failure.
	return true
}

// errorMessage extracts a human-readable message from an upstream error
// body, falling back to the raw text.
func errorMessage(body []byte) string {
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	return string(body)
}
