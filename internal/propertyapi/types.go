package propertyapi

import (
	"errors"
	"fmt"
)

// listEnvelope is the wire shape of upstream list endpoints.
type listEnvelope struct {
	Items      []map[string]any `json:"items"`
	TotalCount int              `json:"totalCount"`
}

// BookingFilter narrows a booking list request. Zero values mean "no
// filter".
type BookingFilter struct {
	// ListingID restricts results to bookings of one listing.
	ListingID string

	// Status restricts results to one booking status (e.g. "confirmed",
	// "cancelled").
	Status string

	// ArrivalFrom and ArrivalTo bound the arrival date, inclusive, in
	// ISO 8601 date form (2026-08-01).
	ArrivalFrom string
	ArrivalTo   string
}

// ReportPeriod bounds a financial report, inclusive, in ISO 8601 date form.
type ReportPeriod struct {
	Start string
	End   string
}

// APIError is a non-2xx response from the upstream property API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("property API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("property API returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
