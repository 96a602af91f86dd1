// Package projection reduces property objects to a predeclared "essential"
// subset of fields for summarized responses.
//
// Each object kind has a static table of dotted field paths. Projection
// extracts exactly those paths, preserving their nesting, and silently skips
// paths the object does not carry. The tables are the single source of truth
// for what an LLM agent sees in a preview.
package projection

import "strings"

// Kind identifies a projectable property object type.
type Kind string

const (
	KindListing         Kind = "listing"
	KindBooking         Kind = "booking"
	KindFinancialReport Kind = "financialReport"
)

// essentialFields maps each kind to its ordered essential field paths.
// Paths support one level of nesting via dot notation.
var essentialFields = map[Kind][]string{
	KindListing: {
		"id",
		"name",
		"status",
		"propertyType",
		"bedrooms",
		"bathrooms",
		"maxGuests",
		"basePrice",
		"currency",
		"address.city",
		"address.countryCode",
	},
	KindBooking: {
		"id",
		"listingId",
		"status",
		"arrivalDate",
		"departureDate",
		"nights",
		"totalPrice",
		"currency",
		"channelName",
		"guest.firstName",
		"guest.lastName",
		"guest.country",
	},
	KindFinancialReport: {
		"listingId",
		"periodStart",
		"periodEnd",
		"currency",
		"totalRevenue",
		"totalExpenses",
		"netIncome",
		"occupancyRate",
		"totals.rentalIncome",
		"totals.cleaningFees",
		"totals.channelFees",
	},
}

// EssentialFields returns the ordered essential field paths for a kind, or
// nil for an unknown kind.
func EssentialFields(kind Kind) []string {
	fields := essentialFields[kind]
	if fields == nil {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// KnownKind reports whether the kind has an essential field table.
func KnownKind(kind Kind) bool {
	_, ok := essentialFields[kind]
	return ok
}

// Project extracts the essential fields of the given kind from obj,
// preserving the original nesting shape. Missing paths are omitted without
// error. The input is never modified.
func Project(obj map[string]any, kind Kind) map[string]any {
	if obj == nil {
		return nil
	}

	result := make(map[string]any)
	for _, path := range essentialFields[kind] {
		copyPath(obj, result, path)
	}
	return result
}

// Metrics describes how much a projection reduced an object, for inclusion
// in summary metadata.
type Metrics struct {
	OriginalFieldCount  int `json:"originalFieldCount"`
	ProjectedFieldCount int `json:"projectedFieldCount"`
}

// ReductionMetrics counts the leaf fields of the original and projected
// objects.
func ReductionMetrics(original, projected map[string]any) Metrics {
	return Metrics{
		OriginalFieldCount:  countLeafFields(original),
		ProjectedFieldCount: countLeafFields(projected),
	}
}

// copyPath copies the value at a dotted path from src into dst, creating
// the intermediate map when the path is nested.
func copyPath(src, dst map[string]any, path string) {
	key, rest, nested := strings.Cut(path, ".")

	val, ok := src[key]
	if !ok {
		return
	}

	if !nested {
		dst[key] = val
		return
	}

	srcChild, ok := val.(map[string]any)
	if !ok {
		return
	}
	childVal, ok := srcChild[rest]
	if !ok {
		return
	}

	dstChild, ok := dst[key].(map[string]any)
	if !ok {
		dstChild = make(map[string]any)
		dst[key] = dstChild
	}
	dstChild[rest] = childVal
}

// countLeafFields counts scalar and array fields, descending into nested
// maps so nested leaves are counted individually.
func countLeafFields(obj map[string]any) int {
	count := 0
	for _, v := range obj {
		if child, ok := v.(map[string]any); ok {
			count += countLeafFields(child)
			continue
		}
		count++
	}
	return count
}
