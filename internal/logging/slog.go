package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation       = "operation"
	KeyEndpoint        = "endpoint"
	KeyObjectKind      = "object_kind"
	KeyListingID       = "listing_id"
	KeyBookingID       = "booking_id"
	KeyGuestHash       = "guest_hash"
	KeyDuration        = "duration"
	KeyStatus          = "status"
	KeyError           = "error"
	KeyHost            = "host"
	KeyTool            = "tool"
	KeyConfigPath      = "config_path"
	KeyEstimatedTokens = "estimated_tokens"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, including the
// bracketed form used in URLs.
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithEndpoint returns a logger with the endpoint attribute set.
func WithEndpoint(logger *slog.Logger, endpoint string) *slog.Logger {
	return logger.With(slog.String(KeyEndpoint, endpoint))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Endpoint returns a slog attribute for the tool endpoint name.
func Endpoint(endpoint string) slog.Attr {
	return slog.String(KeyEndpoint, endpoint)
}

// ObjectKind returns a slog attribute for the governed object kind.
func ObjectKind(kind string) slog.Attr {
	return slog.String(KeyObjectKind, kind)
}

// ListingID returns a slog attribute for a listing identifier.
func ListingID(id string) slog.Attr {
	return slog.String(KeyListingID, id)
}

// BookingID returns a slog attribute for a booking identifier.
func BookingID(id string) slog.Attr {
	return slog.String(KeyBookingID, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Duration returns a slog attribute for an operation duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// EstimatedTokens returns a slog attribute for a token estimate.
func EstimatedTokens(n int) slog.Attr {
	return slog.Int(KeyEstimatedTokens, n)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses
// redacted. Use it for errors that may carry hostnames or IPs from
// upstream API responses.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// AnonymizeGuest returns a hashed representation of a guest email for
// logging purposes. This allows correlation of log entries without
// exposing PII.
func AnonymizeGuest(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "guest:" + hex.EncodeToString(hash[:8])
}

// GuestHash returns a slog attribute with the anonymized guest email.
//
// Usage:
//
//	logger.Info("booking fetched", logging.GuestHash(booking.GuestEmail))
func GuestHash(email string) slog.Attr {
	return slog.String(KeyGuestHash, AnonymizeGuest(email))
}

// SanitizeHost returns a sanitized version of the host for logging
// purposes. IP addresses (both IPv4 and IPv6) are redacted so network
// topology does not leak into logs, while hostnames stay intact for
// debugging.
//
// Examples:
//   - "https://192.168.1.100:8443" -> "https://<redacted-ip>:8443"
//   - "https://api.propertyhub.example" -> "https://api.propertyhub.example"
//   - "192.168.1.100" -> "<redacted-ip>"
//   - "https://[2001:db8::1]:8443" -> "https://<redacted-ip>:8443"
//   - "" -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}

	redactIPs := func(s string) string {
		result := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
		result = ipv6Regex.ReplaceAllString(result, "<redacted-ip>")
		return result
	}

	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}

	if ipv4Regex.MatchString(parsed.Host) || ipv6Regex.MatchString(parsed.Host) {
		parsed.Host = redactIPs(parsed.Host)
		return parsed.String()
	}

	return host
}

// SanitizeToken returns a masked version of a credential for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
