// Package logging provides structured logging utilities for the
// mcp-propertyhub application.
//
// This package centralizes logging patterns to ensure consistent,
// structured logging throughout the codebase using the standard
// library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (guest email anonymization, credential masking)
//   - Host/URL sanitization for security
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "propertyhub_list_listings")
//	logger.Info("governed list response",
//	    logging.Endpoint("propertyhub_list_listings"),
//	    logging.EstimatedTokens(estimate))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("booking fetched",
//	    logging.GuestHash(email),
//	    logging.Host(apiBaseURL))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Guest emails are hashed to prevent PII leakage while allowing correlation
//   - Upstream API URLs have IP addresses redacted to prevent topology leakage
//   - Credentials and tokens are never logged directly
package logging
