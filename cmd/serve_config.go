package cmd

import (
	"os"
	"strings"
	"time"
)

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// GovernanceConfigPath is the path to the governance YAML file. Empty
	// means built-in defaults with no hot reload.
	GovernanceConfigPath string

	// Cursor signing settings
	CursorSecret string
	CursorTTL    time.Duration

	// Upstream property API settings
	API APIServeConfig

	// Metrics server settings
	Metrics MetricsServeConfig

	DebugMode bool
}

// APIServeConfig holds the upstream property API connection settings.
type APIServeConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// MetricsServeConfig holds configuration for the dedicated metrics server.
type MetricsServeConfig struct {
	// Enabled starts the separate metrics listener. It is still gated on
	// the instrumentation provider being enabled.
	Enabled bool

	// Addr is the metrics listen address.
	Addr string
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// loadAPIEnvVars fills upstream API settings from environment variables for
// any value not set via flags. Credentials are env-only so they never show
// up in process listings.
func loadAPIEnvVars(config *APIServeConfig) {
	loadEnvIfEmpty(&config.BaseURL, "PROPERTYHUB_API_URL")
	loadEnvIfEmpty(&config.TokenURL, "PROPERTYHUB_TOKEN_URL")
	loadEnvIfEmpty(&config.ClientID, "PROPERTYHUB_CLIENT_ID")
	loadEnvIfEmpty(&config.ClientSecret, "PROPERTYHUB_CLIENT_SECRET")

	if len(config.Scopes) == 0 {
		if scopes := os.Getenv("PROPERTYHUB_SCOPES"); scopes != "" {
			for _, s := range strings.Split(scopes, ",") {
				if s = strings.TrimSpace(s); s != "" {
					config.Scopes = append(config.Scopes, s)
				}
			}
		}
	}
}
