package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default listen address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of HTTP servers.
	DefaultShutdownTimeout = 10 * time.Second
)

// MetricsServerConfig holds configuration for the dedicated metrics server.
type MetricsServerConfig struct {
	// Addr is the listen address (default: DefaultMetricsAddr).
	Addr string

	// Enabled toggles the server.
	Enabled bool

	// InstrumentationProvider supplies the Prometheus handler.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves Prometheus metrics on a dedicated port, keeping the
// scrape surface off the MCP listener.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer creates a metrics server serving the provider's
// Prometheus handler plus a trivial liveness endpoint for probe reuse.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()

	endpoint := config.InstrumentationProvider.PrometheusEndpoint()
	if endpoint == "" {
		endpoint = "/metrics"
	}
	if handler := config.InstrumentationProvider.PrometheusHandler(); handler != nil {
		mux.Handle(endpoint, handler)
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Addr returns the listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Start runs the server until Shutdown or failure. It blocks.
func (s *MetricsServer) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
