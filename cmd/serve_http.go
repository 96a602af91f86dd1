package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/server/middleware"
)

// maxRequestBodySize bounds MCP request bodies. Tool calls are small JSON-RPC
// payloads; anything near this limit is malformed or hostile.
const maxRequestBodySize = 4 << 20

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serveConfig ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	mux := http.NewServeMux()

	// Create Streamable HTTP handler
	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(serveConfig.HTTPEndpoint),
	)
	mux.Handle(serveConfig.HTTPEndpoint, mcpHandler)

	// Add health check endpoints
	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(mux)

	slog.Info("streamable HTTP server starting",
		"addr", serveConfig.HTTPAddr,
		"endpoint", serveConfig.HTTPEndpoint,
		"health_endpoints", []string{"/healthz", "/readyz", "/statusz"})

	allowedOrigins, err := middleware.ValidateAllowedOrigins(os.Getenv("ALLOWED_ORIGINS"))
	if err != nil {
		return fmt.Errorf("invalid ALLOWED_ORIGINS: %w", err)
	}

	// Middleware chain, innermost first
	var handler http.Handler = mux
	handler = middleware.MaxRequestSize(maxRequestBodySize)(handler)
	handler = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		EnableHSTS: os.Getenv("ENABLE_HSTS") == "true",
	})(handler)
	if len(allowedOrigins) > 0 {
		handler = middleware.CORS(allowedOrigins)(handler)
	}
	handler = middleware.HTTPMetrics(provider)(handler)

	// Start metrics server if enabled (separate port keeps the scrape
	// surface off the MCP listener)
	var metricsServer *server.MetricsServer
	if serveConfig.Metrics.Enabled && provider != nil && provider.Enabled() {
		metricsServer, err = startMetricsServer(serveConfig.Metrics, provider)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Create HTTP server with security timeouts
	httpServer := &http.Server{
		Addr:              serveConfig.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()

		// Shutdown metrics server first
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error shutting down metrics server", "error", err)
			}
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		slog.Info("HTTP server stopped normally")
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}

// startMetricsServer starts the dedicated metrics server on a separate port.
func startMetricsServer(metricsConfig MetricsServeConfig, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    metricsConfig.Addr,
		Enabled:                 metricsConfig.Enabled,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Start metrics server in background
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	slog.Info("metrics server started", "addr", metricsServer.Addr(), "endpoint", "/metrics")
	return metricsServer, nil
}
