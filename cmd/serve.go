package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/server"
	"github.com/stayware/mcp-propertyhub/internal/tools/booking"
	"github.com/stayware/mcp-propertyhub/internal/tools/finance"
	"github.com/stayware/mcp-propertyhub/internal/tools/listing"
	"github.com/stayware/mcp-propertyhub/internal/tools/stats"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// serverName identifies this server to MCP clients during initialization.
const serverName = "mcp-propertyhub"

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		debugMode bool

		// Transport options
		transport       string
		httpAddr        string
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string

		// Governance options
		governanceConfig string
		cursorSecret     string
		cursorTTL        time.Duration

		// Upstream API options
		apiBaseURL string

		// Metrics server options
		enableMetricsServer bool
		metricsAddr         string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP PropertyHub server",
		Long: `Start the MCP PropertyHub server to expose property management data
(listings, bookings, and financial reports) via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Responses pass through a governance pipeline: collections are paginated
behind signed cursors and oversized objects are summarized into previews.
Per-endpoint thresholds are configured in a YAML file (--governance-config)
that is hot reloaded when it changes.

Cursor signing uses a server-held secret (--cursor-secret or CURSOR_SECRET).
When unset an ephemeral secret is generated at startup, which invalidates
outstanding cursors on every restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveConfig := ServeConfig{
				Transport:            transport,
				HTTPAddr:             httpAddr,
				SSEEndpoint:          sseEndpoint,
				MessageEndpoint:      messageEndpoint,
				HTTPEndpoint:         httpEndpoint,
				GovernanceConfigPath: governanceConfig,
				CursorSecret:         cursorSecret,
				CursorTTL:            cursorTTL,
				API:                  APIServeConfig{BaseURL: apiBaseURL},
				Metrics: MetricsServeConfig{
					Enabled: enableMetricsServer,
					Addr:    metricsAddr,
				},
				DebugMode: debugMode,
			}

			loadEnvIfEmpty(&serveConfig.CursorSecret, "CURSOR_SECRET")
			loadAPIEnvVars(&serveConfig.API)

			return runServe(serveConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	// Governance flags
	cmd.Flags().StringVar(&governanceConfig, "governance-config", "", "Path to governance YAML config (empty: built-in defaults, no hot reload)")
	cmd.Flags().StringVar(&cursorSecret, "cursor-secret", "", "Secret for signing pagination cursors (can also be set via CURSOR_SECRET env var)")
	cmd.Flags().DurationVar(&cursorTTL, "cursor-ttl", cursor.DefaultTTL, "Maximum age of a pagination cursor before it expires")

	// Upstream API flags
	cmd.Flags().StringVar(&apiBaseURL, "api-base-url", "", "Base URL of the upstream property API (can also be set via PROPERTYHUB_API_URL env var)")

	// Metrics server flags
	cmd.Flags().BoolVar(&enableMetricsServer, "enable-metrics-server", true, "Serve Prometheus metrics on a dedicated port (requires instrumentation to be enabled)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Listen address for the dedicated metrics server")

	return cmd
}

// runServe contains the main server logic with support for multiple transports
func runServe(serveConfig ServeConfig) error {
	if serveConfig.API.BaseURL == "" {
		return fmt.Errorf("upstream API base URL is required (--api-base-url or PROPERTYHUB_API_URL)")
	}

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr so stdio transport keeps stdout clean for MCP framing.
	logLevel := slog.LevelInfo
	if serveConfig.DebugMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry instrumentation provider
	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("error during instrumentation shutdown", "error", shutdownErr)
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics_exporter", instrumentationConfig.MetricsExporter,
			"tracing_exporter", instrumentationConfig.TracingExporter)
	}

	// Load the governance configuration and start watching it for changes.
	var configService *config.Service
	if serveConfig.GovernanceConfigPath != "" {
		configService, err = config.NewService(serveConfig.GovernanceConfigPath, logger)
		if err != nil {
			return fmt.Errorf("failed to load governance config: %w", err)
		}
		configService.OnReload(func(reloadErr error) {
			result := "success"
			if reloadErr != nil {
				result = "error"
			}
			instrumentationProvider.Metrics().RecordConfigReload(shutdownCtx, result)
		})
		if err := configService.Watch(shutdownCtx); err != nil {
			return fmt.Errorf("failed to watch governance config: %w", err)
		}
		logger.Info("governance config loaded", "path", serveConfig.GovernanceConfigPath)
	} else {
		configService = config.NewStaticService(logger)
		logger.Info("no governance config file given, using built-in defaults")
	}

	// Resolve the cursor signing secret. An ephemeral secret works but
	// invalidates outstanding cursors on restart.
	secret := []byte(serveConfig.CursorSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate ephemeral cursor secret: %w", err)
		}
		logger.Warn("no cursor secret configured, generated an ephemeral one",
			"hint", "set CURSOR_SECRET so cursors survive restarts",
			"fingerprint", hex.EncodeToString(secret[:4]))
	}
	cursorCodec := cursor.NewCodecWithTTL(secret, serveConfig.CursorTTL)

	// Create the upstream property API client.
	var clientMetrics *instrumentation.Metrics
	if instrumentationProvider.Enabled() {
		clientMetrics = instrumentationProvider.Metrics()
	}
	propertyClient, err := propertyapi.NewClient(shutdownCtx, propertyapi.Config{
		BaseURL:      serveConfig.API.BaseURL,
		TokenURL:     serveConfig.API.TokenURL,
		ClientID:     serveConfig.API.ClientID,
		ClientSecret: serveConfig.API.ClientSecret,
		Scopes:       serveConfig.API.Scopes,
	}, logger, clientMetrics)
	if err != nil {
		return fmt.Errorf("failed to create property API client: %w", err)
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithConfigService(configService),
		server.WithPropertyClient(propertyClient),
		server.WithCursorCodec(cursorCodec),
		server.WithLogger(logger),
		server.WithServerName(serverName),
		server.WithVersion(rootCmd.Version),
		server.WithInstrumentationProvider(instrumentationProvider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", "error", err)
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer(serverName, rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register all tool categories
	if err := listing.RegisterListingTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register listing tools: %w", err)
	}

	if err := booking.RegisterBookingTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}

	if err := finance.RegisterFinanceTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register finance tools: %w", err)
	}

	if err := stats.RegisterStatsTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register stats tools: %w", err)
	}

	// Start the appropriate server based on transport type
	switch serveConfig.Transport {
	case transportStdio:
		// Don't print startup messages for stdio mode as they would interfere
		// with MCP communication on stdout
		return runStdioServer(mcpSrv)
	case transportSSE:
		logger.Info("starting MCP PropertyHub server", "transport", serveConfig.Transport)
		return runSSEServer(shutdownCtx, mcpSrv, serveConfig.HTTPAddr, serveConfig.SSEEndpoint, serveConfig.MessageEndpoint)
	case transportStreamableHTTP:
		logger.Info("starting MCP PropertyHub server", "transport", serveConfig.Transport)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serveConfig, instrumentationProvider, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", serveConfig.Transport)
	}
}
