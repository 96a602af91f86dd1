package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stayware/mcp-propertyhub/internal/governance"
	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle
// management.
type ServerContext struct {
	// Core dependencies
	configService  *config.Service
	telemetry      *telemetry.Service
	propertyClient *propertyapi.Client
	cursorCodec    *cursor.Codec
	processor      *governance.Processor
	logger         *slog.Logger
	config         *Config

	// Instrumentation
	instrumentationProvider *instrumentation.Provider

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	// Initialize with defaults
	sc := &ServerContext{
		ctx:       serverCtx,
		cancel:    cancel,
		config:    NewDefaultConfig(),
		logger:    slog.Default(),
		telemetry: telemetry.NewService(telemetry.DefaultRingSize),
	}

	// Apply functional options
	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	// Validate required dependencies
	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	// The response processor is derived from the other dependencies
	// unless one was injected for testing. Governance records flow to
	// both the telemetry ring and the metrics pipeline.
	if sc.processor == nil {
		recorder := &instrumentedRecorder{telemetry: sc.telemetry, metrics: sc.Metrics()}
		sc.processor = governance.NewProcessor(sc.configService, recorder, sc.logger)
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// ConfigService returns the governance configuration service.
func (sc *ServerContext) ConfigService() *config.Service {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.configService
}

// Telemetry returns the governance telemetry service.
func (sc *ServerContext) Telemetry() *telemetry.Service {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.telemetry
}

// PropertyClient returns the upstream property API client.
func (sc *ServerContext) PropertyClient() *propertyapi.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.propertyClient
}

// CursorCodec returns the signed pagination cursor codec.
func (sc *ServerContext) CursorCodec() *cursor.Codec {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cursorCodec
}

// Processor returns the response governance processor.
func (sc *ServerContext) Processor() *governance.Processor {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.processor
}

// InstrumentationProvider returns the OpenTelemetry provider, or nil when
// instrumentation was not configured.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Metrics returns the instrumentation metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.instrumentationProvider == nil {
		return &instrumentation.Metrics{}
	}
	return sc.instrumentationProvider.Metrics()
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and releases any resources.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.configService == nil {
		return ErrMissingConfigService
	}
	if sc.telemetry == nil {
		return ErrMissingTelemetry
	}
	if sc.propertyClient == nil {
		return ErrMissingPropertyClient
	}
	if sc.cursorCodec == nil {
		return ErrMissingCursorCodec
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// Logging settings
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName: "mcp-propertyhub",
		Version:    "0.1.0",
		LogLevel:   "info",
		LogFormat:  "json",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
