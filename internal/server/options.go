package server

import (
	"errors"
	"log/slog"

	"github.com/stayware/mcp-propertyhub/internal/governance"
	"github.com/stayware/mcp-propertyhub/internal/governance/config"
	"github.com/stayware/mcp-propertyhub/internal/governance/cursor"
	"github.com/stayware/mcp-propertyhub/internal/instrumentation"
	"github.com/stayware/mcp-propertyhub/internal/propertyapi"
	"github.com/stayware/mcp-propertyhub/internal/telemetry"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithConfigService sets the governance configuration service.
func WithConfigService(svc *config.Service) Option {
	return func(sc *ServerContext) error {
		if svc == nil {
			return ErrMissingConfigService
		}
		sc.configService = svc
		return nil
	}
}

// WithTelemetry sets the governance telemetry service.
func WithTelemetry(svc *telemetry.Service) Option {
	return func(sc *ServerContext) error {
		if svc == nil {
			return ErrMissingTelemetry
		}
		sc.telemetry = svc
		return nil
	}
}

// WithPropertyClient sets the upstream property API client.
func WithPropertyClient(client *propertyapi.Client) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingPropertyClient
		}
		sc.propertyClient = client
		return nil
	}
}

// WithCursorCodec sets the signed pagination cursor codec.
func WithCursorCodec(codec *cursor.Codec) Option {
	return func(sc *ServerContext) error {
		if codec == nil {
			return ErrMissingCursorCodec
		}
		sc.cursorCodec = codec
		return nil
	}
}

// WithProcessor overrides the response governance processor. Mostly
// useful in tests; by default one is derived from the config service,
// telemetry, and logger.
func WithProcessor(p *governance.Processor) Option {
	return func(sc *ServerContext) error {
		sc.processor = p
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the server version in the configuration.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Version = version
		return nil
	}
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
// This enables production-grade observability including metrics and tracing.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingConfigService  = errors.New("governance configuration service is required")
	ErrMissingTelemetry      = errors.New("telemetry service is required")
	ErrMissingPropertyClient = errors.New("property API client is required")
	ErrMissingCursorCodec    = errors.New("cursor codec is required")
	ErrMissingLogger         = errors.New("logger is required")
	ErrMissingConfig         = errors.New("configuration is required")
	ErrServerShutdown        = errors.New("server context has been shutdown")
)
