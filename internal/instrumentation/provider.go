package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider owns the OpenTelemetry meter and tracer providers along with
// their exporters. Create one per process and shut it down on exit.
type Provider struct {
	config  Config
	metrics *Metrics

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	promHandler    http.Handler

	shutdownFuncs []func(context.Context) error
}

// NewProvider initializes instrumentation according to the config. When
// instrumentation is disabled, the returned provider is inert: recording
// methods no-op and Shutdown returns immediately.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrumentation config: %w", err)
	}

	p := &Provider{config: config}
	if !config.Enabled {
		p.metrics = &Metrics{}
		return p, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", config.ServiceName),
		attribute.String("service.version", config.ServiceVersion),
	)

	if err := p.setupMetrics(ctx, res); err != nil {
		return nil, err
	}
	if err := p.setupTracing(ctx, res); err != nil {
		// Roll back the metrics side so nothing leaks.
		_ = p.Shutdown(ctx)
		return nil, err
	}

	m, err := NewMetrics(p.Meter(), config.DetailedLabels)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.metrics = m

	return p, nil
}

func (p *Provider) setupMetrics(ctx context.Context, res *resource.Resource) error {
	var reader sdkmetric.Reader

	switch p.config.MetricsExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		reader = exporter
		p.promHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	case "otlp":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpointURL(p.config.OTLPEndpoint),
		}
		if p.config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(DefaultMetricInterval))

	case "stdout":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(DefaultMetricInterval))
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.shutdownFuncs = append(p.shutdownFuncs, p.meterProvider.Shutdown)

	return nil
}

func (p *Provider) setupTracing(ctx context.Context, res *resource.Resource) error {
	var exporter sdktrace.SpanExporter

	switch p.config.TracingExporter {
	case "none":
		return nil

	case "otlp":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpointURL(p.config.OTLPEndpoint),
		}
		if p.config.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		exporter = exp

	case "stdout":
		exp, err := stdouttrace.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		exporter = exp
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(
			sdktrace.TraceIDRatioBased(p.config.TraceSamplingRate))),
	)
	otel.SetTracerProvider(p.tracerProvider)
	p.shutdownFuncs = append(p.shutdownFuncs, p.tracerProvider.Shutdown)

	return nil
}

// Metrics returns the metrics recorder. Never nil; when instrumentation is
// disabled every recording method no-ops.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Meter returns a meter from the configured meter provider.
func (p *Provider) Meter() metric.Meter {
	if p.meterProvider == nil {
		return otel.GetMeterProvider().Meter(TracerName)
	}
	return p.meterProvider.Meter(TracerName)
}

// PrometheusHandler returns the HTTP handler serving Prometheus metrics,
// or nil when the prometheus exporter is not in use.
func (p *Provider) PrometheusHandler() http.Handler {
	return p.promHandler
}

// PrometheusEndpoint returns the configured metrics endpoint path.
func (p *Provider) PrometheusEndpoint() string {
	return p.config.PrometheusEndpoint
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}

// Shutdown flushes and stops all exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range p.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}
