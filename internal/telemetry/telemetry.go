package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry bundles the providers handed to the cache, query service and HTTP layer
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	scrape         *prometheus.Registry
	shutdowns      []namedShutdown
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// Option configures New
type Option func(*setup)

type setup struct {
	config         *Config
	registrySource string
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(s *setup) {
		s.config = cfg
	}
}

// WithRegistrySource records where the registry snapshot is loaded from
// as the registry.source resource attribute
func WithRegistrySource(source string) Option {
	return func(s *setup) {
		s.registrySource = source
	}
}

// New builds the tracer and meter providers described by the configuration.
// With a nil or disabled configuration both providers are no-ops and
// Shutdown does nothing.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	s := &setup{}
	for _, opt := range opts {
		opt(s)
	}

	cfg := s.config
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return &Telemetry{
			tracerProvider: tracenoop.NewTracerProvider(),
			meterProvider:  metricnoop.NewMeterProvider(),
		}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res, err := NewResource(ctx, cfg.GetServiceName(), cfg.GetServiceVersion(), s.registrySource)
	if err != nil {
		return nil, err
	}

	slog.Info("Initializing telemetry",
		"service_name", cfg.GetServiceName(),
		"service_version", cfg.GetServiceVersion(),
		"registry_source", redactSource(s.registrySource),
	)

	t := &Telemetry{}

	t.tracerProvider, err = NewTracerProvider(ctx,
		WithTracingConfig(cfg.Tracing),
		WithTracerResource(res),
		WithTracerTarget(cfg.Target()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	t.track("tracer provider", t.tracerProvider)

	meterOpts := []MeterProviderOption{
		WithMetricsConfig(cfg.Metrics),
		WithMeterResource(res),
		WithMeterTarget(cfg.Target()),
	}
	if cfg.PrometheusEnabled() {
		t.scrape = newScrapeRegistry()
		meterOpts = append(meterOpts, WithPrometheusRegisterer(t.scrape))
	}

	t.meterProvider, err = NewMeterProvider(ctx, meterOpts...)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}
	t.track("meter provider", t.meterProvider)

	return t, nil
}

// newScrapeRegistry holds the OpenTelemetry bridge plus Go runtime and process collectors
func newScrapeRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// track registers p for Shutdown when it is an SDK provider
func (t *Telemetry) track(name string, p any) {
	if s, ok := p.(interface{ Shutdown(context.Context) error }); ok {
		t.shutdowns = append(t.shutdowns, namedShutdown{name: name, fn: s.Shutdown})
	}
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when Prometheus export is disabled
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.scrape == nil {
		return nil
	}
	return promhttp.HandlerFor(t.scrape, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the SDK providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if len(t.shutdowns) == 0 {
		return nil
	}
	slog.Info("Shutting down telemetry")

	var errs []error
	for _, s := range t.shutdowns {
		if err := s.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", s.name, err))
		}
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}
