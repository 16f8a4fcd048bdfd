package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// DefaultMetricsInterval is how often metrics are pushed over OTLP
const DefaultMetricsInterval = 60 * time.Second

// MeterProviderOption configures NewMeterProvider
type MeterProviderOption func(*meterSetup)

type meterSetup struct {
	metrics    *MetricsConfig
	resource   *resource.Resource
	target     Target
	reader     sdkmetric.Reader
	registerer prometheus.Registerer
}

// WithMetricsConfig enables metrics when mc is non-nil and enabled
func WithMetricsConfig(mc *MetricsConfig) MeterProviderOption {
	return func(s *meterSetup) {
		s.metrics = mc
	}
}

// WithMeterResource attaches res to every exported metric
func WithMeterResource(res *resource.Resource) MeterProviderOption {
	return func(s *meterSetup) {
		s.resource = res
	}
}

// WithMeterTarget sets the OTLP collector metrics are pushed to
func WithMeterTarget(t Target) MeterProviderOption {
	return func(s *meterSetup) {
		s.target = t
	}
}

// WithMetricReader replaces the periodic OTLP reader
func WithMetricReader(r sdkmetric.Reader) MeterProviderOption {
	return func(s *meterSetup) {
		s.reader = r
	}
}

// WithPrometheusRegisterer adds a pull reader whose collector is registered with reg
func WithPrometheusRegisterer(reg prometheus.Registerer) MeterProviderOption {
	return func(s *meterSetup) {
		s.registerer = reg
	}
}

// NewMeterProvider returns a no-op provider unless metrics are enabled.
// An SDK provider is installed as the global provider; the caller must Shutdown it.
func NewMeterProvider(ctx context.Context, opts ...MeterProviderOption) (metric.MeterProvider, error) {
	s := &meterSetup{target: Target{Endpoint: DefaultEndpoint}}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil || !s.metrics.Enabled {
		slog.Debug("Metrics disabled")
		return noop.NewMeterProvider(), nil
	}

	if s.resource == nil {
		res, err := NewResource(ctx, DefaultServiceName, "", "")
		if err != nil {
			return nil, err
		}
		s.resource = res
	}

	reader := s.reader
	if reader == nil {
		exp, err := otlpMetricExporter(ctx, s.target)
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(DefaultMetricsInterval))
	}

	providerOpts := []sdkmetric.Option{
		sdkmetric.WithResource(s.resource),
		sdkmetric.WithReader(reader),
	}
	if s.registerer != nil {
		promExporter, err := otelprom.New(otelprom.WithRegisterer(s.registerer))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(promExporter))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"endpoint", s.target.Endpoint,
		"prometheus", s.registerer != nil,
	)
	return mp, nil
}

func otlpMetricExporter(ctx context.Context, t Target) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(t.Endpoint)}
	if t.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}
	return exp, nil
}
