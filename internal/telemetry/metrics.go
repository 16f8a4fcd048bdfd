package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegistryMetricsMeterName is the name used for the registry cache meter
const RegistryMetricsMeterName = "github.com/stackb/bcr-api/registry"

// RegistryMetrics holds the instruments describing registry cache population
type RegistryMetrics struct {
	modulesTotal metric.Int64Gauge
	loadDuration metric.Float64Histogram
	loadsTotal   metric.Int64Counter
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	modulesTotal, err := meter.Int64Gauge(
		"bcr_api_registry_modules_total",
		metric.WithDescription("Number of modules in the cached registry snapshot"),
		metric.WithUnit("{module}"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"bcr_api_registry_load_duration_seconds",
		metric.WithDescription("Duration of registry fetch, inflate and decode in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	loadsTotal, err := meter.Int64Counter(
		"bcr_api_registry_loads_total",
		metric.WithDescription("Number of registry population attempts"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		modulesTotal: modulesTotal,
		loadDuration: loadDuration,
		loadsTotal:   loadsTotal,
	}, nil
}

// RecordModulesTotal records the number of modules in the snapshot loaded from source
func (m *RegistryMetrics) RecordModulesTotal(ctx context.Context, source string, count int64) {
	if m == nil {
		return
	}
	m.modulesTotal.Record(ctx, count, metric.WithAttributes(attribute.String("source", source)))
}

// RecordLoad records the outcome and duration of a single population attempt
func (m *RegistryMetrics) RecordLoad(ctx context.Context, source string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", success),
	)
	m.loadDuration.Record(ctx, duration.Seconds(), attrs)
	m.loadsTotal.Add(ctx, 1, attrs)
}
