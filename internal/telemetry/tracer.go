package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProviderOption configures NewTracerProvider
type TracerProviderOption func(*tracerSetup)

type tracerSetup struct {
	tracing  *TracingConfig
	resource *resource.Resource
	target   Target
	exporter sdktrace.SpanExporter
}

// WithTracingConfig enables tracing when tc is non-nil and enabled
func WithTracingConfig(tc *TracingConfig) TracerProviderOption {
	return func(s *tracerSetup) {
		s.tracing = tc
	}
}

// WithTracerResource attaches res to every exported span
func WithTracerResource(res *resource.Resource) TracerProviderOption {
	return func(s *tracerSetup) {
		s.resource = res
	}
}

// WithTracerTarget sets the OTLP collector spans are pushed to
func WithTracerTarget(t Target) TracerProviderOption {
	return func(s *tracerSetup) {
		s.target = t
	}
}

// WithSpanExporter replaces the OTLP exporter.
// Spans are exported synchronously, which suits tests and the inspect command.
func WithSpanExporter(exp sdktrace.SpanExporter) TracerProviderOption {
	return func(s *tracerSetup) {
		s.exporter = exp
	}
}

// NewTracerProvider returns a no-op provider unless tracing is enabled.
// An SDK provider is installed as the global provider together with the
// W3C trace-context and baggage propagators; the caller must Shutdown it.
func NewTracerProvider(ctx context.Context, opts ...TracerProviderOption) (trace.TracerProvider, error) {
	s := &tracerSetup{target: Target{Endpoint: DefaultEndpoint}}
	for _, opt := range opts {
		opt(s)
	}

	if s.tracing == nil || !s.tracing.Enabled {
		slog.Debug("Tracing disabled")
		return noop.NewTracerProvider(), nil
	}

	if s.resource == nil {
		res, err := NewResource(ctx, DefaultServiceName, "", "")
		if err != nil {
			return nil, err
		}
		s.resource = res
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.tracing.GetSampling()))
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(s.resource),
		sdktrace.WithSampler(sampler),
	}

	if s.exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithSyncer(s.exporter))
	} else {
		exp, err := otlpSpanExporter(ctx, s.target)
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exp))
		if s.target.Insecure {
			slog.Warn("Spans are sent to the collector over plain HTTP", "endpoint", s.target.Endpoint)
		}
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("Tracing initialized",
		"endpoint", s.target.Endpoint,
		"sampling_ratio", s.tracing.GetSampling(),
	)
	return tp, nil
}

func otlpSpanExporter(ctx context.Context, t Target) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(t.Endpoint)}
	if t.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exp, nil
}
