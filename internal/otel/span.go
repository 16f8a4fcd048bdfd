// Package otel provides tracing helpers shared by the cache, service and API layers.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to spans across the application
const (
	AttrRegistrySource = attribute.Key("registry.source")
	AttrModuleCount    = attribute.Key("registry.module_count")
	AttrModuleName     = attribute.Key("module.name")
	AttrSearchQuery    = attribute.Key("search.query")
	AttrResultCount    = attribute.Key("result.count")
	AttrCacheHit       = attribute.Key("cache.hit")
	AttrResponseFormat = attribute.Key("response.format")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise it returns the span already in ctx
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span as failed.
// The status description stays generic; the error text is only kept in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
