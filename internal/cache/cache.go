// Package cache holds the process-wide registry snapshot.
//
// The first Get runs the source's fetch, inflate and decode pipeline and keeps
// the decoded registry for the rest of the process lifetime. Concurrent cold
// callers share a single population attempt. A failed attempt is not cached,
// so the next Get retries the whole pipeline.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/stackb/bcr-api/internal/otel"
	"github.com/stackb/bcr-api/internal/registry"
	"github.com/stackb/bcr-api/internal/sources"
	"github.com/stackb/bcr-api/internal/telemetry"
)

// TracerName is the name used for the cache tracer
const TracerName = "github.com/stackb/bcr-api/cache"

const populateKey = "registry"

// RegistryCache is a lazily populated, single-slot cache of the decoded registry
type RegistryCache struct {
	source  sources.RegistrySource
	current atomic.Pointer[snapshot]
	flight  singleflight.Group
	metrics *telemetry.RegistryMetrics
	tracer  trace.Tracer
}

type snapshot struct {
	registry *registry.Registry
	loadedAt time.Time
}

// Option configures a RegistryCache
type Option func(*RegistryCache)

// WithMetrics records population metrics
func WithMetrics(m *telemetry.RegistryMetrics) Option {
	return func(c *RegistryCache) {
		c.metrics = m
	}
}

// WithTracerProvider records a span for each population attempt
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *RegistryCache) {
		if tp != nil {
			c.tracer = tp.Tracer(TracerName)
		}
	}
}

// New creates an empty cache backed by source
func New(source sources.RegistrySource, opts ...Option) *RegistryCache {
	c := &RegistryCache{source: source}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached registry, populating the cache first if it is empty.
// The returned registry is shared and must not be modified. The span in ctx,
// if any, is tagged with cache.hit.
//
// If ctx ends while a population attempt is in flight, Get returns ctx.Err()
// and the attempt carries on for the benefit of later callers.
func (c *RegistryCache) Get(ctx context.Context) (*registry.Registry, error) {
	caller := trace.SpanFromContext(ctx)
	if snap := c.current.Load(); snap != nil {
		caller.SetAttributes(otel.AttrCacheHit.Bool(true))
		return snap.registry, nil
	}
	caller.SetAttributes(otel.AttrCacheHit.Bool(false))

	ch := c.flight.DoChan(populateKey, func() (any, error) {
		// A previous flight may have completed between the fast path and here
		if snap := c.current.Load(); snap != nil {
			return snap.registry, nil
		}
		return c.populate(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*registry.Registry), nil
	}
}

// Loaded reports whether the cache holds a registry
func (c *RegistryCache) Loaded() bool {
	return c.current.Load() != nil
}

// LoadedAt returns when the registry was populated, or the zero time if the cache is empty
func (c *RegistryCache) LoadedAt() time.Time {
	if snap := c.current.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// Source describes where the cache loads the registry from
func (c *RegistryCache) Source() string {
	return c.source.GetSource()
}

func (c *RegistryCache) populate(ctx context.Context) (*registry.Registry, error) {
	source := c.source.GetSource()
	ctx, span := otel.StartSpan(ctx, c.tracer, "RegistryCache.populate",
		trace.WithAttributes(otel.AttrRegistrySource.String(source)),
	)
	defer span.End()

	slog.InfoContext(ctx, "Loading registry", "source", source)
	start := time.Now()

	result, err := c.source.FetchRegistry(ctx)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordLoad(ctx, source, duration, false)
		otel.RecordError(span, err)
		slog.ErrorContext(ctx, "Failed to load registry",
			"source", source,
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	snap := &snapshot{
		registry: result.Registry,
		loadedAt: time.Now(),
	}
	c.current.Store(snap)

	c.metrics.RecordLoad(ctx, source, duration, true)
	c.metrics.RecordModulesTotal(ctx, source, int64(result.ModuleCount))
	span.SetAttributes(otel.AttrModuleCount.Int(result.ModuleCount))

	slog.InfoContext(ctx, "Registry loaded",
		"source", source,
		"modules", result.ModuleCount,
		"format", result.Format,
		"compressed_bytes", result.CompressedSize,
		"hash", result.Hash,
		"duration", duration,
	)

	return result.Registry, nil
}
