package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stackb/bcr-api/internal/api"
	"github.com/stackb/bcr-api/internal/cache"
	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/filtering"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/internal/service/inmemory"
	"github.com/stackb/bcr-api/internal/sources"
	"github.com/stackb/bcr-api/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig holds the builder state for a RegistryApp
// It supports dependency injection for testing while providing sensible defaults for production
type registryAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	source sources.RegistrySource

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	cfg := &registryAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.NewDefaultConfig()
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	return cfg, nil
}

// NewRegistryApp creates a new RegistryApp with the given options
func NewRegistryApp(
	ctx context.Context,
	opts ...RegistryAppOptions,
) (*RegistryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	registryCache, err := buildCacheComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache components: %w", err)
	}

	registryService, err := buildServiceComponents(ctx, cfg, registryCache)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, registryService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	return &RegistryApp{
		config: cfg.config,
		components: &AppComponents{
			Registry:        registryCache,
			RegistryService: registryService,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configured one
func WithAddress(addr string) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRegistrySource allows injecting a custom registry source (for testing)
func WithRegistrySource(s sources.RegistrySource) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.source = s
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and registry metrics
func WithMeterProvider(mp metric.MeterProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP, cache and query spans
func WithTracerProvider(tp trace.TracerProvider) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildCacheComponents builds the registry source and the cache in front of it
//
//nolint:unparam // we prefer having a similar interface
func buildCacheComponents(
	_ context.Context,
	b *registryAppConfig,
) (*cache.RegistryCache, error) {
	slog.Info("Initializing registry cache")

	if b.source == nil {
		timeout, err := b.config.Registry.GetTimeout()
		if err != nil {
			return nil, err
		}
		b.source, err = sources.NewRegistrySource(b.config.Registry.GetURL(), sources.WithTimeout(timeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create registry source: %w", err)
		}
	}

	if filter := b.config.Registry.Filter; filter != nil {
		b.source = sources.NewFilteredSource(b.source, filtering.NewDefaultFilterService(), filter)
		slog.Info("Registry filters enabled")
	}

	cacheOpts := []cache.Option{
		cache.WithTracerProvider(b.tracerProvider),
	}

	if b.meterProvider != nil {
		registryMetrics, err := telemetry.NewRegistryMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}
		if registryMetrics != nil {
			cacheOpts = append(cacheOpts, cache.WithMetrics(registryMetrics))
			slog.Info("Registry metrics enabled")
		}
	}

	registryCache := cache.New(b.source, cacheOpts...)
	slog.Info("Registry cache initialized", "source", registryCache.Source())

	return registryCache, nil
}

// buildServiceComponents builds the query service on top of the registry provider
//
//nolint:unparam // we prefer having a similar interface
func buildServiceComponents(
	_ context.Context,
	b *registryAppConfig,
	provider service.RegistryProvider,
) (service.RegistryService, error) {
	slog.Info("Initializing service components")

	svc, err := inmemory.New(provider, inmemory.WithTracerProvider(b.tracerProvider))
	if err != nil {
		return nil, fmt.Errorf("failed to create registry service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *registryAppConfig,
	svc service.RegistryService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing runs first so that metrics and logs see the request span
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}

	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
