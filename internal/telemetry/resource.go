package telemetry

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/stackb/bcr-api/internal/otel"
)

// Target is the OTLP collector that traces and metrics are pushed to
type Target struct {
	Endpoint string
	Insecure bool
}

// Target returns the collector address with defaults applied
func (c *Config) Target() Target {
	return Target{Endpoint: c.GetEndpoint(), Insecure: c.GetInsecure()}
}

// NewResource describes this process to the collector.
// registrySource is recorded as registry.source when non-empty, with any
// credentials or query string removed.
func NewResource(ctx context.Context, serviceName, serviceVersion, registrySource string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if serviceVersion == "" {
		serviceVersion = "unknown"
	}

	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	}
	if registrySource != "" {
		attrs = append(attrs, resource.WithAttributes(otel.AttrRegistrySource.String(redactSource(registrySource))))
	}

	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// redactSource drops userinfo and query parameters from URL sources.
// File paths are returned unchanged.
func redactSource(source string) string {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return source
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
