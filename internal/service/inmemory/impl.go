// Package inmemory provides an in-memory implementation of the RegistryService interface
package inmemory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stackb/bcr-api/internal/otel"
	"github.com/stackb/bcr-api/internal/registry"
	"github.com/stackb/bcr-api/internal/service"
)

// TracerName is the name used for the service tracer
const TracerName = "github.com/stackb/bcr-api/service"

// regSvc implements the RegistryService interface over a shared registry snapshot
type regSvc struct {
	provider service.RegistryProvider
	tracer   trace.Tracer
}

var _ service.RegistryService = (*regSvc)(nil)

// Option is a functional option for configuring the regSvc
type Option func(*regSvc)

// WithTracerProvider records a span per query
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *regSvc) {
		if tp != nil {
			s.tracer = tp.Tracer(TracerName)
		}
	}
}

// New creates a new registry service reading from provider
func New(provider service.RegistryProvider, opts ...Option) (service.RegistryService, error) {
	if provider == nil {
		return nil, fmt.Errorf("registry provider is required")
	}

	s := &regSvc{provider: provider}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckReadiness implements RegistryService.CheckReadiness
func (s *regSvc) CheckReadiness(ctx context.Context) (time.Time, error) {
	if !s.provider.Loaded() {
		if _, err := s.provider.Get(ctx); err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", service.ErrNotReady, err)
		}
	}
	return s.provider.LoadedAt(), nil
}

// ListModules implements RegistryService.ListModules
func (s *regSvc) ListModules(ctx context.Context) ([]service.ModuleSummary, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "regSvc.ListModules")
	defer span.End()

	reg, err := s.provider.Get(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	summaries := make([]service.ModuleSummary, 0, len(reg.Modules))
	for _, m := range reg.Modules {
		summaries = append(summaries, service.NewModuleSummary(m))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(summaries)))
	return summaries, nil
}

// GetModule implements RegistryService.GetModule
func (s *regSvc) GetModule(ctx context.Context, name string) (*registry.Module, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "regSvc.GetModule",
		trace.WithAttributes(otel.AttrModuleName.String(name)),
	)
	defer span.End()

	reg, err := s.provider.Get(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	// Names are not guaranteed unique; the first match wins
	for _, m := range reg.Modules {
		if m.Name == name {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", service.ErrModuleNotFound, name)
}

// SearchModules implements RegistryService.SearchModules
func (s *regSvc) SearchModules(ctx context.Context, query string) ([]service.ModuleSummary, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "regSvc.SearchModules",
		trace.WithAttributes(otel.AttrSearchQuery.String(query)),
	)
	defer span.End()

	reg, err := s.provider.Get(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	needle := strings.ToLower(query)
	results := make([]service.ModuleSummary, 0, service.SearchResultLimit)
	for _, m := range reg.Modules {
		if len(results) == service.SearchResultLimit {
			break
		}
		if matchesQuery(m, needle) {
			results = append(results, service.NewModuleSummary(m))
		}
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(results)))
	return results, nil
}

// matchesQuery reports whether the lowercased needle occurs in the module's name or description.
// A module without repository metadata can only match by name.
func matchesQuery(m *registry.Module, needle string) bool {
	if strings.Contains(strings.ToLower(m.Name), needle) {
		return true
	}
	if !m.HasRepositoryMetadata() {
		return false
	}
	return strings.Contains(strings.ToLower(m.RepositoryMetadata.Description), needle)
}

// GetRegistryInfo implements RegistryService.GetRegistryInfo
func (s *regSvc) GetRegistryInfo(ctx context.Context) (*service.RegistryInfo, error) {
	reg, err := s.GetRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return &service.RegistryInfo{
		RegistryURL: reg.RegistryURL,
		ModuleCount: len(reg.Modules),
	}, nil
}

// GetRegistry implements RegistryService.GetRegistry
func (s *regSvc) GetRegistry(ctx context.Context) (*registry.Registry, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "regSvc.GetRegistry")
	defer span.End()

	reg, err := s.provider.Get(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrModuleCount.Int(len(reg.Modules)))
	return reg, nil
}
