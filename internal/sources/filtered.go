package sources

import (
	"context"
	"fmt"

	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/filtering"
)

// FilteredSource applies module filters to the snapshots of another source
type FilteredSource struct {
	source        RegistrySource
	filterService filtering.FilterService
	filter        *config.FilterConfig
}

var _ RegistrySource = (*FilteredSource)(nil)

// NewFilteredSource wraps source so every fetched snapshot is passed through filter
func NewFilteredSource(
	source RegistrySource,
	filterService filtering.FilterService,
	filter *config.FilterConfig,
) *FilteredSource {
	if filterService == nil {
		filterService = filtering.NewDefaultFilterService()
	}
	return &FilteredSource{
		source:        source,
		filterService: filterService,
		filter:        filter,
	}
}

// FetchRegistry fetches from the wrapped source and filters the result.
// Errors of the wrapped source are returned as is.
func (s *FilteredSource) FetchRegistry(ctx context.Context) (*FetchResult, error) {
	result, err := s.source.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}

	filtered, err := s.filterService.ApplyFilters(ctx, result.Registry, s.filter)
	if err != nil {
		return nil, fmt.Errorf("failed to apply registry filters: %w", err)
	}

	out := *result
	out.Registry = filtered
	out.ModuleCount = len(filtered.Modules)
	return &out, nil
}

// GetSource returns the location of the wrapped source
func (s *FilteredSource) GetSource() string {
	return s.source.GetSource()
}
