package filtering

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/registry"
)

// FilterService coordinates name and language filtering to apply registry filters
type FilterService interface {
	// ApplyFilters returns a registry holding only the modules that pass filter
	ApplyFilters(ctx context.Context, reg *registry.Registry, filter *config.FilterConfig) (*registry.Registry, error)
}

// defaultFilterService implements filtering coordination using name and language filters
type defaultFilterService struct {
	nameFilter     NameFilter
	languageFilter LanguageFilter
}

// NewDefaultFilterService creates a new defaultFilterService with default filter implementations
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter:     NewDefaultNameFilter(),
		languageFilter: NewDefaultLanguageFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with custom filter implementations
func NewFilterService(nameFilter NameFilter, languageFilter LanguageFilter) FilterService {
	return &defaultFilterService{
		nameFilter:     nameFilter,
		languageFilter: languageFilter,
	}
}

// ApplyFilters filters the registry based on filter configuration.
// Without a filter the input registry is returned unchanged.
// Module order is preserved.
func (s *defaultFilterService) ApplyFilters(
	ctx context.Context,
	reg *registry.Registry,
	filter *config.FilterConfig,
) (*registry.Registry, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if filter == nil {
		return reg, nil
	}

	var nameInclude, nameExclude, langInclude, langExclude []string
	if filter.Names != nil {
		nameInclude = filter.Names.Include
		nameExclude = filter.Names.Exclude
	}
	if filter.Languages != nil {
		langInclude = filter.Languages.Include
		langExclude = filter.Languages.Exclude
	}

	filtered := &registry.Registry{
		RegistryURL: reg.RegistryURL,
		Modules:     make([]*registry.Module, 0, len(reg.Modules)),
	}

	excludedCount := 0
	for _, module := range reg.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		languages := moduleLanguages(module)
		included, reason := s.shouldIncludeModuleWithReason(
			module.Name,
			languages,
			nameInclude,
			nameExclude,
			langInclude,
			langExclude,
		)
		if included {
			filtered.Modules = append(filtered.Modules, module)
		} else {
			excludedCount++
		}
		slog.DebugContext(ctx, "Module filter decision",
			"name", module.Name,
			"languages", languages,
			"included", included,
			"reason", reason)
	}

	slog.InfoContext(ctx, "Registry filtering completed",
		"original_modules", len(reg.Modules),
		"included_modules", len(filtered.Modules),
		"excluded_modules", excludedCount)

	return filtered, nil
}

// shouldIncludeModuleWithReason determines if a module should be included and provides detailed reasoning.
// Both name and language filters must pass.
func (s *defaultFilterService) shouldIncludeModuleWithReason(
	name string,
	languages []string,
	nameInclude, nameExclude, langInclude, langExclude []string) (bool, string) {
	nameIncluded, nameReason := s.nameFilter.ShouldInclude(name, nameInclude, nameExclude)
	if !nameIncluded {
		return false, fmt.Sprintf("name filter: %s", nameReason)
	}

	langIncluded, langReason := s.languageFilter.ShouldInclude(languages, langInclude, langExclude)
	if !langIncluded {
		return false, fmt.Sprintf("language filter: %s", langReason)
	}

	inclusionReasons := []string{}
	if len(nameInclude) > 0 || len(nameExclude) > 0 {
		inclusionReasons = append(inclusionReasons, fmt.Sprintf("name filter: %s", nameReason))
	}
	if len(langInclude) > 0 || len(langExclude) > 0 {
		inclusionReasons = append(inclusionReasons, fmt.Sprintf("language filter: %s", langReason))
	}

	if len(inclusionReasons) == 0 {
		return true, "no filters specified, default include"
	}

	return true, "passed all filters: " + strings.Join(inclusionReasons, " AND ")
}

// moduleLanguages returns the repository languages of a module, sorted by name
func moduleLanguages(m *registry.Module) []string {
	if !m.HasRepositoryMetadata() {
		return nil
	}
	languages := make([]string, 0, len(m.RepositoryMetadata.Languages))
	for lang := range m.RepositoryMetadata.Languages {
		languages = append(languages, lang)
	}
	slices.Sort(languages)
	return languages
}
