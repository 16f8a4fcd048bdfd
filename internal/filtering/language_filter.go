package filtering

import (
	"fmt"
	"strings"
)

// LanguageFilter filters modules by the languages reported for their source repository
type LanguageFilter interface {
	// ShouldInclude determines if a module with the given languages should be included
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(languages []string, include, exclude []string) (bool, string)
}

// DefaultLanguageFilter matches language names case-insensitively
type DefaultLanguageFilter struct{}

// NewDefaultLanguageFilter creates a new DefaultLanguageFilter
func NewDefaultLanguageFilter() *DefaultLanguageFilter {
	return &DefaultLanguageFilter{}
}

// ShouldInclude determines if a module with the given languages should be included.
// A module without repository metadata has no languages and only passes when no include list is set.
func (*DefaultLanguageFilter) ShouldInclude(languages []string, include, exclude []string) (bool, string) {
	if lang, ok := firstMatch(languages, exclude); ok {
		return false, fmt.Sprintf("excluded by language '%s'", lang)
	}

	if len(include) > 0 {
		if lang, ok := firstMatch(languages, include); ok {
			return true, fmt.Sprintf("included by language '%s'", lang)
		}
		return false, fmt.Sprintf("no matching language in include list %v (module languages: %v)", include, languages)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no matching language in exclude list %v (module languages: %v)", exclude, languages)
	}
	return true, "no language filters specified"
}

func firstMatch(languages, list []string) (string, bool) {
	for _, lang := range languages {
		for _, candidate := range list {
			if strings.EqualFold(lang, candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}
