// Package filtering restricts the modules of a registry snapshot.
//
// Two filters are combined:
//
//   - NameFilter: matches module names against glob patterns
//   - LanguageFilter: matches the languages of a module's source repository
//
// Both follow the same precedence rules:
//
//  1. If exclude patterns match -> exclude (precedence)
//  2. If include patterns are specified and match -> include
//  3. If include patterns are specified but none match -> exclude
//  4. If only exclude patterns are specified and none match -> include
//  5. If no filters are specified -> include
//
// A module is kept only when it passes both filters.
//
//	service := NewDefaultFilterService()
//	filter := &config.FilterConfig{
//		Names: &config.NameFilterConfig{
//			Include: []string{"rules_*"},
//			Exclude: []string{"*_experimental"},
//		},
//		Languages: &config.LanguageFilterConfig{
//			Include: []string{"Go"},
//		},
//	}
//
//	filtered, err := service.ApplyFilters(ctx, reg, filter)
//
// The input registry is never modified; the result shares its module values.
package filtering
