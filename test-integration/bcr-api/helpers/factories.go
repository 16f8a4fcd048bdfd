// Package helpers provides utilities for the BCR API integration tests.
package helpers

import (
	"fmt"

	"github.com/stackb/bcr-api/internal/registry"
)

// CreateTestRegistry builds a small registry with a realistic mix of modules
func CreateTestRegistry() *registry.Registry {
	return registry.NewTestRegistry(
		registry.WithRegistryURL("https://bcr.bazel.build"),
		registry.WithModules(
			registry.NewTestModule("rules_go",
				registry.WithVersions("0.50.1", "0.50.0", "0.49.0"),
				registry.WithDescription("Go rules for Bazel"),
				registry.WithDeps(&registry.ModuleDependency{Name: "platforms", Version: "0.0.10"}),
				registry.WithYankedVersion("0.50.0", "broken release"),
			),
			registry.NewTestModule("rules_cc",
				registry.WithVersions("0.1.1"),
				registry.WithDescription("C++ Rules for Bazel"),
			),
			registry.NewTestModule("gazelle",
				registry.WithVersions("0.39.1"),
				registry.WithDescription("Gazelle is a Bazel build file generator for Go projects"),
			),
			registry.NewTestModule("zlib",
				registry.WithVersions("1.3.1.bcr.3"),
				registry.WithoutRepositoryMetadata(),
			),
			registry.NewTestModule("platforms",
				registry.WithVersions("0.0.10"),
				registry.WithDescription("Constraint values for specifying platforms"),
			),
		),
	)
}

// CreateLargeRegistry builds a registry with count modules that all match the query "lib"
func CreateLargeRegistry(count int) *registry.Registry {
	modules := make([]*registry.Module, 0, count)
	for i := range count {
		modules = append(modules, registry.NewTestModule(fmt.Sprintf("lib_%03d", i)))
	}
	return registry.NewTestRegistry(registry.WithModules(modules...))
}
