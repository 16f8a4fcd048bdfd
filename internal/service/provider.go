package service

import (
	"context"
	"time"

	"github.com/stackb/bcr-api/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go RegistryProvider

// RegistryProvider hands out the shared registry snapshot.
// cache.RegistryCache is the production implementation.
type RegistryProvider interface {
	// Get returns the registry, loading it on first use
	Get(ctx context.Context) (*registry.Registry, error)

	// Loaded reports whether the registry has been loaded
	Loaded() bool

	// LoadedAt returns when the registry was loaded, or the zero time if it has not been
	LoadedAt() time.Time

	// Source returns a descriptive string about where the registry data comes from
	Source() string
}
