// Package service provides the query operations of the BCR API
package service

import (
	"context"
	"errors"
	"time"

	"github.com/stackb/bcr-api/internal/registry"
)

var (
	// ErrModuleNotFound is returned when no module has the requested name
	ErrModuleNotFound = errors.New("module not found")
	// ErrNotReady is returned by CheckReadiness while the registry cannot be loaded
	ErrNotReady = errors.New("registry not loaded")
)

// SearchResultLimit is the maximum number of modules returned by SearchModules
const SearchResultLimit = 20

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go RegistryService

// RegistryService defines the read operations over the cached registry.
// Every operation loads the registry first and fails with the load error on a cold, unreachable source.
type RegistryService interface {
	// CheckReadiness loads the registry if necessary and returns when it was loaded
	CheckReadiness(ctx context.Context) (time.Time, error)

	// ListModules returns a summary of every module in registry order
	ListModules(ctx context.Context) ([]ModuleSummary, error)

	// GetModule returns the first module whose name equals name exactly
	GetModule(ctx context.Context, name string) (*registry.Module, error)

	// SearchModules returns up to SearchResultLimit modules whose name or
	// description contains query, ignoring case, in registry order
	SearchModules(ctx context.Context, query string) ([]ModuleSummary, error)

	// GetRegistryInfo returns the registry URL and module count
	GetRegistryInfo(ctx context.Context) (*RegistryInfo, error)

	// GetRegistry returns the full registry snapshot
	GetRegistry(ctx context.Context) (*registry.Registry, error)
}

// ModuleSummary is the list and search projection of a module
type ModuleSummary struct {
	Name          string `json:"name"`
	LatestVersion string `json:"latest_version"`
	Description   string `json:"description"`
}

// NewModuleSummary projects m into a ModuleSummary
func NewModuleSummary(m *registry.Module) ModuleSummary {
	return ModuleSummary{
		Name:          m.Name,
		LatestVersion: m.LatestVersion(),
		Description:   m.Description(),
	}
}

// RegistryInfo summarizes the registry snapshot
type RegistryInfo struct {
	RegistryURL string `json:"registry_url"`
	ModuleCount int    `json:"module_count"`
}
