package app

import (
	"github.com/stackb/bcr-api/internal/service"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Registry loads and holds the registry snapshot
	Registry service.RegistryProvider

	// RegistryService answers registry queries
	RegistryService service.RegistryService
}
