// Package v1 provides the REST API handlers for registry queries.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackb/bcr-api/internal/api/common"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/internal/versions"
)

// moduleNotFoundMessage is the body of 404 responses for unknown modules
const moduleNotFoundMessage = "Module not found"

// Routes defines the routes for the registry API with dependency injection
type Routes struct {
	service service.RegistryService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.RegistryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the registry API
func Router(svc service.RegistryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.NotFound(common.NotFound)
	r.MethodNotAllowed(common.MethodNotAllowed)

	r.Get("/modules", routes.listModules)
	r.Get("/modules/{name}", routes.getModule)
	r.Get("/search", routes.searchModules)
	r.Get("/registry", routes.getRegistry)
	r.Get("/version", versionHandler)

	return r
}

// listModules handles GET /api/modules
func (rr *Routes) listModules(w http.ResponseWriter, r *http.Request) {
	modules, err := rr.service.ListModules(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteNegotiatedResponse(w, r, modules)
}

// getModule handles GET /api/modules/{name}
func (rr *Routes) getModule(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	module, err := rr.service.GetModule(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteNegotiatedResponse(w, r, module)
}

// searchModules handles GET /api/search?q=
func (rr *Routes) searchModules(w http.ResponseWriter, r *http.Request) {
	results, err := rr.service.SearchModules(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteNegotiatedResponse(w, r, results)
}

// getRegistry handles GET /api/registry.
// Binary clients receive the full snapshot; JSON clients receive a summary.
func (rr *Routes) getRegistry(w http.ResponseWriter, r *http.Request) {
	if common.AcceptsProtobuf(r) {
		reg, err := rr.service.GetRegistry(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		common.WriteNegotiatedResponse(w, r, reg)
		return
	}

	info, err := rr.service.GetRegistryInfo(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteNegotiatedResponse(w, r, info)
}

// versionHandler handles GET /api/version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// writeServiceError maps service errors to HTTP responses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrModuleNotFound) {
		common.WriteErrorResponse(w, moduleNotFoundMessage, http.StatusNotFound)
		return
	}

	slog.ErrorContext(r.Context(), "Registry query failed",
		"path", r.URL.Path,
		"error", err,
	)
	common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
}
