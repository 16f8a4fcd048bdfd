package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stackb/bcr-api/internal/api/common"
	"github.com/stackb/bcr-api/internal/service"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.RegistryService) http.Handler {
	r := chi.NewRouter()
	r.NotFound(common.NotFound)
	r.MethodNotAllowed(common.MethodNotAllowed)

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the registry is loaded, along with when it was loaded.
// A request against a cold cache triggers the load.
func readinessHandler(svc service.RegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadedAt, err := svc.CheckReadiness(r.Context())
		if err != nil {
			common.WriteErrorResponse(w, "registry service not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		resp := HealthResponse{Status: "ready"}
		if !loadedAt.IsZero() {
			utc := loadedAt.UTC()
			resp.LoadedAt = &utc
		}
		common.WriteJSONResponse(w, resp, http.StatusOK)
	}
}
