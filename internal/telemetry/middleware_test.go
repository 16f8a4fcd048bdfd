package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

// collectHTTPMetrics returns the metrics of the HTTP scope keyed by instrument name
func collectHTTPMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != HTTPMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestNewHTTPMetrics(t *testing.T) {
	t.Parallel()

	metrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	_, mp := newManualMeterProvider(t)
	metrics, err = NewHTTPMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.requestDuration)
	assert.NotNil(t, metrics.requestsTotal)
	assert.NotNil(t, metrics.activeRequests)
}

func TestHTTPMetrics_NilPassThrough(t *testing.T) {
	t.Parallel()

	var metrics *HTTPMetrics
	wrapped := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/modules", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		path          string
		status        int
		expectedRoute string
		expectedCode  string
	}{
		{
			name:          "module lookup",
			path:          "/api/modules/rules_go",
			status:        http.StatusOK,
			expectedRoute: "/api/modules/{name}",
			expectedCode:  "200",
		},
		{
			name:          "unknown module",
			path:          "/api/modules/rules_rust",
			status:        http.StatusNotFound,
			expectedRoute: "/api/modules/{name}",
			expectedCode:  "404",
		},
		{
			name:          "registry load failure",
			path:          "/api/search?q=go",
			status:        http.StatusInternalServerError,
			expectedRoute: "/api/search",
			expectedCode:  "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reader, mp := newManualMeterProvider(t)
			metrics, err := NewHTTPMetrics(mp)
			require.NoError(t, err)

			handler := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tt.status) }
			r := chi.NewRouter()
			r.Use(metrics.Middleware)
			r.Get("/api/modules/{name}", handler)
			r.Get("/api/search", handler)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rr.Code)

			found := collectHTTPMetrics(t, reader)
			require.Contains(t, found, "bcr_api_http_requests_total")
			require.Contains(t, found, "bcr_api_http_request_duration_seconds")
			require.Contains(t, found, "bcr_api_http_active_requests")

			sum, ok := found["bcr_api_http_requests_total"].Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			dp := sum.DataPoints[0]
			assert.Equal(t, int64(1), dp.Value)

			route, _ := dp.Attributes.Value(attribute.Key("route"))
			assert.Equal(t, tt.expectedRoute, route.AsString())
			code, _ := dp.Attributes.Value(attribute.Key("status_code"))
			assert.Equal(t, tt.expectedCode, code.AsString())
			method, _ := dp.Attributes.Value(attribute.Key("method"))
			assert.Equal(t, http.MethodGet, method.AsString())

			active, ok := found["bcr_api_http_active_requests"].Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, active.DataPoints, 1)
			assert.Equal(t, int64(0), active.DataPoints[0].Value)
		})
	}
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeterProvider(t)
	metrics, err := NewHTTPMetrics(mp)
	require.NoError(t, err)

	wrapped := metrics.Middleware(http.NotFoundHandler())
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/modules/a/b", nil))

	sum, ok := collectHTTPMetrics(t, reader)["bcr_api_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("route"))
	assert.Equal(t, unknownRoute, route.AsString())
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	mw, err := MetricsMiddleware(nil)
	require.NoError(t, err)
	require.NotNil(t, mw)

	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	mw, err = MetricsMiddleware(noop.NewMeterProvider())
	require.NoError(t, err)
	require.NotNil(t, mw)
}
