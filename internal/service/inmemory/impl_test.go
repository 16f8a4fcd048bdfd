package inmemory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stackb/bcr-api/internal/registry"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/internal/service/mocks"
)

// newSearchRegistry returns the two-module registry used by the search and lookup tests
func newSearchRegistry() *registry.Registry {
	return registry.NewTestRegistry(registry.WithModules(
		registry.NewTestModule("abc", registry.WithDescription("Widget Foo")),
		registry.NewTestModule("xyz", registry.WithDescription("bar")),
	))
}

func newTestService(t *testing.T, reg *registry.Registry) service.RegistryService {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRegistryProvider(ctrl)
	provider.EXPECT().Get(gomock.Any()).Return(reg, nil).AnyTimes()

	svc, err := New(provider)
	require.NoError(t, err)
	return svc
}

func moduleNames(summaries []service.ModuleSummary) []string {
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	return names
}

func TestNew_RequiresProvider(t *testing.T) {
	t.Parallel()

	svc, err := New(nil)
	require.Error(t, err)
	assert.Nil(t, svc)
}

func TestListModules(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry(registry.WithModules(
		registry.NewTestModule("rules_go", registry.WithVersions("0.50.1", "0.50.0"), registry.WithDescription("Go rules")),
		registry.NewTestModule("empty", registry.WithVersions()),
		registry.NewTestModule("bare", registry.WithoutRepositoryMetadata()),
	))
	svc := newTestService(t, reg)

	summaries, err := svc.ListModules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []service.ModuleSummary{
		{Name: "rules_go", LatestVersion: "0.50.1", Description: "Go rules"},
		{Name: "empty", LatestVersion: "", Description: "empty module"},
		{Name: "bare", LatestVersion: "1.0.0", Description: ""},
	}, summaries)
}

func TestListModules_Uncapped(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry()
	for i := range 50 {
		reg.Modules = append(reg.Modules, registry.NewTestModule(fmt.Sprintf("module_%02d", i)))
	}
	svc := newTestService(t, reg)

	summaries, err := svc.ListModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, 50)
}

func TestGetModule(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newSearchRegistry())

	tests := []struct {
		name     string
		lookup   string
		wantErr  error
		wantDesc string
	}{
		{name: "exact match", lookup: "abc", wantDesc: "Widget Foo"},
		{name: "lookup is case sensitive", lookup: "ABC", wantErr: service.ErrModuleNotFound},
		{name: "no partial matches", lookup: "ab", wantErr: service.ErrModuleNotFound},
		{name: "empty name", lookup: "", wantErr: service.ErrModuleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := svc.GetModule(context.Background(), tt.lookup)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lookup, m.Name)
			assert.Equal(t, tt.wantDesc, m.Description())
		})
	}
}

func TestGetModule_DuplicateNamesReturnFirst(t *testing.T) {
	t.Parallel()

	first := registry.NewTestModule("dup", registry.WithDescription("first"))
	second := registry.NewTestModule("dup", registry.WithDescription("second"))
	svc := newTestService(t, registry.NewTestRegistry(registry.WithModules(first, second)))

	m, err := svc.GetModule(context.Background(), "dup")
	require.NoError(t, err)
	assert.Same(t, first, m)

	results, err := svc.SearchModules(context.Background(), "dup")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchModules(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newSearchRegistry())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "case insensitive description match", query: "foo", want: []string{"abc"}},
		{name: "case insensitive name match", query: "XYZ", want: []string{"xyz"}},
		{name: "no match", query: "zzz", want: []string{}},
		{name: "empty query matches everything", query: "", want: []string{"abc", "xyz"}},
		{name: "mixed case description", query: "wIdGeT", want: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results, err := svc.SearchModules(context.Background(), tt.query)
			require.NoError(t, err)
			require.NotNil(t, results)
			assert.Equal(t, tt.want, moduleNames(results))
		})
	}
}

func TestSearchModules_MissingMetadataIsNotADescriptionMatch(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry(registry.WithModules(
		registry.NewTestModule("zlib", registry.WithoutRepositoryMetadata()),
		registry.NewTestModule("bzip2", registry.WithDescription("compression library")),
	))
	svc := newTestService(t, reg)

	results, err := svc.SearchModules(context.Background(), "compression")
	require.NoError(t, err)
	assert.Equal(t, []string{"bzip2"}, moduleNames(results))

	results, err = svc.SearchModules(context.Background(), "zlib")
	require.NoError(t, err)
	assert.Equal(t, []service.ModuleSummary{{Name: "zlib", LatestVersion: "1.0.0", Description: ""}}, results)
}

func TestSearchModules_CapsResultsInRegistryOrder(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry()
	var want []string
	for i := range 25 {
		name := fmt.Sprintf("rules_%02d", i)
		reg.Modules = append(reg.Modules, registry.NewTestModule(name))
		if i < service.SearchResultLimit {
			want = append(want, name)
		}
	}
	reg.Modules = append(reg.Modules, registry.NewTestModule("platforms"))
	svc := newTestService(t, reg)

	results, err := svc.SearchModules(context.Background(), "RULES")
	require.NoError(t, err)
	assert.Equal(t, want, moduleNames(results))

	results, err = svc.SearchModules(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, results, service.SearchResultLimit)
}

func TestGetRegistryInfo(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newSearchRegistry())

	info, err := svc.GetRegistryInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &service.RegistryInfo{RegistryURL: "https://bcr.bazel.build", ModuleCount: 2}, info)

	reg, err := svc.GetRegistry(context.Background())
	require.NoError(t, err)
	assert.Len(t, reg.Modules, 2)
}

func TestOperationsPropagateLoadErrors(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("failed to fetch registry: connection refused")
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRegistryProvider(ctrl)
	provider.EXPECT().Get(gomock.Any()).Return(nil, loadErr).Times(5)

	svc, err := New(provider)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ListModules(ctx)
	assert.ErrorIs(t, err, loadErr)
	_, err = svc.GetModule(ctx, "abc")
	assert.ErrorIs(t, err, loadErr)
	assert.NotErrorIs(t, err, service.ErrModuleNotFound)
	_, err = svc.SearchModules(ctx, "abc")
	assert.ErrorIs(t, err, loadErr)
	_, err = svc.GetRegistryInfo(ctx)
	assert.ErrorIs(t, err, loadErr)
	_, err = svc.GetRegistry(ctx)
	assert.ErrorIs(t, err, loadErr)
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	loadedAt := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	t.Run("loaded registry is ready", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockRegistryProvider(ctrl)
		provider.EXPECT().Loaded().Return(true)
		provider.EXPECT().LoadedAt().Return(loadedAt)

		svc, err := New(provider)
		require.NoError(t, err)
		got, err := svc.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.Equal(t, loadedAt, got)
	})

	t.Run("cold registry loads on readiness check", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockRegistryProvider(ctrl)
		provider.EXPECT().Loaded().Return(false)
		provider.EXPECT().Get(gomock.Any()).Return(newSearchRegistry(), nil)
		provider.EXPECT().LoadedAt().Return(loadedAt)

		svc, err := New(provider)
		require.NoError(t, err)
		got, err := svc.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.Equal(t, loadedAt, got)
	})

	t.Run("unreachable registry is not ready", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockRegistryProvider(ctrl)
		provider.EXPECT().Loaded().Return(false)
		provider.EXPECT().Get(gomock.Any()).Return(nil, errors.New("boom"))

		svc, err := New(provider)
		require.NoError(t, err)
		got, err := svc.CheckReadiness(context.Background())
		require.ErrorIs(t, err, service.ErrNotReady)
		assert.True(t, got.IsZero())
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestQueriesRecordSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRegistryProvider(ctrl)
	provider.EXPECT().Get(gomock.Any()).Return(newSearchRegistry(), nil).AnyTimes()

	svc, err := New(provider, WithTracerProvider(tp))
	require.NoError(t, err)

	_, err = svc.SearchModules(context.Background(), "foo")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "regSvc.SearchModules", spans[0].Name)

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "foo", attrs["search.query"])
	assert.Equal(t, int64(1), attrs["result.count"])
}
