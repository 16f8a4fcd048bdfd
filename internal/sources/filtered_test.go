package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/registry"
)

func TestFilteredSource_FetchRegistry(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry(registry.WithModules(
		registry.NewTestModule("rules_go"),
		registry.NewTestModule("rules_cc"),
		registry.NewTestModule("zlib"),
	))

	path := filepath.Join(t.TempDir(), "registry.pb.gz")
	require.NoError(t, os.WriteFile(path, gzipSnapshot(t, reg), 0o600))

	inner := NewFileSource(path, nil)
	source := NewFilteredSource(inner, nil, &config.FilterConfig{
		Names: &config.NameFilterConfig{Include: []string{"rules_*"}},
	})

	result, err := source.FetchRegistry(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Registry.Modules, 2)
	assert.Equal(t, "rules_go", result.Registry.Modules[0].Name)
	assert.Equal(t, "rules_cc", result.Registry.Modules[1].Name)
	assert.Equal(t, 2, result.ModuleCount)
	assert.NotEmpty(t, result.Hash)
	assert.Equal(t, inner.GetSource(), source.GetSource())
}

func TestFilteredSource_PropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	source := NewFilteredSource(
		NewFileSource(filepath.Join(t.TempDir(), "missing.pb.gz"), nil),
		nil,
		&config.FilterConfig{},
	)

	result, err := source.FetchRegistry(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "file not found")
}
