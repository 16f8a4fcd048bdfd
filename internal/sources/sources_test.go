package sources

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/httpclient"
	"github.com/stackb/bcr-api/internal/httpclient/mocks"
	"github.com/stackb/bcr-api/internal/registry"
)

const testURL = "https://bcr.example.com/registry.pb.gz"

func gzipSnapshot(t *testing.T, reg *registry.Registry) []byte {
	t.Helper()
	raw, err := reg.MarshalBinary()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstdSnapshot(t *testing.T, reg *registry.Registry) []byte {
	t.Helper()
	raw, err := reg.MarshalBinary()
	require.NoError(t, err)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(raw, nil)
}

func TestRemoteSource_FetchRegistry(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry(registry.WithModules(
		registry.NewTestModule("rules_go"),
		registry.NewTestModule("zlib", registry.WithoutRepositoryMetadata()),
	))

	tests := []struct {
		name        string
		setupMock   func(*testing.T, *mocks.MockClient)
		wantErr     error
		wantModules int
		wantFormat  compress.Format
	}{
		{
			name: "gzip snapshot",
			setupMock: func(t *testing.T, m *mocks.MockClient) {
				t.Helper()
				m.EXPECT().Get(gomock.Any(), testURL).Return(gzipSnapshot(t, reg), nil).Times(1)
			},
			wantModules: 2,
			wantFormat:  compress.FormatGzip,
		},
		{
			name: "zstd snapshot",
			setupMock: func(t *testing.T, m *mocks.MockClient) {
				t.Helper()
				m.EXPECT().Get(gomock.Any(), testURL).Return(zstdSnapshot(t, reg), nil).Times(1)
			},
			wantModules: 2,
			wantFormat:  compress.FormatZstd,
		},
		{
			name: "network failure",
			setupMock: func(_ *testing.T, m *mocks.MockClient) {
				m.EXPECT().Get(gomock.Any(), testURL).
					Return(nil, httpclient.NewHTTPError(502, testURL)).Times(1)
			},
			wantErr: httpclient.ErrNetwork,
		},
		{
			name: "corrupt compressed blob",
			setupMock: func(_ *testing.T, m *mocks.MockClient) {
				m.EXPECT().Get(gomock.Any(), testURL).Return([]byte("not compressed"), nil).Times(1)
			},
			wantErr: compress.ErrDecompression,
		},
		{
			name: "malformed registry document",
			setupMock: func(t *testing.T, m *mocks.MockClient) {
				t.Helper()
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				_, err := w.Write([]byte{0x00})
				require.NoError(t, err)
				require.NoError(t, w.Close())
				m.EXPECT().Get(gomock.Any(), testURL).Return(buf.Bytes(), nil).Times(1)
			},
			wantErr: registry.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			tt.setupMock(t, client)

			source := NewRemoteSource(testURL, client, nil)
			result, err := source.FetchRegistry(context.Background())

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, reg, result.Registry)
			assert.Equal(t, tt.wantModules, result.ModuleCount)
			assert.Equal(t, tt.wantFormat, result.Format)
			assert.Len(t, result.Hash, 64)
			assert.Positive(t, result.CompressedSize)
		})
	}
}

func TestFileSource_FetchRegistry(t *testing.T) {
	t.Parallel()

	reg := registry.NewTestRegistry(registry.WithModules(registry.NewTestModule("platforms")))
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.pb.gz")
	require.NoError(t, os.WriteFile(path, gzipSnapshot(t, reg), 0o600))

	t.Run("reads snapshot", func(t *testing.T) {
		t.Parallel()
		source := NewFileSource(path, nil)
		result, err := source.FetchRegistry(context.Background())
		require.NoError(t, err)
		assert.Equal(t, reg, result.Registry)
		assert.Equal(t, 1, result.ModuleCount)
		assert.Equal(t, "file:"+path, source.GetSource())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(dir, "missing.pb.gz")
		source := NewFileSource(missing, nil)
		_, err := source.FetchRegistry(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file not found")
		assert.Contains(t, err.Error(), missing)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewFileSource(path, nil).FetchRegistry(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestNewRegistrySource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		location   string
		wantErr    string
		wantSource string
	}{
		{
			name:       "https url",
			location:   "https://bcr.stack.build/registry.pb.gz",
			wantSource: "remote:https://bcr.stack.build/registry.pb.gz",
		},
		{
			name:       "http url",
			location:   "http://localhost:8000/registry.pb.gz",
			wantSource: "remote:http://localhost:8000/registry.pb.gz",
		},
		{
			name:       "file url",
			location:   "file:///data/registry.pb.gz",
			wantSource: "file:/data/registry.pb.gz",
		},
		{
			name:       "plain path",
			location:   "./testdata/registry.pb.gz",
			wantSource: "file:./testdata/registry.pb.gz",
		},
		{
			name:     "empty location",
			location: "",
			wantErr:  "cannot be empty",
		},
		{
			name:     "unsupported scheme",
			location: "s3://bucket/registry.pb.gz",
			wantErr:  "unsupported registry location scheme: s3",
		},
		{
			name:     "missing host",
			location: "https:///registry.pb.gz",
			wantErr:  "missing host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			source, err := NewRegistrySource(tt.location)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, source)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, source.GetSource())
		})
	}
}

func TestNewRegistrySource_WithHTTPClient(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	reg := registry.NewTestRegistry()
	client.EXPECT().Get(gomock.Any(), testURL).Return(gzipSnapshot(t, reg), nil).Times(1)

	source, err := NewRegistrySource(testURL, WithHTTPClient(client), WithDecompressor(compress.NewDecompressor()))
	require.NoError(t, err)

	result, err := source.FetchRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ModuleCount)
}
