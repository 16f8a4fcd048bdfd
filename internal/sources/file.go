package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/stackb/bcr-api/internal/compress"
)

// FileSource reads a registry snapshot from the local filesystem
type FileSource struct {
	path         string
	decompressor *compress.Decompressor
}

var _ RegistrySource = (*FileSource)(nil)

// NewFileSource creates a source for the snapshot stored at path
func NewFileSource(path string, decompressor *compress.Decompressor) *FileSource {
	if decompressor == nil {
		decompressor = compress.NewDecompressor()
	}
	return &FileSource{
		path:         path,
		decompressor: decompressor,
	}
}

// FetchRegistry reads, inflates and decodes the snapshot
func (s *FileSource) FetchRegistry(ctx context.Context) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Reading registry snapshot", "path", s.path)

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", s.path, err)
	}

	result, err := decodeSnapshot(blob, s.decompressor)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry from %s: %w", s.path, err)
	}

	return result, nil
}

// GetSource returns the file location of the snapshot
func (s *FileSource) GetSource() string {
	return "file:" + s.path
}
