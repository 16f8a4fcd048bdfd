package sources

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=types.go RegistrySource

// RegistrySource fetches, decompresses and decodes a registry snapshot
type RegistrySource interface {
	// FetchRegistry runs the population pipeline once and returns the decoded snapshot.
	// Errors match httpclient.ErrNetwork, compress.ErrDecompression or registry.ErrDecode.
	FetchRegistry(ctx context.Context) (*FetchResult, error)

	// GetSource returns a descriptive string about where the registry data comes from.
	// Examples: "file:/data/registry.pb.gz", "remote:https://bcr.stack.build/registry.pb.gz"
	GetSource() string
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Registry is the decoded snapshot
	Registry *registry.Registry

	// Hash is the SHA256 hash of the compressed blob
	Hash string

	// ModuleCount is the number of modules in the snapshot
	ModuleCount int

	// Format is the compression format the snapshot was published in
	Format compress.Format

	// CompressedSize is the size of the blob before inflation
	CompressedSize int
}

// decodeSnapshot inflates and decodes a compressed snapshot
func decodeSnapshot(blob []byte, decompressor *compress.Decompressor) (*FetchResult, error) {
	raw, err := decompressor.Inflate(blob)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Decode(raw)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Registry:       reg,
		Hash:           fmt.Sprintf("%x", sha256.Sum256(blob)),
		ModuleCount:    len(reg.Modules),
		Format:         compress.DetectFormat(blob),
		CompressedSize: len(blob),
	}, nil
}
