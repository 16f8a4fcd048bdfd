package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/httpclient"
)

// RemoteSource fetches a registry snapshot over HTTP
type RemoteSource struct {
	url          string
	httpClient   httpclient.Client
	decompressor *compress.Decompressor
}

var _ RegistrySource = (*RemoteSource)(nil)

// NewRemoteSource creates a source for the snapshot at url
func NewRemoteSource(url string, httpClient httpclient.Client, decompressor *compress.Decompressor) *RemoteSource {
	if httpClient == nil {
		httpClient = httpclient.NewDefaultClient(0)
	}
	if decompressor == nil {
		decompressor = compress.NewDecompressor()
	}
	return &RemoteSource{
		url:          url,
		httpClient:   httpClient,
		decompressor: decompressor,
	}
}

// FetchRegistry downloads, inflates and decodes the snapshot
func (s *RemoteSource) FetchRegistry(ctx context.Context) (*FetchResult, error) {
	slog.DebugContext(ctx, "Fetching registry snapshot", "url", s.url)

	blob, err := s.httpClient.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry from %s: %w", s.url, err)
	}

	result, err := decodeSnapshot(blob, s.decompressor)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry from %s: %w", s.url, err)
	}

	return result, nil
}

// GetSource returns the remote location of the snapshot
func (s *RemoteSource) GetSource() string {
	return "remote:" + s.url
}
