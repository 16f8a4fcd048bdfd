package sources

import (
	"fmt"
	"net/url"
	"time"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/httpclient"
)

// Option configures the sources created by NewRegistrySource
type Option func(*factoryConfig)

type factoryConfig struct {
	httpClient   httpclient.Client
	timeout      time.Duration
	decompressor *compress.Decompressor
}

// WithHTTPClient sets the client used by remote sources
func WithHTTPClient(client httpclient.Client) Option {
	return func(cfg *factoryConfig) {
		cfg.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout used by remote sources when no client is injected
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *factoryConfig) {
		cfg.timeout = timeout
	}
}

// WithDecompressor sets the decompressor used to inflate snapshots
func WithDecompressor(d *compress.Decompressor) Option {
	return func(cfg *factoryConfig) {
		cfg.decompressor = d
	}
}

// NewRegistrySource creates a source for location.
// http and https URLs are fetched remotely; file URLs and plain paths are read from disk.
func NewRegistrySource(location string, opts ...Option) (RegistrySource, error) {
	if location == "" {
		return nil, fmt.Errorf("registry location cannot be empty")
	}

	cfg := &factoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.decompressor == nil {
		cfg.decompressor = compress.NewDecompressor()
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid registry location %q: %w", location, err)
	}

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid registry location %q: missing host", location)
		}
		client := cfg.httpClient
		if client == nil {
			client = httpclient.NewDefaultClient(cfg.timeout)
		}
		return NewRemoteSource(location, client, cfg.decompressor), nil
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("invalid registry location %q: missing path", location)
		}
		return NewFileSource(path, cfg.decompressor), nil
	case "":
		return NewFileSource(location, cfg.decompressor), nil
	default:
		return nil, fmt.Errorf("unsupported registry location scheme: %s", u.Scheme)
	}
}
