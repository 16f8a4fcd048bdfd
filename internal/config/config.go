// Package config provides configuration loading and management for the BCR API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/stackb/bcr-api/internal/registry"
	"github.com/stackb/bcr-api/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables that override configuration values,
	// e.g. BCR_API_REGISTRY_URL
	EnvPrefix = "BCR_API"

	// DefaultAddress is the address the server listens on when none is configured
	DefaultAddress = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Address is the listen address of the HTTP server
	Address string `yaml:"address,omitempty"`

	Registry  RegistryConfig    `yaml:"registry"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// RegistryConfig defines where the registry snapshot is loaded from
type RegistryConfig struct {
	// URL is an http(s):// or file:// location, or a bare file path.
	// Defaults to the published BCR snapshot.
	URL string `yaml:"url,omitempty"`

	// Timeout bounds the snapshot download (e.g. "30s"). Zero or empty means no client timeout.
	Timeout string `yaml:"timeout,omitempty"`

	// Prefetch loads the registry at start-up instead of on the first request
	Prefetch bool `yaml:"prefetch,omitempty"`

	// Filter restricts the modules served from the snapshot
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig defines filtering rules for registry modules
type FilterConfig struct {
	Names     *NameFilterConfig     `yaml:"names,omitempty"`
	Languages *LanguageFilterConfig `yaml:"languages,omitempty"`
}

// NameFilterConfig defines glob-based module name filtering
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// LanguageFilterConfig filters modules by the languages of their source repository
type LanguageFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// NewDefaultConfig returns the configuration used when no file is given
func NewDefaultConfig() *Config {
	return &Config{
		Address: DefaultAddress,
		Registry: RegistryConfig{
			URL: registry.DefaultRegistryURL,
		},
	}
}

// LoadConfig loads configuration from the given options.
// Without WithConfigPath the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	config := NewDefaultConfig()
	if loaderCfg.path == "" {
		return config, nil
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if _, err := c.Registry.GetTimeout(); err != nil {
		return err
	}

	if err := c.Registry.Filter.validate(); err != nil {
		return err
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

// GetAddress returns the listen address, using DefaultAddress if not specified
func (c *Config) GetAddress() string {
	if c.Address == "" {
		return DefaultAddress
	}
	return c.Address
}

// GetURL returns the registry location, using the published snapshot if not specified
func (r *RegistryConfig) GetURL() string {
	if r.URL == "" {
		return registry.DefaultRegistryURL
	}
	return r.URL
}

// GetTimeout parses the download timeout. An empty value means no timeout.
func (r *RegistryConfig) GetTimeout() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}

	timeout, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("registry.timeout must be a valid duration (e.g., '30s', '2m'): %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("registry.timeout must not be negative, got %s", r.Timeout)
	}
	return timeout, nil
}

func (f *FilterConfig) validate() error {
	if f == nil || f.Names == nil {
		return nil
	}

	for _, pattern := range append(slices.Clone(f.Names.Include), f.Names.Exclude...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("registry.filter.names: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}
