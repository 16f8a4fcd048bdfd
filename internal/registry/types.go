package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultRegistryURL is the location of the published Bazel Central Registry snapshot
const DefaultRegistryURL = "https://bcr.stack.build/registry.pb.gz"

// Registry is a decoded registry snapshot
type Registry struct {
	RegistryURL string    `json:"registry_url"`
	Modules     []*Module `json:"modules"`
}

// Module is a named Bazel module and its published versions.
// Versions are ordered newest first; the first entry is treated as the latest release.
type Module struct {
	Name               string              `json:"name"`
	Versions           []*ModuleVersion    `json:"versions"`
	RepositoryMetadata *RepositoryMetadata `json:"repository_metadata,omitempty"`
	Homepage           string              `json:"homepage,omitempty"`
	Repository         []string            `json:"repository,omitempty"`
	Deprecated         string              `json:"deprecated,omitempty"`
	YankedVersions     map[string]string   `json:"yanked_versions,omitempty"`
}

// ModuleVersion is a single published version of a module
type ModuleVersion struct {
	Version            string              `json:"version"`
	CompatibilityLevel int32               `json:"compatibility_level,omitempty"`
	RepoName           string              `json:"repo_name,omitempty"`
	BazelCompatibility []string            `json:"bazel_compatibility,omitempty"`
	Deps               []*ModuleDependency `json:"deps,omitempty"`
	Yanked             bool                `json:"yanked,omitempty"`
}

// ModuleDependency is a bazel_dep declared in a MODULE.bazel file
type ModuleDependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Dev     bool   `json:"dev,omitempty"`
}

// RepositoryMetadata describes the source repository backing a module
type RepositoryMetadata struct {
	Type         RepositoryType   `json:"type"`
	Organization string           `json:"organization,omitempty"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Stargazers   int32            `json:"stargazers,omitempty"`
	Languages    map[string]int32 `json:"languages,omitempty"`
}

// RepositoryType identifies the hosting service of a repository
type RepositoryType int32

// Known repository types
const (
	RepositoryTypeUnknown RepositoryType = 0
	RepositoryTypeGitHub  RepositoryType = 1
)

var repositoryTypeNames = map[RepositoryType]string{
	RepositoryTypeUnknown: "REPOSITORY_TYPE_UNKNOWN",
	RepositoryTypeGitHub:  "GITHUB",
}

// String returns the enum value name
func (t RepositoryType) String() string {
	if name, ok := repositoryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RepositoryType(%d)", int32(t))
}

// MarshalText implements encoding.TextMarshaler
func (t RepositoryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *RepositoryType) UnmarshalText(text []byte) error {
	for value, name := range repositoryTypeNames {
		if strings.EqualFold(name, string(text)) {
			*t = value
			return nil
		}
	}
	return fmt.Errorf("unknown repository type: %q", text)
}

// MarshalJSON renders missing repeated fields as empty arrays
func (r *Registry) MarshalJSON() ([]byte, error) {
	type plain Registry
	out := plain(*r)
	if out.Modules == nil {
		out.Modules = []*Module{}
	}
	return json.Marshal(out)
}

// MarshalJSON renders a module without versions as "versions": []
func (m *Module) MarshalJSON() ([]byte, error) {
	type plain Module
	out := plain(*m)
	if out.Versions == nil {
		out.Versions = []*ModuleVersion{}
	}
	return json.Marshal(out)
}

// LatestVersion returns the version string of the first listed version, or "" if there are none
func (m *Module) LatestVersion() string {
	if m == nil || len(m.Versions) == 0 || m.Versions[0] == nil {
		return ""
	}
	return m.Versions[0].Version
}

// Description returns the repository description, or "" when no repository metadata is present
func (m *Module) Description() string {
	if m == nil || m.RepositoryMetadata == nil {
		return ""
	}
	return m.RepositoryMetadata.Description
}

// HasRepositoryMetadata reports whether the module carries repository metadata
func (m *Module) HasRepositoryMetadata() bool {
	return m != nil && m.RepositoryMetadata != nil
}
