package registry

// RegistryOption is a function that configures a Registry for testing
type RegistryOption func(*Registry)

// ModuleOption is a function that configures a Module for testing
type ModuleOption func(*Module)

// NewTestRegistry creates a new Registry for testing with default values
// and applies any provided options
func NewTestRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		RegistryURL: "https://bcr.bazel.build",
		Modules:     []*Module{},
	}

	for _, opt := range opts {
		opt(reg)
	}

	return reg
}

// WithRegistryURL sets the registry URL
func WithRegistryURL(url string) RegistryOption {
	return func(reg *Registry) {
		reg.RegistryURL = url
	}
}

// WithModules adds modules to the registry
func WithModules(modules ...*Module) RegistryOption {
	return func(reg *Registry) {
		reg.Modules = append(reg.Modules, modules...)
	}
}

// NewTestModule creates a new Module for testing with a single "1.0.0" version
// and a GitHub repository, then applies any provided options
func NewTestModule(name string, opts ...ModuleOption) *Module {
	module := &Module{
		Name:     name,
		Versions: []*ModuleVersion{{Version: "1.0.0", RepoName: name}},
		RepositoryMetadata: &RepositoryMetadata{
			Type:         RepositoryTypeGitHub,
			Organization: "bazelbuild",
			Name:         name,
			Description:  name + " module",
		},
	}

	for _, opt := range opts {
		opt(module)
	}

	return module
}

// WithVersions replaces the module versions, newest first
func WithVersions(versions ...string) ModuleOption {
	return func(m *Module) {
		m.Versions = make([]*ModuleVersion, 0, len(versions))
		for _, v := range versions {
			m.Versions = append(m.Versions, &ModuleVersion{Version: v, RepoName: m.Name})
		}
	}
}

// WithDescription sets the repository description, creating metadata if needed
func WithDescription(description string) ModuleOption {
	return func(m *Module) {
		if m.RepositoryMetadata == nil {
			m.RepositoryMetadata = &RepositoryMetadata{}
		}
		m.RepositoryMetadata.Description = description
	}
}

// WithoutRepositoryMetadata removes the repository metadata
func WithoutRepositoryMetadata() ModuleOption {
	return func(m *Module) {
		m.RepositoryMetadata = nil
	}
}

// WithDeps adds dependencies to the latest version
func WithDeps(deps ...*ModuleDependency) ModuleOption {
	return func(m *Module) {
		if len(m.Versions) == 0 {
			return
		}
		m.Versions[0].Deps = append(m.Versions[0].Deps, deps...)
	}
}

// WithYankedVersion marks a version as yanked with the given reason
func WithYankedVersion(version, reason string) ModuleOption {
	return func(m *Module) {
		if m.YankedVersions == nil {
			m.YankedVersions = make(map[string]string)
		}
		m.YankedVersions[version] = reason
		for _, v := range m.Versions {
			if v.Version == version {
				v.Yanked = true
			}
		}
	}
}
