package registry

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrDecode is matched by every error returned from Decode
var ErrDecode = errors.New("failed to decode registry")

// DecodeError describes malformed registry data.
// Path locates the offending field, e.g. "registry.modules[3].versions[0].version".
type DecodeError struct {
	Path string
	Err  error
}

// Error returns the error message
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode
func (*DecodeError) Is(target error) bool {
	return target == ErrDecode
}

var (
	errInvalidUTF8 = errors.New("invalid UTF-8 in string field")
)

// Decode parses a registry document in protobuf wire format
func Decode(data []byte) (*Registry, error) {
	reg := &Registry{}
	if err := reg.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return reg, nil
}

// UnmarshalBinary decodes a registry in protobuf wire format, replacing the receiver's contents
func (r *Registry) UnmarshalBinary(data []byte) error {
	const path = "registry"
	*r = Registry{}
	return walkFields(path, data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case registryURLField:
			return consumeString(path+".registry_url", typ, b, &r.RegistryURL)
		case registryModulesField:
			modulePath := fmt.Sprintf("%s.modules[%d]", path, len(r.Modules))
			msg, n, err := consumeMessage(modulePath, typ, b)
			if err != nil {
				return 0, err
			}
			m, err := decodeModule(modulePath, msg)
			if err != nil {
				return 0, err
			}
			r.Modules = append(r.Modules, m)
			return n, nil
		}
		return skipField(path, num, typ, b)
	})
}

// UnmarshalBinary decodes a module in protobuf wire format, replacing the receiver's contents
func (m *Module) UnmarshalBinary(data []byte) error {
	decoded, err := decodeModule("module", data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

func decodeModule(path string, data []byte) (*Module, error) {
	m := &Module{}
	err := walkFields(path, data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case moduleNameField:
			return consumeString(path+".name", typ, b, &m.Name)
		case moduleVersionsField:
			versionPath := fmt.Sprintf("%s.versions[%d]", path, len(m.Versions))
			msg, n, err := consumeMessage(versionPath, typ, b)
			if err != nil {
				return 0, err
			}
			v, err := decodeModuleVersion(versionPath, msg)
			if err != nil {
				return 0, err
			}
			m.Versions = append(m.Versions, v)
			return n, nil
		case moduleRepositoryMetadataField:
			mdPath := path + ".repository_metadata"
			msg, n, err := consumeMessage(mdPath, typ, b)
			if err != nil {
				return 0, err
			}
			// Repeated occurrences of a singular message field are merged.
			if m.RepositoryMetadata == nil {
				m.RepositoryMetadata = &RepositoryMetadata{}
			}
			if err := decodeRepositoryMetadata(mdPath, msg, m.RepositoryMetadata); err != nil {
				return 0, err
			}
			return n, nil
		case moduleHomepageField:
			return consumeString(path+".homepage", typ, b, &m.Homepage)
		case moduleRepositoryField:
			var repo string
			n, err := consumeString(fmt.Sprintf("%s.repository[%d]", path, len(m.Repository)), typ, b, &repo)
			if err != nil {
				return 0, err
			}
			m.Repository = append(m.Repository, repo)
			return n, nil
		case moduleDeprecatedField:
			return consumeString(path+".deprecated", typ, b, &m.Deprecated)
		case moduleYankedVersionsField:
			entryPath := path + ".yanked_versions"
			msg, n, err := consumeMessage(entryPath, typ, b)
			if err != nil {
				return 0, err
			}
			var key, value string
			err = walkFields(entryPath, msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case mapKeyField:
					return consumeString(entryPath+".key", typ, b, &key)
				case mapValueField:
					return consumeString(entryPath+".value", typ, b, &value)
				}
				return skipField(entryPath, num, typ, b)
			})
			if err != nil {
				return 0, err
			}
			if m.YankedVersions == nil {
				m.YankedVersions = make(map[string]string)
			}
			m.YankedVersions[key] = value
			return n, nil
		}
		return skipField(path, num, typ, b)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeModuleVersion(path string, data []byte) (*ModuleVersion, error) {
	v := &ModuleVersion{}
	err := walkFields(path, data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case versionVersionField:
			return consumeString(path+".version", typ, b, &v.Version)
		case versionCompatibilityLevelField:
			return consumeInt32(path+".compatibility_level", typ, b, &v.CompatibilityLevel)
		case versionRepoNameField:
			return consumeString(path+".repo_name", typ, b, &v.RepoName)
		case versionBazelCompatibilityField:
			var c string
			n, err := consumeString(fmt.Sprintf("%s.bazel_compatibility[%d]", path, len(v.BazelCompatibility)), typ, b, &c)
			if err != nil {
				return 0, err
			}
			v.BazelCompatibility = append(v.BazelCompatibility, c)
			return n, nil
		case versionDepsField:
			depPath := fmt.Sprintf("%s.deps[%d]", path, len(v.Deps))
			msg, n, err := consumeMessage(depPath, typ, b)
			if err != nil {
				return 0, err
			}
			dep, err := decodeModuleDependency(depPath, msg)
			if err != nil {
				return 0, err
			}
			v.Deps = append(v.Deps, dep)
			return n, nil
		case versionYankedField:
			return consumeBool(path+".yanked", typ, b, &v.Yanked)
		}
		return skipField(path, num, typ, b)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeModuleDependency(path string, data []byte) (*ModuleDependency, error) {
	d := &ModuleDependency{}
	err := walkFields(path, data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case dependencyNameField:
			return consumeString(path+".name", typ, b, &d.Name)
		case dependencyVersionField:
			return consumeString(path+".version", typ, b, &d.Version)
		case dependencyDevField:
			return consumeBool(path+".dev", typ, b, &d.Dev)
		}
		return skipField(path, num, typ, b)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func decodeRepositoryMetadata(path string, data []byte, md *RepositoryMetadata) error {
	return walkFields(path, data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case metadataTypeField:
			var t int32
			n, err := consumeInt32(path+".type", typ, b, &t)
			md.Type = RepositoryType(t)
			return n, err
		case metadataOrganizationField:
			return consumeString(path+".organization", typ, b, &md.Organization)
		case metadataNameField:
			return consumeString(path+".name", typ, b, &md.Name)
		case metadataDescriptionField:
			return consumeString(path+".description", typ, b, &md.Description)
		case metadataStargazersField:
			return consumeInt32(path+".stargazers", typ, b, &md.Stargazers)
		case metadataLanguagesField:
			entryPath := path + ".languages"
			msg, n, err := consumeMessage(entryPath, typ, b)
			if err != nil {
				return 0, err
			}
			var key string
			var value int32
			err = walkFields(entryPath, msg, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case mapKeyField:
					return consumeString(entryPath+".key", typ, b, &key)
				case mapValueField:
					return consumeInt32(entryPath+".value", typ, b, &value)
				}
				return skipField(entryPath, num, typ, b)
			})
			if err != nil {
				return 0, err
			}
			if md.Languages == nil {
				md.Languages = make(map[string]int32)
			}
			md.Languages[key] = value
			return n, nil
		}
		return skipField(path, num, typ, b)
	})
}

// fieldFunc decodes the value of a single field from b and returns the number of bytes consumed
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields iterates over the fields of a message, dispatching each value to fn
func walkFields(path string, data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return &DecodeError{Path: path, Err: protowire.ParseError(n)}
		}
		data = data[n:]

		n, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// skipField consumes the value of a field that is not part of the known schema
func skipField(path string, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, &DecodeError{Path: fmt.Sprintf("%s.<field %d>", path, num), Err: protowire.ParseError(n)}
	}
	return n, nil
}

func checkWireType(path string, got, want protowire.Type) error {
	if got != want {
		return &DecodeError{Path: path, Err: fmt.Errorf("wire type %d, expected %d", got, want)}
	}
	return nil
}

func consumeMessage(path string, typ protowire.Type, b []byte) ([]byte, int, error) {
	if err := checkWireType(path, typ, protowire.BytesType); err != nil {
		return nil, 0, err
	}
	msg, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, &DecodeError{Path: path, Err: protowire.ParseError(n)}
	}
	return msg, n, nil
}

func consumeString(path string, typ protowire.Type, b []byte, dst *string) (int, error) {
	if err := checkWireType(path, typ, protowire.BytesType); err != nil {
		return 0, err
	}
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, &DecodeError{Path: path, Err: protowire.ParseError(n)}
	}
	if !utf8.ValidString(s) {
		return 0, &DecodeError{Path: path, Err: errInvalidUTF8}
	}
	*dst = s
	return n, nil
}

func consumeVarint(path string, typ protowire.Type, b []byte) (uint64, int, error) {
	if err := checkWireType(path, typ, protowire.VarintType); err != nil {
		return 0, 0, err
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, &DecodeError{Path: path, Err: protowire.ParseError(n)}
	}
	return v, n, nil
}

func consumeInt32(path string, typ protowire.Type, b []byte, dst *int32) (int, error) {
	v, n, err := consumeVarint(path, typ, b)
	if err != nil {
		return 0, err
	}
	*dst = int32(v)
	return n, nil
}

func consumeBool(path string, typ protowire.Type, b []byte, dst *bool) (int, error) {
	v, n, err := consumeVarint(path, typ, b)
	if err != nil {
		return 0, err
	}
	*dst = protowire.DecodeBool(v)
	return n, nil
}
