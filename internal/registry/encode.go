package registry

import (
	"errors"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the registry schema.
// TODO: add a golden test that decodes a published registry.pb.gz to pin these numbers.
const (
	registryURLField     protowire.Number = 1
	registryModulesField protowire.Number = 2

	moduleNameField               protowire.Number = 1
	moduleVersionsField           protowire.Number = 2
	moduleRepositoryMetadataField protowire.Number = 3
	moduleHomepageField           protowire.Number = 4
	moduleRepositoryField         protowire.Number = 5
	moduleDeprecatedField         protowire.Number = 6
	moduleYankedVersionsField     protowire.Number = 7

	versionVersionField            protowire.Number = 1
	versionCompatibilityLevelField protowire.Number = 2
	versionRepoNameField           protowire.Number = 3
	versionBazelCompatibilityField protowire.Number = 4
	versionDepsField               protowire.Number = 5
	versionYankedField             protowire.Number = 6

	dependencyNameField    protowire.Number = 1
	dependencyVersionField protowire.Number = 2
	dependencyDevField     protowire.Number = 3

	metadataTypeField         protowire.Number = 1
	metadataOrganizationField protowire.Number = 2
	metadataNameField         protowire.Number = 3
	metadataDescriptionField  protowire.Number = 4
	metadataStargazersField   protowire.Number = 5
	metadataLanguagesField    protowire.Number = 6

	mapKeyField   protowire.Number = 1
	mapValueField protowire.Number = 2
)

var errNilMessage = errors.New("cannot encode nil message")

// MarshalBinary encodes the registry in protobuf wire format
func (r *Registry) MarshalBinary() ([]byte, error) {
	if r == nil {
		return nil, errNilMessage
	}
	return r.appendTo(nil), nil
}

// MarshalBinary encodes the module in protobuf wire format
func (m *Module) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, errNilMessage
	}
	return m.appendTo(nil), nil
}

func (r *Registry) appendTo(b []byte) []byte {
	b = appendString(b, registryURLField, r.RegistryURL)
	for _, m := range r.Modules {
		b = appendMessage(b, registryModulesField, m.appendTo)
	}
	return b
}

func (m *Module) appendTo(b []byte) []byte {
	if m == nil {
		return b
	}
	b = appendString(b, moduleNameField, m.Name)
	for _, v := range m.Versions {
		b = appendMessage(b, moduleVersionsField, v.appendTo)
	}
	if m.RepositoryMetadata != nil {
		b = appendMessage(b, moduleRepositoryMetadataField, m.RepositoryMetadata.appendTo)
	}
	b = appendString(b, moduleHomepageField, m.Homepage)
	for _, repo := range m.Repository {
		b = appendRepeatedString(b, moduleRepositoryField, repo)
	}
	b = appendString(b, moduleDeprecatedField, m.Deprecated)
	for _, key := range sortedKeys(m.YankedVersions) {
		value := m.YankedVersions[key]
		b = appendMessage(b, moduleYankedVersionsField, func(b []byte) []byte {
			b = appendString(b, mapKeyField, key)
			return appendString(b, mapValueField, value)
		})
	}
	return b
}

func (v *ModuleVersion) appendTo(b []byte) []byte {
	if v == nil {
		return b
	}
	b = appendString(b, versionVersionField, v.Version)
	b = appendInt32(b, versionCompatibilityLevelField, v.CompatibilityLevel)
	b = appendString(b, versionRepoNameField, v.RepoName)
	for _, c := range v.BazelCompatibility {
		b = appendRepeatedString(b, versionBazelCompatibilityField, c)
	}
	for _, dep := range v.Deps {
		b = appendMessage(b, versionDepsField, dep.appendTo)
	}
	return appendBool(b, versionYankedField, v.Yanked)
}

func (d *ModuleDependency) appendTo(b []byte) []byte {
	if d == nil {
		return b
	}
	b = appendString(b, dependencyNameField, d.Name)
	b = appendString(b, dependencyVersionField, d.Version)
	return appendBool(b, dependencyDevField, d.Dev)
}

func (md *RepositoryMetadata) appendTo(b []byte) []byte {
	b = appendInt32(b, metadataTypeField, int32(md.Type))
	b = appendString(b, metadataOrganizationField, md.Organization)
	b = appendString(b, metadataNameField, md.Name)
	b = appendString(b, metadataDescriptionField, md.Description)
	b = appendInt32(b, metadataStargazersField, md.Stargazers)
	for _, key := range sortedKeys(md.Languages) {
		value := md.Languages[key]
		b = appendMessage(b, metadataLanguagesField, func(b []byte) []byte {
			b = appendString(b, mapKeyField, key)
			return appendInt32(b, mapValueField, value)
		})
	}
	return b
}

// appendString writes a singular string field, omitting the proto3 default
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	return appendRepeatedString(b, num, s)
}

// appendRepeatedString writes one element of a repeated string field; empty elements are kept
func appendRepeatedString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// appendMessage writes a length-delimited submessage produced by fn
func appendMessage(b []byte, num protowire.Number, fn func([]byte) []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, fn(nil))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
