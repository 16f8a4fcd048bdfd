// Package registry defines the Bazel module registry data model and its compact
// binary (protobuf wire format) codec.
//
// A Registry is the decoded form of the registry.pb document published by the
// registry builder. It is treated as an immutable snapshot: once decoded, none of
// its fields are modified and it is safe to share between goroutines.
//
// # Wire format
//
// The binary form follows the protobuf encoding rules for the schema below, so
// clients can decode it with code generated from the same .proto definition:
//
//	message Registry {
//	  string registry_url = 1;
//	  repeated Module modules = 2;
//	}
//
//	message Module {
//	  string name = 1;
//	  repeated ModuleVersion versions = 2;
//	  RepositoryMetadata repository_metadata = 3;
//	  string homepage = 4;
//	  repeated string repository = 5;
//	  string deprecated = 6;
//	  map<string, string> yanked_versions = 7;
//	}
//
//	message ModuleVersion {
//	  string version = 1;
//	  int32 compatibility_level = 2;
//	  string repo_name = 3;
//	  repeated string bazel_compatibility = 4;
//	  repeated ModuleDependency deps = 5;
//	  bool yanked = 6;
//	}
//
//	message ModuleDependency {
//	  string name = 1;
//	  string version = 2;
//	  bool dev = 3;
//	}
//
//	message RepositoryMetadata {
//	  RepositoryType type = 1;
//	  string organization = 2;
//	  string name = 3;
//	  string description = 4;
//	  int32 stargazers = 5;
//	  map<string, int32> languages = 6;
//	}
//
// Decode skips fields it does not know, so newer registry documents remain
// readable. Encoding is deterministic: map entries are written in key order.
//
// # Test Utilities
//
// NewTestRegistry and NewTestModule build registries for tests using the
// options pattern:
//
//	reg := registry.NewTestRegistry(
//	    registry.WithModules(
//	        registry.NewTestModule("rules_go",
//	            registry.WithVersions("0.50.1", "0.50.0"),
//	            registry.WithDescription("Go rules for Bazel"),
//	        ),
//	    ),
//	)
package registry
