// Package sources retrieves registry snapshots and turns them into decoded
// registry.Registry values.
//
// A RegistrySource runs the full population pipeline for one snapshot
// location: read the compressed blob, inflate it, and decode the protobuf
// document. Sources do not cache; caching is the job of the cache package.
//
// Current implementations:
//   - RemoteSource: fetches the snapshot with a single HTTP GET (http and https URLs)
//   - FileSource: reads the snapshot from the local filesystem (file:// URLs and
//     plain paths), mainly for development and air-gapped deployments
//
// NewRegistrySource picks the implementation from the location's URL scheme.
package sources
