// Package integration provides integration tests for the BCR API server.
// These tests run the complete server against remote and file registry
// sources and exercise the HTTP surface end to end.
package integration
