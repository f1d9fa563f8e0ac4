// Package testsupport provides helpers for constructing isolated test
// fixtures: temp-dir configs, in-memory brokers, and throwaway catalogs.
package testsupport
