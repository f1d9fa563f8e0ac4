package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"uplink/internal/catalog"
	"uplink/internal/config"
	"uplink/internal/transport"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The reply topic aliases the request topic, matching the deployment
// default.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.HQAssetsDir = filepath.Join(base, "hq-assets")
	cfg.Paths.ReplicatedDir = filepath.Join(base, "replicated")
	cfg.Paths.EdgeAssetsDir = filepath.Join(base, "edge-assets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LockDir = filepath.Join(base, "run")
	cfg.Catalog.Dir = filepath.Join(base, "catalog")
	cfg.Feed.Path = filepath.Join(base, "images.json")
	cfg.Topics.Response = cfg.Topics.Requests

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// WithSharedStream points both tiers at one stream, standing in for the
// fabric replication a real deployment provides between them.
func WithSharedStream(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Streams.HQ = name
		cfg.Streams.Edge = name
	}
}

// NewBroker returns an in-memory broker with a poll window short enough for
// drain-pass tests.
func NewBroker(t testing.TB) *transport.MemoryBroker {
	t.Helper()
	return transport.NewMemoryBroker(30 * time.Millisecond)
}

// NewStore opens a catalog store under the config's catalog directory and
// closes it when the test ends.
func NewStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Catalog.Dir)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
