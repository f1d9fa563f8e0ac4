package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uplink/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config, got existing at %s", path)
	}
	if cfg.Streams.HQ != "hq_stream" || cfg.Topics.Pipeline != "pipeline" {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
	if cfg.Topics.Response != cfg.Topics.Requests {
		t.Fatalf("response topic should default to request topic, got %q", cfg.Topics.Response)
	}
	if !cfg.Offline() {
		t.Fatal("empty broker addresses should select the in-memory transport")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`[broker]`,
		`addresses = ["broker-1:9092"]`,
		`poll_timeout = 5`,
		``,
		`[topics]`,
		`response = "responses"`,
		``,
		`[workflow]`,
		`select_count = 3`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Broker.PollTimeout != 5 || cfg.Workflow.SelectCount != 3 {
		t.Fatalf("overrides not applied: %#v", cfg)
	}
	if cfg.Topics.Response != "responses" {
		t.Fatalf("explicit response topic overridden: %q", cfg.Topics.Response)
	}
	if cfg.Offline() {
		t.Fatal("configured broker addresses should disable offline mode")
	}
}

func TestValidateRejectsEmptyStream(t *testing.T) {
	cfg := config.Default()
	cfg.Streams.HQ = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for blank hq stream")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("sample config not detected")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
