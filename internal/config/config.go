package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for both tiers.
type Paths struct {
	// HQAssetsDir holds full-resolution originals at HQ.
	HQAssetsDir string `toml:"hq_assets_dir"`
	// ReplicatedDir is the HQ-side directory the edge volume mirror picks up;
	// fulfilled requests are materialized here.
	ReplicatedDir string `toml:"replicated_dir"`
	// EdgeAssetsDir is where the edge tier sees mirrored files locally.
	EdgeAssetsDir string `toml:"edge_assets_dir"`
	LogDir        string `toml:"log_dir"`
	LockDir       string `toml:"lock_dir"`
}

// Broker contains stream transport connection settings.
type Broker struct {
	// Addresses lists broker bootstrap addresses. Empty means the in-memory
	// transport, used for tests and offline demos.
	Addresses []string `toml:"addresses"`
	// PollTimeout bounds each consumer poll in seconds; a poll that elapses
	// with no message ends the drain pass.
	PollTimeout int `toml:"poll_timeout"`
}

// Streams names the two logical stream identities. Replication between them
// is provided by the fabric, outside this process.
type Streams struct {
	HQ   string `toml:"hq"`
	Edge string `toml:"edge"`
}

// Topics names the pub/sub topics used by the pipeline and the request
// protocol. Response defaults to the request topic when left empty, which is
// how the original deployment replies.
type Topics struct {
	Pipeline string `toml:"pipeline"`
	Assets   string `toml:"assets"`
	Requests string `toml:"requests"`
	Response string `toml:"response"`
}

// Catalog contains durable table store settings.
type Catalog struct {
	// Dir holds one SQLite database per tier.
	Dir   string `toml:"dir"`
	Table string `toml:"table"`
}

// Enrichment contains settings for the OpenAI-compatible vision endpoint.
// When APIKey and BaseURL are both empty, enrichment is disabled and a
// placeholder analysis is recorded.
type Enrichment struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// Question is asked about a materialized asset once an edge request
	// completes.
	Question string `toml:"question"`
}

// Feed contains asset pool acquisition settings.
type Feed struct {
	// Path points at an offline collection+json feed file.
	Path string `toml:"path"`
	// Live switches to querying the search API instead of the offline file.
	Live        bool     `toml:"live"`
	SearchURL   string   `toml:"search_url"`
	SearchTerms []string `toml:"search_terms"`
	TimeoutSec  int      `toml:"timeout_seconds"`
}

// OfflineAssetsDir returns the directory offline preview files live in,
// next to the feed file.
func (f Feed) OfflineAssetsDir() string {
	return filepath.Dir(f.Path)
}

// Workflow contains drain scheduling intervals.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	SelectCount        int `toml:"select_count"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for uplink.
//
// Configuration sections by subsystem:
//   - Paths: tier directories and daemon lock location
//   - Broker: stream transport connection and poll bounds
//   - Streams/Topics: logical stream identities and topic names
//   - Catalog: durable table store location
//   - Enrichment: vision model endpoint for describe/ask
//   - Feed: offline or live asset pool source
//   - Workflow: drain pass scheduling
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Broker     Broker     `toml:"broker"`
	Streams    Streams    `toml:"streams"`
	Topics     Topics     `toml:"topics"`
	Catalog    Catalog    `toml:"catalog"`
	Enrichment Enrichment `toml:"enrichment"`
	Feed       Feed       `toml:"feed"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/uplink/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields defaults. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("uplink.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.HQAssetsDir,
		&c.Paths.ReplicatedDir,
		&c.Paths.EdgeAssetsDir,
		&c.Paths.LogDir,
		&c.Paths.LockDir,
		&c.Catalog.Dir,
	}
	for _, p := range paths {
		if strings.TrimSpace(*p) == "" {
			continue
		}
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	if c.Feed.Path != "" {
		expanded, err := expandPath(c.Feed.Path)
		if err != nil {
			return err
		}
		c.Feed.Path = expanded
	}
	if strings.TrimSpace(c.Topics.Response) == "" {
		c.Topics.Response = c.Topics.Requests
	}
	return nil
}

// Validate reports configuration that cannot support a running engine.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Streams.HQ) == "" {
		problems = append(problems, "streams.hq must not be empty")
	}
	if strings.TrimSpace(c.Streams.Edge) == "" {
		problems = append(problems, "streams.edge must not be empty")
	}
	for name, topic := range map[string]string{
		"topics.pipeline": c.Topics.Pipeline,
		"topics.assets":   c.Topics.Assets,
		"topics.requests": c.Topics.Requests,
	} {
		if strings.TrimSpace(topic) == "" {
			problems = append(problems, name+" must not be empty")
		}
	}
	if c.Broker.PollTimeout <= 0 {
		problems = append(problems, "broker.poll_timeout must be positive")
	}
	if c.Workflow.PollInterval <= 0 {
		problems = append(problems, "workflow.poll_interval must be positive")
	}
	if c.Workflow.SelectCount <= 0 {
		problems = append(problems, "workflow.select_count must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnsureDirectories creates required directories for engine operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.HQAssetsDir,
		c.Paths.ReplicatedDir,
		c.Paths.EdgeAssetsDir,
		c.Paths.LogDir,
		c.Paths.LockDir,
		c.Catalog.Dir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Offline reports whether the in-memory transport should be used.
func (c *Config) Offline() bool {
	return len(c.Broker.Addresses) == 0
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
