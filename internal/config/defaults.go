package config

const (
	defaultHQAssetsDir    = "~/.local/share/uplink/hq/assets"
	defaultReplicatedDir  = "~/.local/share/uplink/hq/replicated"
	defaultEdgeAssetsDir  = "~/.local/share/uplink/edge/assets"
	defaultLogDir         = "~/.local/share/uplink/logs"
	defaultLockDir        = "~/.local/share/uplink/run"
	defaultCatalogDir     = "~/.local/share/uplink/catalog"
	defaultCatalogTable   = "asset_table"
	defaultHQStream       = "hq_stream"
	defaultEdgeStream     = "edge_stream"
	defaultPipelineTopic  = "pipeline"
	defaultAssetTopic     = "assets"
	defaultRequestTopic   = "requests"
	defaultPollTimeout    = 2
	defaultPollInterval   = 3
	defaultErrorRetry     = 10
	defaultSelectCount    = 5
	defaultFeedPath       = "images.json"
	defaultSearchURL      = "https://images-api.nasa.gov/search"
	defaultFeedTimeout    = 10
	defaultAITimeout      = 60
	defaultAIModel        = "gpt-4-vision-preview"
	defaultAskQuestion    = "What is shown in this image?"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			HQAssetsDir:   defaultHQAssetsDir,
			ReplicatedDir: defaultReplicatedDir,
			EdgeAssetsDir: defaultEdgeAssetsDir,
			LogDir:        defaultLogDir,
			LockDir:       defaultLockDir,
		},
		Broker: Broker{
			PollTimeout: defaultPollTimeout,
		},
		Streams: Streams{
			HQ:   defaultHQStream,
			Edge: defaultEdgeStream,
		},
		Topics: Topics{
			Pipeline: defaultPipelineTopic,
			Assets:   defaultAssetTopic,
			Requests: defaultRequestTopic,
		},
		Catalog: Catalog{
			Dir:   defaultCatalogDir,
			Table: defaultCatalogTable,
		},
		Enrichment: Enrichment{
			Model:          defaultAIModel,
			TimeoutSeconds: defaultAITimeout,
			Question:       defaultAskQuestion,
		},
		Feed: Feed{
			Path:        defaultFeedPath,
			SearchURL:   defaultSearchURL,
			SearchTerms: []string{"missile", "earthquake", "tsunami", "oil", "flood"},
			TimeoutSec:  defaultFeedTimeout,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetry,
			SelectCount:        defaultSelectCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
