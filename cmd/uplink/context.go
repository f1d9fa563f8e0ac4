package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"uplink/internal/catalog"
	"uplink/internal/config"
	"uplink/internal/enrich"
	"uplink/internal/feed"
	"uplink/internal/logging"
	"uplink/internal/retrieval"
	"uplink/internal/transport"
)

// commandContext lazily builds the shared dependencies commands need, so
// read-only commands never touch the broker and broker-less configs still
// work offline.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) buildTransport() (transport.Transport, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	pollTimeout := time.Duration(cfg.Broker.PollTimeout) * time.Second
	if cfg.Offline() {
		return transport.NewMemoryBroker(pollTimeout), nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return transport.NewKafkaBroker(cfg.Broker.Addresses, pollTimeout, logger), nil
}

func (c *commandContext) openStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.Catalog.Dir)
}

func (c *commandContext) buildEnricher() (enrich.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return enrich.NewService(cfg, logger), nil
}

func (c *commandContext) buildFeed() (feed.Source, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return feed.NewSource(cfg, logger), nil
}

// previewRetriever materializes preview files into the HQ asset store.
func (c *commandContext) previewRetriever() (retrieval.Materializer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Feed.TimeoutSec) * time.Second
	if cfg.Feed.Live {
		return retrieval.NewDownloader(timeout), nil
	}
	return retrieval.NewCopier(cfg.Feed.OfflineAssetsDir()), nil
}

// fulfillmentRetriever materializes full-resolution originals into the
// replicated directory.
func (c *commandContext) fulfillmentRetriever() (retrieval.Materializer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Feed.Live {
		return retrieval.NewOriginalDownloader(time.Duration(cfg.Feed.TimeoutSec) * time.Second), nil
	}
	return retrieval.NewCopier(cfg.Paths.HQAssetsDir), nil
}
