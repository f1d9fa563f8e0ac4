package hq

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"uplink/internal/asset"
	"uplink/internal/catalog"
	"uplink/internal/config"
	"uplink/internal/enrich"
	"uplink/internal/logging"
	"uplink/internal/retrieval"
	"uplink/internal/status"
	"uplink/internal/transport"
)

// Consumer group for the pipeline drain. Stable across passes so each
// Advance call only sees messages produced since the previous pass.
const pipelineGroup = "pipeline-workers"

// Engine drives assets through the HQ stages: selection onto the pipeline
// topic, then download, enrichment, durable recording, and broadcast. Every
// stage outcome is emitted to the tracker as an immutable tagged snapshot;
// failures tag the item and never propagate to the caller.
type Engine struct {
	cfg       *config.Config
	bus       transport.Transport
	store     *catalog.Store
	retriever retrieval.Materializer
	enricher  enrich.Service
	tracker   *status.Tracker
	logger    *slog.Logger
}

// NewEngine assembles the HQ pipeline engine.
func NewEngine(
	cfg *config.Config,
	bus transport.Transport,
	store *catalog.Store,
	retriever retrieval.Materializer,
	enricher enrich.Service,
	tracker *status.Tracker,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		bus:       bus,
		store:     store,
		retriever: retriever,
		enricher:  enricher,
		tracker:   tracker,
		logger:    logging.NewComponentLogger(logger, "hq"),
	}
}

// Select draws a random sample without replacement of up to count assets
// from the pool and publishes the batch to the pipeline topic. The publish
// is all-or-nothing: on success every selected asset is tagged pipeline, on
// failure every selected asset is tagged failed. The tagged snapshots are
// returned and emitted to the tracker either way.
func (e *Engine) Select(ctx context.Context, pool []asset.Asset, count int) []asset.Asset {
	if count > len(pool) {
		count = len(pool)
	}
	if count <= 0 {
		return nil
	}

	selected := make([]asset.Asset, 0, count)
	for _, idx := range rand.Perm(len(pool))[:count] {
		selected = append(selected, pool[idx])
	}

	payloads, err := asset.EncodeBatch(selected)
	if err == nil {
		err = e.bus.Produce(ctx, e.cfg.Streams.HQ, e.cfg.Topics.Pipeline, payloads)
	}

	outcome := asset.StagePipeline
	if err != nil {
		outcome = asset.StageFailed
		e.logger.Error("pipeline publish failed",
			logging.Int("count", len(selected)),
			logging.String(logging.FieldTopic, e.cfg.Topics.Pipeline),
			logging.Error(err))
	} else {
		e.logger.Info("assets selected for pipeline", logging.Int("count", len(selected)))
	}

	tagged := make([]asset.Asset, 0, len(selected))
	for _, item := range selected {
		snapshot := item.WithStage(outcome)
		e.tracker.Observe(snapshot)
		tagged = append(tagged, snapshot)
	}
	return tagged
}

// Advance drains the pipeline topic once, running each asset through
// retrieve, enrich, record, and broadcast. A step failure tags the asset
// failed and short-circuits the remaining steps for that asset only; the
// drain continues with the next message. Returns the number of messages
// consumed.
func (e *Engine) Advance(ctx context.Context) int {
	processed := 0
	for payload := range e.bus.Consume(ctx, e.cfg.Streams.HQ, e.cfg.Topics.Pipeline, pipelineGroup) {
		processed++

		item, err := asset.Decode(payload)
		if err != nil {
			e.logger.Warn("skipping undecodable pipeline message", logging.Error(err))
			continue
		}
		e.process(ctx, item)
	}
	return processed
}

func (e *Engine) process(ctx context.Context, item asset.Asset) {
	logger := e.logger.With(logging.String(logging.FieldAssetID, item.ID))
	logger.Info("processing pipeline asset", logging.String("title", item.Title))

	filename, err := e.retriever.Materialize(ctx, item.PreviewRef, e.cfg.Paths.HQAssetsDir)
	if err != nil {
		logger.Error("retrieval failed", logging.Error(err))
		e.tracker.Observe(item.WithStage(asset.StageFailed))
		return
	}
	e.tracker.Observe(item.WithStage(asset.StageDownload))

	// Enrichment is best-effort: a failure or an empty answer records the
	// placeholder and the asset keeps advancing.
	analysis, err := e.enricher.Describe(ctx, filepath.Join(e.cfg.Paths.HQAssetsDir, filename), item.Description)
	if err != nil || strings.TrimSpace(analysis) == "" {
		if err != nil {
			logger.Warn("enrichment failed, recording placeholder", logging.Error(err))
		} else {
			logger.Warn("enrichment returned no text, recording placeholder")
		}
		analysis = enrich.Placeholder
	}
	item.Analysis = analysis

	if err := e.store.Write(ctx, "hq", e.cfg.Catalog.Table, []asset.Asset{item}); err != nil {
		logger.Error("catalog append failed",
			logging.String(logging.FieldTable, e.cfg.Catalog.Table),
			logging.Error(err))
		e.tracker.Observe(item.WithStage(asset.StageFailed))
		return
	}
	e.tracker.Observe(item.WithStage(asset.StageRecord))

	payload, err := asset.Encode(item)
	if err == nil {
		err = e.bus.Produce(ctx, e.cfg.Streams.HQ, e.cfg.Topics.Assets, [][]byte{payload})
	}
	if err != nil {
		logger.Error("broadcast failed", logging.Error(err))
		e.tracker.Observe(item.WithStage(asset.StageFailed))
		return
	}
	e.tracker.Observe(item.WithStage(asset.StageBroadcast))
	logger.Info("asset broadcast", logging.String("title", item.Title))
}
