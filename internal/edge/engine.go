package edge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"uplink/internal/asset"
	"uplink/internal/catalog"
	"uplink/internal/config"
	"uplink/internal/enrich"
	"uplink/internal/logging"
	"uplink/internal/retrieval"
	"uplink/internal/status"
	"uplink/internal/transport"
)

const (
	assetGroup    = "asset-listener"
	responseGroup = "response-listener"
)

// Engine is the edge half of the protocol: it receives broadcast assets
// into the edge catalog, issues full-resolution requests with an idempotent
// duplicate guard, and completes assets when fulfillment replies arrive.
//
// Stage and status transients live in the engine's in-memory view, not the
// catalog; the catalog keeps only the durable record. The view is rebuilt
// from broadcasts on restart, which resets the duplicate guard — acceptable
// because the responder independently skips non-pending requests.
type Engine struct {
	cfg      *config.Config
	bus      transport.Transport
	store    *catalog.Store
	enricher enrich.Service
	tracker  *status.Tracker
	logger   *slog.Logger

	mu       sync.Mutex
	received map[string]asset.Asset
}

// NewEngine assembles the edge engine.
func NewEngine(
	cfg *config.Config,
	bus transport.Transport,
	store *catalog.Store,
	enricher enrich.Service,
	tracker *status.Tracker,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		bus:      bus,
		store:    store,
		enricher: enricher,
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "edge"),
		received: make(map[string]asset.Asset),
	}
}

// Receive drains the assets topic once, persisting each broadcast asset to
// the edge catalog. A persisted asset is tagged receive and becomes
// eligible for request; a failed persist is tagged failed and stays
// ineligible. Returns the number of messages consumed.
func (e *Engine) Receive(ctx context.Context) int {
	processed := 0
	for payload := range e.bus.Consume(ctx, e.cfg.Streams.Edge, e.cfg.Topics.Assets, assetGroup) {
		processed++

		item, err := asset.Decode(payload)
		if err != nil {
			e.logger.Warn("skipping undecodable broadcast message", logging.Error(err))
			continue
		}
		logger := e.logger.With(logging.String(logging.FieldAssetID, item.ID))

		if err := e.store.Write(ctx, "edge", e.cfg.Catalog.Table, []asset.Asset{item}); err != nil {
			logger.Error("catalog append failed", logging.Error(err))
			e.tracker.Observe(item.WithStage(asset.StageFailed))
			continue
		}

		snapshot := item.WithStage(asset.StageReceive).WithStatus(asset.StatusNone)
		e.mu.Lock()
		e.received[snapshot.ID] = snapshot
		e.mu.Unlock()

		e.tracker.Observe(snapshot)
		logger.Info("asset received", logging.String("title", item.Title))
	}
	return processed
}

// Received returns the engine's current view of received assets, ordered by
// id for stable display.
func (e *Engine) Received() []asset.Asset {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]asset.Asset, 0, len(e.received))
	for _, item := range e.received {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Request publishes a full-resolution request for a received asset. It is a
// no-op when the asset is unknown or its status is already requested or
// fulfilled — the guard that prevents duplicate in-flight requests. The
// second return reports whether a request message was published.
func (e *Engine) Request(ctx context.Context, id string) (asset.Asset, bool) {
	e.mu.Lock()
	item, ok := e.received[id]
	e.mu.Unlock()
	if !ok {
		e.logger.Warn("request for unknown asset", logging.String(logging.FieldAssetID, id))
		return asset.Asset{}, false
	}
	if item.Status.Pending() || item.Status.Resolved() {
		e.logger.Info("skipping duplicate request",
			logging.String(logging.FieldAssetID, id),
			logging.String(logging.FieldStatus, string(item.Status)))
		return item, false
	}

	pending := item.WithStatus(asset.StatusRequested)
	e.mu.Lock()
	e.received[id] = pending
	e.mu.Unlock()

	payload, err := asset.Encode(pending)
	if err == nil {
		err = e.bus.Produce(ctx, e.cfg.Streams.Edge, e.cfg.Topics.Requests, [][]byte{payload})
	}
	if err != nil {
		e.logger.Error("request publish failed",
			logging.String(logging.FieldAssetID, id),
			logging.Error(err))
		e.tracker.Observe(pending.WithStage(asset.StageFailed))
		return pending, false
	}

	snapshot := pending.WithStage(asset.StageRequest)
	e.mu.Lock()
	e.received[id] = snapshot
	e.mu.Unlock()

	e.tracker.Observe(snapshot)
	e.logger.Info("asset requested", logging.String(logging.FieldAssetID, id))
	return snapshot, true
}

// Complete drains the reply topic once, marking fulfilled assets completed.
// Messages with any other status are our own pending requests or stale
// replays and are ignored. Once a reply confirms local materialization, the
// configured question is asked about the file, best-effort. Returns the
// number of messages consumed.
func (e *Engine) Complete(ctx context.Context) int {
	processed := 0
	for payload := range e.bus.Consume(ctx, e.cfg.Streams.Edge, e.cfg.Topics.Response, responseGroup) {
		processed++

		reply, err := asset.Decode(payload)
		if err != nil {
			e.logger.Warn("skipping undecodable reply message", logging.Error(err))
			continue
		}
		if !reply.Status.Resolved() || reply.Status == asset.StatusCompleted {
			e.logger.Info("ignoring reply",
				logging.String(logging.FieldAssetID, reply.ID),
				logging.String(logging.FieldStatus, string(reply.Status)))
			continue
		}

		e.mu.Lock()
		current, known := e.received[reply.ID]
		e.mu.Unlock()
		if !known {
			current = reply.WithStage(asset.StageReceive)
		}

		completed := current.WithStatus(asset.StatusCompleted)
		if answer := e.ask(ctx, completed); answer != enrich.Placeholder {
			completed.Analysis = answer
		}

		e.mu.Lock()
		e.received[reply.ID] = completed
		e.mu.Unlock()

		e.tracker.Observe(completed)
		e.logger.Info("asset completed", logging.String(logging.FieldAssetID, reply.ID))
	}
	return processed
}

// ask runs the configured question against the locally mirrored file. Any
// failure, including the mirror not having caught up yet, yields the
// placeholder.
func (e *Engine) ask(ctx context.Context, item asset.Asset) string {
	localPath := filepath.Join(e.cfg.Paths.EdgeAssetsDir, retrieval.Filename(item.PreviewRef))
	if _, err := os.Stat(localPath); err != nil {
		return enrich.Placeholder
	}
	answer, err := e.enricher.Ask(ctx, localPath, e.cfg.Enrichment.Question)
	if err != nil {
		e.logger.Warn("completion enrichment failed",
			logging.String(logging.FieldAssetID, item.ID),
			logging.Error(err))
		return enrich.Placeholder
	}
	return answer
}
