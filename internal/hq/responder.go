package hq

import (
	"context"
	"log/slog"

	"uplink/internal/asset"
	"uplink/internal/config"
	"uplink/internal/logging"
	"uplink/internal/retrieval"
	"uplink/internal/status"
	"uplink/internal/transport"
)

const requestGroup = "request-workers"

// Responder fulfills edge requests: it drains the requests topic,
// materializes the full-resolution asset into the replicated directory, and
// publishes a fulfilled reply. A request it cannot fulfill is dropped
// without a reply; the edge side keeps it pending forever, by contract.
type Responder struct {
	cfg       *config.Config
	bus       transport.Transport
	retriever retrieval.Materializer
	tracker   *status.Tracker
	logger    *slog.Logger
}

// NewResponder assembles the HQ request responder. The retriever decides
// the fulfillment mechanics (local copy offline, metadata-resolved download
// live); the responder only picks which reference to hand it.
func NewResponder(
	cfg *config.Config,
	bus transport.Transport,
	retriever retrieval.Materializer,
	tracker *status.Tracker,
	logger *slog.Logger,
) *Responder {
	return &Responder{
		cfg:       cfg,
		bus:       bus,
		retriever: retriever,
		tracker:   tracker,
		logger:    logging.NewComponentLogger(logger, "responder"),
	}
}

// Listen drains the requests topic once. Messages whose status is not
// requested are stale or duplicate replays and are skipped; this guard also
// drops our own fulfilled replies when the reply topic aliases the request
// topic. Returns the number of messages consumed.
func (r *Responder) Listen(ctx context.Context) int {
	processed := 0
	for payload := range r.bus.Consume(ctx, r.cfg.Streams.HQ, r.cfg.Topics.Requests, requestGroup) {
		processed++

		request, err := asset.Decode(payload)
		if err != nil {
			r.logger.Warn("skipping undecodable request message", logging.Error(err))
			continue
		}
		if request.Status != asset.StatusRequested {
			r.logger.Info("ignoring request",
				logging.String(logging.FieldAssetID, request.ID),
				logging.String(logging.FieldStatus, string(request.Status)))
			continue
		}
		r.fulfill(ctx, request)
	}
	return processed
}

func (r *Responder) fulfill(ctx context.Context, request asset.Asset) {
	logger := r.logger.With(logging.String(logging.FieldAssetID, request.ID))
	logger.Info("fulfilling request", logging.String("title", request.Title))

	filename, err := r.retriever.Materialize(ctx, r.sourceRef(request), r.cfg.Paths.ReplicatedDir)
	if err != nil {
		logger.Error("materialization failed, dropping request", logging.Error(err))
		r.tracker.Observe(request.WithStage(asset.StageFailed))
		return
	}

	reply := request.WithStatus(asset.StatusFulfilled).WithStage(asset.StageResponse)
	payload, err := asset.Encode(reply)
	if err == nil {
		err = r.bus.Produce(ctx, r.cfg.Streams.Edge, r.cfg.Topics.Response, [][]byte{payload})
	}
	if err != nil {
		logger.Error("reply publish failed, dropping request", logging.Error(err))
		r.tracker.Observe(request.WithStage(asset.StageFailed))
		return
	}

	r.tracker.Observe(reply)
	logger.Info("request fulfilled", logging.String("file", filename))
}

// sourceRef picks the reference to materialize from. Live deployments
// resolve the full-resolution original beside the asset's href; offline ones
// copy the preview file by name.
func (r *Responder) sourceRef(request asset.Asset) string {
	if r.cfg.Feed.Live {
		return request.ID
	}
	return request.PreviewRef
}
