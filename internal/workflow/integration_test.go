package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uplink/internal/asset"
	"uplink/internal/edge"
	"uplink/internal/hq"
	"uplink/internal/logging"
	"uplink/internal/retrieval"
	"uplink/internal/status"
	"uplink/internal/testsupport"
)

type scriptedEnricher struct {
	describe string
	answer   string
}

func (s scriptedEnricher) Describe(context.Context, string, string) (string, error) {
	return s.describe, nil
}

func (s scriptedEnricher) Ask(context.Context, string, string) (string, error) {
	return s.answer, nil
}

// Exercises the full two-tier flow over one shared stream, standing in for
// the replication fabric: select, advance through broadcast, edge receive,
// request, fulfillment, and completion.
func TestPipelineEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSharedStream("demo_stream"))
	broker := testsupport.NewBroker(t)
	hqStore := testsupport.NewStore(t, cfg)
	hqTracker := status.NewTracker(100, 0)
	edgeTracker := status.NewTracker(100, 0)

	// Offline mode: the preview file exists locally and every transfer is a
	// copy.
	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "x1.png"), []byte("pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	enricher := scriptedEnricher{describe: "flooded area", answer: "a flooded river basin"}
	hqEngine := hq.NewEngine(cfg, broker, hqStore, retrieval.NewCopier(sourceDir), enricher, hqTracker, logging.NewNop())
	responder := hq.NewResponder(cfg, broker, retrieval.NewCopier(cfg.Paths.HQAssetsDir), hqTracker, logging.NewNop())
	edgeEngine := edge.NewEngine(cfg, broker, hqStore, enricher, edgeTracker, logging.NewNop())

	ctx := context.Background()
	pool := []asset.Asset{{ID: "x1", Title: "Flood Zone", PreviewRef: "img/x1.png"}}

	// Count clamps to the pool size.
	selected := hqEngine.Select(ctx, pool, 5)
	if len(selected) != 1 || selected[0].Stage != asset.StagePipeline {
		t.Fatalf("select result %+v, want one pipeline-tagged asset", selected)
	}

	if got := hqEngine.Advance(ctx); got != 1 {
		t.Fatalf("Advance consumed %d, want 1", got)
	}

	if got := edgeEngine.Receive(ctx); got != 1 {
		t.Fatalf("Receive consumed %d, want 1", got)
	}

	requested, published := edgeEngine.Request(ctx, "x1")
	if !published || requested.Status != asset.StatusRequested {
		t.Fatalf("request result (%+v, %v), want a published requested asset", requested, published)
	}

	// The responder sees the pending request, materializes the file, and
	// replies fulfilled; it skips everything else on the shared topic.
	if got := responder.Listen(ctx); got == 0 {
		t.Fatal("responder saw no messages")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ReplicatedDir, "x1.png")); err != nil {
		t.Fatalf("expected fulfilled file in replicated dir: %v", err)
	}

	if got := edgeEngine.Complete(ctx); got == 0 {
		t.Fatal("completion consumer saw no messages")
	}

	final := edgeEngine.Received()
	if len(final) != 1 {
		t.Fatalf("edge view has %d assets, want 1", len(final))
	}
	if final[0].Status != asset.StatusCompleted {
		t.Errorf("final status %q, want completed", final[0].Status)
	}

	// HQ saw the whole stage ladder; Edge saw receive then request.
	wantHQ := map[asset.Stage]bool{
		asset.StagePipeline:  true,
		asset.StageDownload:  true,
		asset.StageRecord:    true,
		asset.StageBroadcast: true,
		asset.StageResponse:  true,
	}
	for _, entry := range hqTracker.Entries() {
		if entry.Asset.Stage == asset.StageFailed {
			t.Fatalf("unexpected failed snapshot at HQ: %+v", entry.Asset)
		}
		delete(wantHQ, entry.Asset.Stage)
	}
	if len(wantHQ) != 0 {
		t.Errorf("missing HQ stage snapshots: %v", wantHQ)
	}

	var edgeStages []asset.Stage
	entries := edgeTracker.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		edgeStages = append(edgeStages, entries[i].Asset.Stage)
	}
	want := []asset.Stage{asset.StageReceive, asset.StageRequest, asset.StageRequest}
	if len(edgeStages) != len(want) {
		t.Fatalf("edge stage history %v, want %v", edgeStages, want)
	}
	for i := range want {
		if edgeStages[i] != want[i] {
			t.Fatalf("edge stage history %v, want %v", edgeStages, want)
		}
	}

	// The durable record carries the enrichment analysis, not the transients.
	records, ok := hqStore.FindAll(ctx, "hq", cfg.Catalog.Table)
	if !ok || len(records) != 1 {
		t.Fatalf("hq catalog records = %v (present=%v)", records, ok)
	}
	if records[0].Analysis != "flooded area" {
		t.Errorf("recorded analysis %q, want %q", records[0].Analysis, "flooded area")
	}
	if records[0].Stage != "" || records[0].Status != "" {
		t.Errorf("durable record kept transients: %+v", records[0])
	}
}
