package main

import (
	"strings"
	"testing"

	"uplink/internal/asset"
	"uplink/internal/status"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	want := map[string]bool{"hq": false, "edge": false, "catalog": false, "status": false, "config": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRenderCountersFollowsStageOrder(t *testing.T) {
	counts := map[asset.Stage]status.Counts{
		asset.StageBroadcast: {Succeeded: 2},
		asset.StagePipeline:  {Succeeded: 5},
		asset.StageFailed:    {Failed: 1},
	}

	out := renderCounters(counts)
	pipelineIdx := strings.Index(out, "pipeline")
	broadcastIdx := strings.Index(out, "broadcast")
	failedIdx := strings.Index(out, "failed")
	if pipelineIdx < 0 || broadcastIdx < 0 || failedIdx < 0 {
		t.Fatalf("summary missing stages:\n%s", out)
	}
	if !(pipelineIdx < broadcastIdx && broadcastIdx < failedIdx) {
		t.Errorf("stages out of order:\n%s", out)
	}
}

func TestRenderCountersEmptyWhenNothingObserved(t *testing.T) {
	if out := renderCounters(nil); out != "" {
		t.Errorf("expected empty summary, got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long keyword list indeed", 10); got != "a very ..." {
		t.Errorf("truncate long = %q", got)
	}
}
