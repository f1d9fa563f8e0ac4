package asset_test

import (
	"testing"

	"uplink/internal/asset"
)

func TestWithStageProducesIndependentSnapshot(t *testing.T) {
	original := asset.Asset{ID: "img/x1", Title: "Flood Zone"}
	snapshot := original.WithStage(asset.StageDownload)

	if snapshot.Stage != asset.StageDownload {
		t.Fatalf("expected stage download, got %s", snapshot.Stage)
	}
	if snapshot.CreatedAt.IsZero() {
		t.Fatal("expected snapshot timestamp to be assigned")
	}
	if original.Stage != "" {
		t.Fatalf("original mutated: stage %s", original.Stage)
	}
	if !original.CreatedAt.IsZero() {
		t.Fatal("original timestamp mutated")
	}

	second := original.WithStage(asset.StageBroadcast)
	if snapshot.Stage != asset.StageDownload || second.Stage != asset.StageBroadcast {
		t.Fatalf("snapshots not independent: %s / %s", snapshot.Stage, second.Stage)
	}
}

func TestParseStatusAcceptsRespondedSynonym(t *testing.T) {
	cases := []struct {
		in   string
		want asset.Status
		ok   bool
	}{
		{"requested", asset.StatusRequested, true},
		{"fulfilled", asset.StatusFulfilled, true},
		{"responded", asset.StatusFulfilled, true},
		{"Responded", asset.StatusFulfilled, true},
		{"completed", asset.StatusCompleted, true},
		{"", asset.StatusNone, false},
		{"bogus", asset.StatusNone, false},
	}
	for _, tc := range cases {
		got, ok := asset.ParseStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseStatus(%q) = %s, %v; want %s, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseStage(t *testing.T) {
	for _, stage := range asset.AllStages() {
		parsed, ok := asset.ParseStage(string(stage))
		if !ok || parsed != stage {
			t.Fatalf("ParseStage(%s) = %s, %v", stage, parsed, ok)
		}
	}
	if _, ok := asset.ParseStage("encoding"); ok {
		t.Fatal("expected unknown stage to be rejected")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := asset.Asset{
		ID:          "img/x1",
		Title:       "Flood Zone",
		Description: "aerial flood imagery",
		Keywords:    "flood, disaster",
		PreviewRef:  "img/x1.png",
		Status:      asset.StatusRequested,
	}
	payload, err := asset.Encode(in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, err := asset.Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.ID != in.ID || out.Title != in.Title || out.Status != in.Status {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestDecodeNormalizesStatusAndStage(t *testing.T) {
	out, err := asset.Decode([]byte(`{"id":"img/x1","stage":"Response","status":"responded"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.Status != asset.StatusFulfilled {
		t.Fatalf("responded decoded as %q, want fulfilled", out.Status)
	}
	if out.Stage != asset.StageResponse {
		t.Fatalf("stage decoded as %q, want response", out.Stage)
	}
	if !out.Status.Resolved() {
		t.Fatal("decoded responded status must count as resolved")
	}

	// Unknown values pass through for consumers to skip.
	out, err = asset.Decode([]byte(`{"id":"img/x2","status":"bogus"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.Status != asset.Status("bogus") {
		t.Fatalf("unknown status rewritten to %q", out.Status)
	}
}

func TestDecodeRejectsMissingID(t *testing.T) {
	if _, err := asset.Decode([]byte(`{"title":"no id"}`)); err == nil {
		t.Fatal("expected decode error for payload without id")
	}
	if _, err := asset.Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}

func TestRequestable(t *testing.T) {
	a := asset.Asset{ID: "img/x1", Stage: asset.StageReceive}
	if !a.Requestable() {
		t.Fatal("received asset with no status should be requestable")
	}
	if a.WithStatus(asset.StatusRequested).Requestable() {
		t.Fatal("requested asset should not be requestable")
	}
	failed := asset.Asset{ID: "img/x1", Stage: asset.StageFailed}
	if failed.Requestable() {
		t.Fatal("failed asset should not be requestable")
	}
}
