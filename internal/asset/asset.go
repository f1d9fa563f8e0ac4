package asset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stage identifies an asset's position in the HQ or Edge pipeline.
type Stage string

const (
	StagePipeline  Stage = "pipeline"
	StageDownload  Stage = "download"
	StageRecord    Stage = "record"
	StageBroadcast Stage = "broadcast"
	StageReceive   Stage = "receive"
	StageRequest   Stage = "request"
	StageResponse  Stage = "response"
	StageFailed    Stage = "failed"
)

var allStages = []Stage{
	StagePipeline,
	StageDownload,
	StageRecord,
	StageBroadcast,
	StageReceive,
	StageRequest,
	StageResponse,
	StageFailed,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// Status tracks the cross-tier request/fulfillment lifecycle. It is
// independent of Stage; an asset with no status is broadcast but not yet
// requested.
type Status string

const (
	StatusNone      Status = ""
	StatusRequested Status = "requested"
	StatusFulfilled Status = "fulfilled"
	StatusCompleted Status = "completed"
)

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// ParseStatus converts a string into a known Status. The legacy terminal
// marker "responded" is accepted as a synonym for fulfilled.
func ParseStatus(value string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "requested":
		return StatusRequested, true
	case "fulfilled", "responded":
		return StatusFulfilled, true
	case "completed":
		return StatusCompleted, true
	default:
		return StatusNone, false
	}
}

// Pending reports whether the status marks an in-flight request.
func (s Status) Pending() bool { return s == StatusRequested }

// Resolved reports whether the status marks a fulfilled or completed request.
func (s Status) Resolved() bool { return s == StatusFulfilled || s == StatusCompleted }

// Asset is the unit of work flowing through the pipeline. ID is derived from
// the source href and identifies the same logical asset across stages and
// tiers. Display metadata is immutable after ingestion.
type Asset struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	PreviewRef  string    `json:"preview,omitempty"`
	Stage       Stage     `json:"stage,omitempty"`
	Status      Status    `json:"status,omitempty"`
	Analysis    string    `json:"analysis,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// WithStage returns an independent snapshot copy tagged with the given stage.
// Previously emitted snapshots are never mutated; observers treat each
// (id, stage) pair as a distinct immutable record.
func (a Asset) WithStage(stage Stage) Asset {
	snapshot := a
	snapshot.Stage = stage
	snapshot.CreatedAt = time.Now().UTC()
	return snapshot
}

// WithStatus returns an independent snapshot copy carrying the given status.
func (a Asset) WithStatus(status Status) Asset {
	snapshot := a
	snapshot.Status = status
	return snapshot
}

// Requestable reports whether an Edge site may request this asset: it must
// have been durably received and have no in-flight or resolved request.
func (a Asset) Requestable() bool {
	return a.Stage == StageReceive && a.Status == StatusNone
}

// Encode serializes the asset for transport.
func Encode(a Asset) ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode asset %s: %w", a.ID, err)
	}
	return payload, nil
}

// EncodeBatch serializes a batch of assets for transport, preserving order.
func EncodeBatch(assets []Asset) ([][]byte, error) {
	payloads := make([][]byte, 0, len(assets))
	for _, a := range assets {
		payload, err := Encode(a)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// Decode deserializes a transport payload into an Asset. Stage and status
// values are normalized to their canonical spellings; the legacy "responded"
// marker decodes as fulfilled so consumers treat the two as synonyms.
// Unknown values pass through untouched for consumers to skip.
func Decode(payload []byte) (Asset, error) {
	var a Asset
	if err := json.Unmarshal(payload, &a); err != nil {
		return Asset{}, fmt.Errorf("decode asset payload: %w", err)
	}
	if strings.TrimSpace(a.ID) == "" {
		return Asset{}, fmt.Errorf("decode asset payload: missing id")
	}
	if stage, ok := ParseStage(string(a.Stage)); ok {
		a.Stage = stage
	}
	if status, ok := ParseStatus(string(a.Status)); ok {
		a.Status = status
	}
	return a, nil
}
