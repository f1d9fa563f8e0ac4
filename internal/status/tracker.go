package status

import (
	"sync"
	"time"

	"uplink/internal/asset"
)

// Entry is one observed asset snapshot, retained for display.
type Entry struct {
	Asset      asset.Asset
	ObservedAt time.Time
}

// Counts aggregates outcomes for one stage.
type Counts struct {
	Succeeded int
	Failed    int
}

// Tracker is a push-only observability sink. Engines publish tagged asset
// snapshots into it; readers get a bounded, newest-first view. The tracker
// never blocks or fails a pipeline step.
type Tracker struct {
	mu         sync.Mutex
	maxEntries int
	maxAge     time.Duration
	entries    []Entry
	counts     map[asset.Stage]Counts

	now func() time.Time
}

// NewTracker builds a tracker retaining at most maxEntries snapshots, each
// for at most maxAge. Non-positive bounds disable the respective limit.
func NewTracker(maxEntries int, maxAge time.Duration) *Tracker {
	return &Tracker{
		maxEntries: maxEntries,
		maxAge:     maxAge,
		counts:     make(map[asset.Stage]Counts),
		now:        time.Now,
	}
}

// Observe records a tagged snapshot and updates the per-stage counters.
func (t *Tracker) Observe(a asset.Asset) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.entries = append(t.entries, Entry{Asset: a, ObservedAt: now})
	t.evictLocked(now)

	counts := t.counts[a.Stage]
	if a.Stage == asset.StageFailed {
		counts.Failed++
	} else {
		counts.Succeeded++
	}
	t.counts[a.Stage] = counts
}

// Entries returns retained snapshots, newest first.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.evictLocked(t.now())
	out := make([]Entry, 0, len(t.entries))
	for i := len(t.entries) - 1; i >= 0; i-- {
		out = append(out, t.entries[i])
	}
	return out
}

// Counters returns a copy of the per-stage outcome counters. Counters are
// cumulative; eviction does not decrement them.
func (t *Tracker) Counters() map[asset.Stage]Counts {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[asset.Stage]Counts, len(t.counts))
	for stage, counts := range t.counts {
		out[stage] = counts
	}
	return out
}

func (t *Tracker) evictLocked(now time.Time) {
	if t.maxAge > 0 {
		cutoff := now.Add(-t.maxAge)
		firstLive := 0
		for firstLive < len(t.entries) && t.entries[firstLive].ObservedAt.Before(cutoff) {
			firstLive++
		}
		t.entries = t.entries[firstLive:]
	}
	if t.maxEntries > 0 && len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
}
