package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"uplink/internal/asset"
	"uplink/internal/config"
	"uplink/internal/status"
	"uplink/internal/workflow"
)

// runWithLock holds a tier-scoped file lock while the manager drains, so a
// host never runs two engines against the same consumer groups. Blocks
// until interrupted, then prints the tracker's stage counters.
func runWithLock(tier string, cfg *config.Config, manager *workflow.Manager, tracker *status.Tracker) error {
	lock := flock.New(filepath.Join(cfg.Paths.LockDir, "uplink-"+tier+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire %s lock: %w", tier, err)
	}
	if !ok {
		return fmt.Errorf("another uplink %s instance is already running", tier)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	<-ctx.Done()
	manager.Stop()

	if summary := renderCounters(tracker.Counters()); summary != "" {
		fmt.Println(summary)
	}
	return nil
}

func renderCounters(counts map[asset.Stage]status.Counts) string {
	rows := make([][]string, 0, len(counts))
	for _, stage := range asset.AllStages() {
		c, ok := counts[stage]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			string(stage),
			fmt.Sprintf("%d", c.Succeeded),
			fmt.Sprintf("%d", c.Failed),
		})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(
		[]string{"Stage", "Succeeded", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)
}

var errNotRequestable = errors.New("asset is unknown at this tier or already has a request in flight")
