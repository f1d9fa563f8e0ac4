package workflow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"uplink/internal/logging"
	"uplink/internal/testsupport"
	"uplink/internal/workflow"
)

func TestManagerRunsUnitsUntilStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.PollInterval = 1

	var drains atomic.Int64
	manager := workflow.NewManager(cfg, logging.NewNop(), workflow.Unit{
		Name: "counter",
		Drain: func(ctx context.Context) int {
			drains.Add(1)
			return 0
		},
	})

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	manager.Stop()

	if drains.Load() == 0 {
		t.Fatal("unit never drained")
	}
	settled := drains.Load()
	time.Sleep(50 * time.Millisecond)
	if drains.Load() != settled {
		t.Fatal("unit kept draining after Stop")
	}
}

func TestManagerRejectsDoubleStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := workflow.NewManager(cfg, logging.NewNop(), workflow.Unit{
		Name:  "idle",
		Drain: func(ctx context.Context) int { return 0 },
	})

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer manager.Stop()

	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("second start should fail while running")
	}
}

func TestManagerRejectsEmptyUnitList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := workflow.NewManager(cfg, logging.NewNop())
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("start with no units should fail")
	}
}

func TestManagerSerializesEachUnit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.PollInterval = 1

	var mu sync.Mutex
	active := 0
	maxActive := 0
	manager := workflow.NewManager(cfg, logging.NewNop(), workflow.Unit{
		Name: "slow",
		Drain: func(ctx context.Context) int {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return 0
		},
	})

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	manager.Stop()

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Fatalf("unit overlapped with itself: max concurrent passes = %d", maxActive)
	}
}
