package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"uplink/internal/config"
	"uplink/internal/logging"
)

// Unit is one drain pass the manager schedules: a named function that
// drains a logical consumer to exhaustion and reports how many messages it
// handled. A unit owns its consumer group; the manager guarantees the unit
// is never run concurrently with itself.
type Unit struct {
	Name  string
	Drain func(ctx context.Context) int
}

// Manager schedules drain units on a poll interval until stopped. Each unit
// runs on its own goroutine and is serialized with itself; distinct units
// run concurrently, which is safe because they drain distinct logical
// consumers.
type Manager struct {
	cfg          *config.Config
	logger       *slog.Logger
	units        []Unit
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a manager for the given drain units.
func NewManager(cfg *config.Config, logger *slog.Logger, units ...Unit) *Manager {
	return &Manager{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		units:        units,
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if len(m.units) == 0 {
		return errors.New("no drain units configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(len(m.units))
	for _, unit := range m.units {
		go m.runUnit(runCtx, unit)
	}
	m.logger.Info("workflow started", logging.Int("units", len(m.units)))
	return nil
}

// Stop terminates background processing and waits for in-flight drain
// passes to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

func (m *Manager) runUnit(ctx context.Context, unit Unit) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String("unit", unit.Name))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if handled := unit.Drain(ctx); handled > 0 {
			logger.Debug("drain pass complete", logging.Int("messages", handled))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pollInterval):
		}
	}
}
