package sniper

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/monitor"
	"github.com/tradertony/snipe-agent/internal/risk"
)

// Manager owns the command surface over snipe controllers: one live
// controller per token, created by SetupSnipe and driven to a terminal state
// by its own task.
type Manager struct {
	monitor  *monitor.Monitor
	registry *Registry
	analyzer *risk.Analyzer
	executor *Executor
	interval time.Duration
	logger   *logrus.Logger

	mu     sync.Mutex
	snipes map[string]*Controller
}

func NewManager(mon *monitor.Monitor, analyzer *risk.Analyzer, executor *Executor, tickInterval time.Duration, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		monitor:  mon,
		registry: NewRegistry(),
		analyzer: analyzer,
		executor: executor,
		interval: tickInterval,
		logger:   logger,
		snipes:   make(map[string]*Controller),
	}
}

// Registry exposes the shared armed/executing registry, mainly for tests.
func (m *Manager) Registry() *Registry { return m.registry }

// SetupSnipe validates the config, creates a controller, and arms it. The
// returned controller is the operator's handle for status and cancellation.
func (m *Manager) SetupSnipe(ctx context.Context, cfg Config) (*Controller, error) {
	ctrl, err := NewController(cfg, m.monitor, m.registry, m.analyzer, m.executor, m.interval, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if prev, ok := m.snipes[cfg.Token]; ok && !prev.State().Terminal() {
		m.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	m.snipes[cfg.Token] = ctrl
	m.mu.Unlock()

	if err := ctrl.Arm(ctx); err != nil {
		m.mu.Lock()
		delete(m.snipes, cfg.Token)
		m.mu.Unlock()
		return nil, err
	}
	return ctrl, nil
}

// Cancel requests cancellation of the token's snipe. Returns false when no
// cancellable snipe exists.
func (m *Manager) Cancel(token string) bool {
	m.mu.Lock()
	ctrl, ok := m.snipes[token]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return ctrl.Cancel()
}

// GetStatus returns the token's lifecycle state. A token with no snipe
// reports a ValidationError.
func (m *Manager) GetStatus(token string) (State, string, error) {
	m.mu.Lock()
	ctrl, ok := m.snipes[token]
	m.mu.Unlock()
	if !ok {
		return "", "", &models.ValidationError{Field: "token", Msg: "no snipe for token"}
	}
	return ctrl.State(), ctrl.Reason(), nil
}

// Get returns the controller handle for a token, nil when none exists.
func (m *Manager) Get(token string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snipes[token]
}
