package sniper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/monitor"
	"github.com/tradertony/snipe-agent/internal/risk"
)

// Controller drives one snipe through its lifecycle:
//
//	INIT -> CONFIGURED -> ARMED -> EXECUTING -> HOLDING -> CLOSED
//
// with terminal side-states REJECTED, FAILED, CANCELLED. It exclusively owns
// its Config and Position; the only state shared with other controllers is
// the armed/executing registry.
type Controller struct {
	cfg      Config
	monitor  *monitor.Monitor
	registry *Registry
	analyzer *risk.Analyzer
	executor *Executor
	interval time.Duration
	logger   *logrus.Logger

	mu       sync.Mutex
	state    State
	reason   string
	pos      *Position
	lastRisk *risk.Assessment
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewController validates the config and returns a CONFIGURED controller.
// Invalid input fails with ValidationError and no controller is created,
// which is the INIT-state failure the lifecycle describes.
func NewController(
	cfg Config,
	mon *monitor.Monitor,
	registry *Registry,
	analyzer *risk.Analyzer,
	executor *Executor,
	tickInterval time.Duration,
	logger *logrus.Logger,
) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		cfg:      cfg,
		monitor:  mon,
		registry: registry,
		analyzer: analyzer,
		executor: executor,
		interval: tickInterval,
		logger:   logger,
		state:    StateConfigured,
		done:     make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns the human-readable explanation for the current state.
func (c *Controller) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Position returns the position record, nil before HOLDING.
func (c *Controller) Position() *Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// RiskAssessment returns the gate result from the trigger, nil before firing.
func (c *Controller) RiskAssessment() *risk.Assessment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRisk
}

// Config returns a copy of the immutable snipe configuration.
func (c *Controller) Config() Config { return c.cfg }

// Done is closed when the controller reaches a terminal state.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Arm claims the per-token registry slot, registers the LP-addition watch,
// and starts the lifecycle task. Fails with ErrAlreadyActive when another
// controller holds the token armed or executing.
func (c *Controller) Arm(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConfigured {
		state := c.state
		c.mu.Unlock()
		return &stateError{op: "arm", state: state}
	}
	c.mu.Unlock()

	if !c.registry.TryAcquire(c.cfg.Token) {
		return ErrAlreadyActive
	}

	events, unregister := c.monitor.RegisterLPWatch(c.cfg.Token)

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.state = StateArmed
	c.mu.Unlock()

	c.logger.WithField("token", c.cfg.Token).Info("snipe armed")

	go c.run(runCtx, events, unregister)
	return nil
}

// Cancel requests cooperative cancellation. It is honored at the task's next
// suspension point: an armed snipe stops waiting, a held position stops being
// monitored without a force-sell. An in-flight buy submission is never
// aborted. Returns false when the snipe is already terminal.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return false
	}
	if c.state == StateConfigured {
		// Never started a task; settle directly.
		c.state = StateCancelled
		c.reason = "cancelled before arming"
		close(c.done)
		return true
	}
	if c.cancel != nil {
		c.cancel()
	}
	return true
}

func (c *Controller) run(ctx context.Context, events <-chan monitor.LPAddition, unregister func()) {
	defer unregister()

	// Armed: wait for the LP-addition predicate. No implicit timeout.
	var trigger monitor.LPAddition
	select {
	case <-ctx.Done():
		c.registry.Release(c.cfg.Token)
		c.settle(StateCancelled, "cancelled while armed")
		return
	case trigger = <-events:
	}

	c.logger.WithFields(logrus.Fields{
		"token":       c.cfg.Token,
		"pool":        trigger.Pool.Address,
		"prev_supply": trigger.PrevSupply,
		"lp_supply":   trigger.Pool.LPSupply,
	}).Info("liquidity trigger fired")

	// Risk gate always precedes submission. The gate and the buy run on an
	// uncancellable context: once the trigger fires, cancellation no longer
	// aborts the in-flight work, it only applies at later suspension points.
	execCtx := context.WithoutCancel(ctx)

	assessment, err := c.analyzer.Analyze(execCtx, c.cfg.Token)
	if err != nil {
		c.registry.Release(c.cfg.Token)
		c.settle(StateFailed, "risk analysis failed: "+err.Error())
		return
	}
	c.mu.Lock()
	c.lastRisk = assessment
	c.mu.Unlock()

	if assessment.Rejected {
		c.registry.Release(c.cfg.Token)
		c.settle(StateRejected, "risk score "+strconv.Itoa(assessment.Score)+" above limit: "+assessment.Rationale)
		return
	}

	c.setState(StateExecuting, "buy in flight")

	buy, err := c.executor.ExecuteBuy(execCtx, &c.cfg, assessment)
	c.registry.Release(c.cfg.Token)
	if err != nil {
		c.settle(StateFailed, "buy failed: "+err.Error())
		return
	}

	pos := NewPosition(&c.cfg, buy)
	pos.RiskScore = assessment.Score
	pos.RiskRationale = assessment.Rationale
	c.mu.Lock()
	c.pos = pos
	c.state = StateHolding
	c.reason = "position open at " + buy.Signature
	c.mu.Unlock()

	pm := NewPositionMonitor(c.executor, c.executor.resolver, &c.cfg, pos, c.interval, c.logger)
	reason, _, err := pm.Run(ctx)
	if err != nil {
		// Cancelled while holding: monitoring stops, the position is kept.
		c.settle(StateCancelled, "monitoring stopped, position still held")
		return
	}
	c.settle(StateClosed, "position closed: "+reason)
}

func (c *Controller) setState(s State, reason string) {
	c.mu.Lock()
	c.state = s
	c.reason = reason
	c.mu.Unlock()
	c.logger.WithFields(logrus.Fields{
		"token": c.cfg.Token,
		"state": s,
	}).Info(reason)
}

// settle moves to a terminal state and signals completion.
func (c *Controller) settle(s State, reason string) {
	c.setState(s, reason)
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()
}

type stateError struct {
	op    string
	state State
}

func (e *stateError) Error() string {
	return "cannot " + e.op + " from state " + string(e.state)
}
