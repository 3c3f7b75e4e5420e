// internal/engine/engine.go

// Package engine runs a declared sequence of browser actions strictly in
// order against a single session and produces one record per action.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/config"
	"github.com/anuj123upadhyay/pagedriver/internal/results"
)

// State tracks the engine lifecycle through a run.
type State int

const (
	StateIdle State = iota
	StateSessionStarting
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSessionStarting:
		return "session_starting"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Engine executes one action list per Execute call. Actions run strictly
// sequentially; a failed action is recorded and the run continues, unless the
// session itself is gone.
type Engine struct {
	cfg     *config.Config
	logger  *zap.Logger
	factory schemas.SessionFactory

	mu    sync.Mutex
	state State
}

// NewEngine wires an engine to its session factory.
func NewEngine(cfg *config.Config, logger *zap.Logger, factory schemas.SessionFactory) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.Named("engine"),
		factory: factory,
		state:   StateIdle,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	e.logger.Debug("Engine state changed.",
		zap.Stringer("from", prev), zap.Stringer("to", s))
}

// Execute validates the whole list up front, starts a session, and runs each
// action in order. A malformed descriptor anywhere in the list aborts before
// any browser work with a configuration error and no result. Every other
// failure mode still yields a complete RunResult with one record per action.
func (e *Engine) Execute(ctx context.Context, actions []schemas.Action) (*schemas.RunResult, error) {
	for i := range actions {
		if err := actions[i].Validate(); err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, actions[i].Kind, err)
		}
	}

	e.setState(StateSessionStarting)
	defer e.setState(StateFinished)

	runID := uuid.New().String()
	logger := e.logger.With(zap.String("run_id", runID))

	started := time.Now()
	logger.Info("Starting action run.", zap.Int("action_count", len(actions)))

	session, err := e.factory(ctx)
	if err != nil {
		logger.Error("Failed to start browser session.", zap.Error(err))
		records := e.failAll(actions, 0, fmt.Errorf("%w: %v", schemas.ErrSessionTerminated, err))
		result := results.Aggregate(records, time.Now())
		return &result, nil
	}
	defer func() {
		if cerr := session.Close(context.Background()); cerr != nil {
			e.logger.Warn("Error while closing browser session.", zap.Error(cerr))
		}
	}()

	e.setState(StateRunning)

	records := make([]schemas.ActionResult, 0, len(actions))
	for i := range actions {
		if ctx.Err() != nil || session.Terminated() {
			cause := ctx.Err()
			if cause == nil {
				cause = errors.New("browser session terminated")
			}
			logger.Warn("Session lost, failing remaining actions.",
				zap.Int("remaining", len(actions)-i), zap.Error(cause))
			records = append(records, e.failAll(actions, i, fmt.Errorf("%w: %v", schemas.ErrSessionTerminated, cause))...)
			break
		}
		records = append(records, e.executeOne(ctx, session, &actions[i], i, len(actions)))
	}

	result := results.Aggregate(records, time.Now())
	logger.Info("Action run complete.",
		zap.Int("total", result.Stats.TotalActions),
		zap.Int("succeeded", result.Stats.SuccessfulActions),
		zap.Int("failed", result.Stats.FailedActions),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &result, nil
}

// executeOne runs a single action under its own deadline and records the
// outcome. Failures are captured, never propagated.
func (e *Engine) executeOne(ctx context.Context, session schemas.Session, a *schemas.Action, index, total int) schemas.ActionResult {
	timeoutMs := a.Timeout(int(e.cfg.Engine.DefaultActionTimeout / time.Millisecond))
	if maxMs := int(e.cfg.Engine.MaxActionTimeout / time.Millisecond); maxMs > 0 && timeoutMs > maxMs {
		timeoutMs = maxMs
	}
	actionCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	e.logger.Info(fmt.Sprintf("[%d/%d] Executing action.", index+1, total),
		zap.String("type", string(a.Kind)),
		zap.String("selector", a.Selector),
		zap.Int("timeout_ms", timeoutMs),
	)

	started := time.Now()
	output, screenshot, err := e.perform(actionCtx, session, a)
	elapsed := time.Since(started)

	record := schemas.ActionResult{
		Kind:            a.Kind,
		Selector:        a.Selector,
		Value:           string(a.Value),
		Description:     a.Description,
		ExecutionTimeMs: float64(elapsed) / float64(time.Millisecond),
		Timestamp:       schemas.ISOTimestamp(time.Now()),
	}

	if err != nil {
		record.Error = err.Error()
		e.logger.Warn(fmt.Sprintf("[%d/%d] Action failed.", index+1, total),
			zap.String("type", string(a.Kind)),
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
		)
		return record
	}

	record.Success = true
	if len(screenshot) > 0 {
		record.HasScreenshot = true
		record.Output = fmt.Sprintf("Screenshot captured (%d bytes)", len(screenshot))
		e.saveScreenshot(screenshot, index)
	} else {
		record.Output = output
	}

	e.logger.Info(fmt.Sprintf("[%d/%d] Action succeeded.", index+1, total),
		zap.String("type", string(a.Kind)),
		zap.Duration("elapsed", elapsed),
	)
	return record
}

// saveScreenshot writes the PNG artifact when a screenshot directory is
// configured. A write failure does not fail the action: the capture already
// succeeded and is reflected in the record.
func (e *Engine) saveScreenshot(data []byte, index int) {
	dir := e.cfg.Engine.ScreenshotDir
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Warn("Could not create screenshot directory.", zap.String("dir", dir), zap.Error(err))
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%03d.png", index+1))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.logger.Warn("Could not write screenshot file.", zap.String("path", path), zap.Error(err))
		return
	}
	e.logger.Debug("Screenshot saved.", zap.String("path", path), zap.Int("bytes", len(data)))
}

// failAll marks actions[from:] as failed with the given cause, preserving the
// one-record-per-descriptor invariant.
func (e *Engine) failAll(actions []schemas.Action, from int, cause error) []schemas.ActionResult {
	now := schemas.ISOTimestamp(time.Now())
	records := make([]schemas.ActionResult, 0, len(actions)-from)
	for _, a := range actions[from:] {
		records = append(records, schemas.ActionResult{
			Kind:        a.Kind,
			Selector:    a.Selector,
			Value:       string(a.Value),
			Description: a.Description,
			Error:       cause.Error(),
			Timestamp:   now,
		})
	}
	return records
}
