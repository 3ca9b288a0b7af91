// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package engine replays a toolpath against the motion controller, one
// instruction at a time. It owns the run's modal state, synchronizes
// camera captures and operator barriers with head motion, folds the
// optional pressure feedback loop into extruding moves, and guarantees
// that instructions execute in exactly toolpath order.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Mita3055/diwctl/pkg/camera"
	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/log"
	"github.com/Mita3055/diwctl/pkg/metrics"
	"github.com/Mita3055/diwctl/pkg/pressure"
	"github.com/Mita3055/diwctl/pkg/profile"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

// State of a run. The engine is strictly sequential, so exactly one
// state is active at a time.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateAwaitingCapture
	StateAwaitingInput
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateAwaitingCapture:
		return "awaiting_capture"
	case StateAwaitingInput:
		return "awaiting_user_input"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Controller is the motion controller surface the engine drives. A
// klipper.Client satisfies it.
type Controller interface {
	SendGCode(ctx context.Context, script string) error
	WaitForIdle(ctx context.Context, timeout time.Duration) bool
	EmergencyStop()
}

// Console receives operator-facing messages. Sends never fail the run.
type Console interface {
	Print(text string)
}

// ConsoleFunc adapts a function to Console.
type ConsoleFunc func(text string)

// Print implements Console.
func (f ConsoleFunc) Print(text string) { f(text) }

// LoadCell reads the nozzle pressure in newtons. ok is false when no
// reading is available, which skips the pressure tick.
type LoadCell interface {
	Load() (value float64, ok bool)
}

// SendPolicy decides what a failed G-code send does to the run.
type SendPolicy int

const (
	// ContinueOnSendError logs the failure and moves to the next
	// instruction. The historical default.
	ContinueOnSendError SendPolicy = iota
	// AbortOnSendError stops the run on the first exhausted send.
	AbortOnSendError
)

// Config tunes one engine instance.
type Config struct {
	Profile profile.Printer

	SendPolicy SendPolicy
	// SendRetries is how many times an individual send is re-attempted
	// before the policy applies.
	SendRetries int
	// SendDelay is a short fixed pause after every accepted send so the
	// controller's command queue is not saturated.
	SendDelay time.Duration
	// IdleTimeout bounds every wait_for_idle call.
	IdleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return c
}

// Engine executes toolpaths. One run at a time; the engine owns the
// controller and pressure controller for the run's lifetime.
type Engine struct {
	cfg      Config
	ctrl     Controller
	capturer camera.Capturer
	console  Console
	loadCell LoadCell
	press    *pressure.Controller
	met      *metrics.Metrics
	logger   *log.Logger

	state   atomic.Int32
	aborted atomic.Bool
	ack     chan struct{}

	// Live extrusion rate while the pressure loop is active.
	liveRate float64

	lapses []*camera.Timelapse

	sleep func(time.Duration)
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithCapturer attaches the camera collaborator. Without one, captures
// are logged and skipped as hardware faults.
func WithCapturer(c camera.Capturer) Option {
	return func(e *Engine) { e.capturer = c }
}

// WithConsole attaches the operator console.
func WithConsole(c Console) Option {
	return func(e *Engine) { e.console = c }
}

// WithPressureLoop attaches the load cell and PD controller pair.
func WithPressureLoop(cell LoadCell, ctrl *pressure.Controller) Option {
	return func(e *Engine) {
		e.loadCell = cell
		e.press = ctrl
	}
}

// WithMetrics attaches run instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.met = m }
}

// New builds an engine around a motion controller.
func New(cfg Config, ctrl Controller, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg.withDefaults(),
		ctrl:   ctrl,
		logger: log.GetLogger().WithPrefix("engine"),
		ack:    make(chan struct{}, 1),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.console == nil {
		logger := e.logger
		e.console = ConsoleFunc(func(text string) {
			logger.WithField("message", text).Info("operator message")
		})
	}
	return e
}

// State returns the current run state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Acknowledge releases a pending Wait barrier. Level-triggered: an
// acknowledgment arriving slightly before the barrier is not lost.
func (e *Engine) Acknowledge() {
	select {
	case e.ack <- struct{}{}:
	default:
	}
}

// Abort cancels the run: no further instructions dispatch and the
// controller receives an emergency stop for any motion in flight.
func (e *Engine) Abort() {
	if e.aborted.Swap(true) {
		return
	}
	e.logger.Warn("run aborted by operator")
	e.ctrl.EmergencyStop()
	if e.press != nil {
		e.press.Reset()
	}
}

// Run replays the toolpath exactly once. It returns nil on completion;
// the only errors that escape are an operator abort, a context
// cancellation, or an exhausted send under AbortOnSendError.
func (e *Engine) Run(ctx context.Context, tp toolpath.Toolpath) error {
	e.aborted.Store(false)
	e.liveRate = e.cfg.Profile.ExtrusionRate
	if e.press != nil {
		e.press.Reset()
	}
	enc := toolpath.NewEncoder(e.cfg.Profile)
	e.setState(StateRunning)

	for i, inst := range tp {
		if err := e.checkAbort(ctx); err != nil {
			e.finish(StateAborted)
			return err
		}
		if err := e.dispatch(ctx, enc, i, inst); err != nil {
			if errors.Is(err, errors.ErrAborted) {
				e.finish(StateAborted)
			} else {
				e.finish(StateAborted)
				e.logger.WithError(err).Error("run stopped")
			}
			return err
		}
		e.setState(StateRunning)
	}

	e.stopTimelapses()
	e.finish(StateDone)
	e.logger.WithField("instructions", len(tp)).Info("run complete")
	return nil
}

func (e *Engine) dispatch(ctx context.Context, enc *toolpath.Encoder, idx int, inst toolpath.Instruction) error {
	switch v := inst.(type) {
	case toolpath.Raw:
		line := strings.TrimSpace(v.GCode)
		if line == "" || strings.HasPrefix(line, ";") {
			return nil
		}
		e.met.ObserveInstruction("raw")
		return e.send(ctx, line)

	case toolpath.Move:
		if v.Extrude && v.Rate == 0 {
			e.pressureTick(enc)
		}
		e.met.ObserveInstruction("move")
		return e.encodeAndSend(ctx, enc, idx, v)

	case toolpath.SetMode:
		e.met.ObserveInstruction("set_mode")
		return e.encodeAndSend(ctx, enc, idx, v)

	case toolpath.Home:
		e.met.ObserveInstruction("home")
		return e.encodeAndSend(ctx, enc, idx, v)

	case toolpath.Retract:
		e.met.ObserveInstruction("retract")
		return e.encodeAndSend(ctx, enc, idx, v)

	case toolpath.Capture:
		e.met.ObserveInstruction("capture")
		return e.capture(ctx, enc, v)

	case toolpath.Pause:
		e.met.ObserveInstruction("pause")
		e.setState(StatePaused)
		if !e.ctrl.WaitForIdle(ctx, e.cfg.IdleTimeout) {
			e.met.ObserveIdleTimeout()
		}
		e.sleep(time.Duration(v.Seconds * float64(time.Second)))
		return nil

	case toolpath.Wait:
		e.met.ObserveInstruction("wait")
		return e.waitForAck(ctx)

	case toolpath.Message:
		e.met.ObserveInstruction("message")
		e.console.Print(v.Text)
		e.logger.WithField("text", v.Text).Debug("message forwarded")
		return nil

	case toolpath.Invalid:
		e.logger.WithFields(log.Fields{
			"index":  idx,
			"line":   v.Line,
			"reason": v.Reason,
		}).Warn("skipping malformed directive")
		return nil

	default:
		e.logger.WithField("type", fmt.Sprintf("%T", inst)).
			Warn("skipping unknown instruction")
		return nil
	}
}

func (e *Engine) encodeAndSend(ctx context.Context, enc *toolpath.Encoder, idx int, inst toolpath.Instruction) error {
	lines, err := enc.Encode(inst)
	if err != nil {
		return errors.Wrap(errors.ErrToolpath, err, fmt.Sprintf("instruction %d", idx))
	}
	for _, line := range lines {
		if err := e.send(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

// send submits one line, retrying per config. Under the continue policy
// an exhausted send is logged and swallowed; under the abort policy it
// is returned.
func (e *Engine) send(ctx context.Context, line string) error {
	var err error
	for attempt := 0; attempt <= e.cfg.SendRetries; attempt++ {
		if attempt > 0 {
			e.met.ObserveSendRetry()
		}
		err = e.ctrl.SendGCode(ctx, line)
		if err == nil {
			if e.cfg.SendDelay > 0 {
				e.sleep(e.cfg.SendDelay)
			}
			return nil
		}
	}
	e.met.ObserveSendFailure()
	e.logger.WithError(err).WithField("gcode", line).Warn("send failed")
	if e.cfg.SendPolicy == AbortOnSendError {
		return errors.SendError(line, err)
	}
	return nil
}

// pressureTick consults the PD loop once before an extruding move and
// installs the corrected rate on the encoder.
func (e *Engine) pressureTick(enc *toolpath.Encoder) {
	if e.press == nil || e.loadCell == nil {
		return
	}
	reading, ok := e.loadCell.Load()
	if !ok {
		e.logger.Debug("no load-cell reading, extrusion rate unchanged")
		return
	}
	rate := e.press.CalculateExtrusionRate(e.liveRate, reading, true)
	if rate != e.liveRate {
		e.liveRate = rate
		e.met.ObservePressureCorrection(rate)
	}
	enc.SetLiveRate(rate)
}

// capture parks the head at the capture coordinate and blocks until the
// exposure finishes. The move is staged: Z first, then XY, so the
// nozzle clears the print before traversing it. The prior modal state
// is re-established afterwards.
func (e *Engine) capture(ctx context.Context, enc *toolpath.Encoder, c toolpath.Capture) error {
	e.setState(StateAwaitingCapture)
	absolute, known := enc.Mode()

	if err := e.send(ctx, "G90"); err != nil {
		return err
	}
	if err := e.send(ctx, fmt.Sprintf("G1 Z%g F%g", c.Z, e.cfg.Profile.MovementSpeed)); err != nil {
		return err
	}
	if err := e.send(ctx, fmt.Sprintf("G1 X%g Y%g F%g", c.X, c.Y, e.cfg.Profile.MovementSpeed)); err != nil {
		return err
	}
	if !e.ctrl.WaitForIdle(ctx, e.cfg.IdleTimeout) {
		e.met.ObserveIdleTimeout()
	}

	req := camera.Request{Camera: c.Camera, Filename: c.Filename}
	switch {
	case e.capturer == nil:
		e.logger.WithField("filename", c.Filename).
			Warn("no camera attached, capture skipped")
		e.met.ObserveCapture("failed")
	case c.Timelapse != nil:
		tl := camera.NewTimelapse(e.capturer, req,
			time.Duration(c.Timelapse.Interval*float64(time.Second)),
			time.Duration(c.Timelapse.Duration*float64(time.Second)))
		tl.Start()
		e.lapses = append(e.lapses, tl)
		e.logger.WithField("filename", c.Filename).Info("timelapse started")
		e.met.ObserveCapture("ok")
	default:
		if err := e.capturer.Capture(req); err != nil {
			e.logger.WithError(err).WithField("filename", c.Filename).
				Warn("capture failed")
			e.met.ObserveCapture("failed")
		} else {
			e.logger.WithField("filename", c.Filename).Info("capture taken")
			e.met.ObserveCapture("ok")
		}
	}

	// Restore the mode the pattern was printing in.
	if known && !absolute {
		return e.send(ctx, "G91")
	}
	return nil
}

func (e *Engine) waitForAck(ctx context.Context) error {
	e.setState(StateAwaitingInput)
	e.logger.Info("waiting for operator acknowledgment")
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-e.ack:
			e.logger.Info("operator acknowledged")
			return nil
		case <-ctx.Done():
			return errors.Wrap(errors.ErrAborted, ctx.Err(), "run cancelled")
		case <-ticker.C:
			if e.aborted.Load() {
				return errors.New(errors.ErrAborted, "run aborted")
			}
		}
	}
}

func (e *Engine) checkAbort(ctx context.Context) error {
	if e.aborted.Load() {
		return errors.New(errors.ErrAborted, "run aborted")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrAborted, err, "run cancelled")
	}
	return nil
}

func (e *Engine) stopTimelapses() {
	for _, tl := range e.lapses {
		if err := tl.Stop(); err != nil {
			e.logger.WithError(err).Warn("timelapse worker left running")
		}
	}
	e.lapses = nil
}

func (e *Engine) setState(s State) {
	if State(e.state.Swap(int32(s))) != s {
		e.met.SetRunState(float64(s))
		e.logger.WithField("state", s.String()).Debug("state changed")
	}
}

func (e *Engine) finish(s State) {
	e.stopTimelapses()
	e.setState(s)
	e.met.ObserveRunEnd(s.String())
	if e.press != nil {
		e.press.Reset()
	}
}
