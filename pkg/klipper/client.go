// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package klipper is the motion controller adapter: an HTTP client for
// the Moonraker API fronting a Klipper host. It covers the handful of
// logical operations a print run needs (connect diagnostics, G-code
// sends, position and velocity queries, homing, idle waits, emergency
// stop) and hides the polling mechanics behind WaitForIdle so the
// engine never sees transport details.
package klipper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/log"
)

// Controller state as reported by /printer/info.
type State string

const (
	StateReady    State = "ready"
	StateStartup  State = "startup"
	StateError    State = "error"
	StateShutdown State = "shutdown"
	StateUnknown  State = "unknown"
)

// ConnectionState is the result of the connect diagnostic. Reachable
// alone gates whether a run may start; ready and error states are both
// usable for basic motion, shutdown is fatal.
type ConnectionState struct {
	Reachable     bool
	InfoAvailable bool
	State         State
}

// Usable reports whether a run may proceed against this controller.
func (cs ConnectionState) Usable() bool {
	return cs.Reachable && cs.State != StateShutdown
}

// Config holds the adapter settings.
type Config struct {
	// BaseURL is the Moonraker HTTP root, e.g. "http://pi4:7125".
	BaseURL string

	HTTPTimeout time.Duration

	// Idle detection knobs for WaitForIdle.
	IdlePollInterval      time.Duration
	IdleVelocityThreshold float64 // mm/s
	IdleDebounceCount     int
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 5 * time.Second
	}
	if c.IdlePollInterval == 0 {
		c.IdlePollInterval = 100 * time.Millisecond
	}
	if c.IdleVelocityThreshold == 0 {
		c.IdleVelocityThreshold = 0.1
	}
	if c.IdleDebounceCount == 0 {
		c.IdleDebounceCount = 2
	}
	return c
}

// Client talks to one Moonraker instance. Safe for use by a single run
// at a time; the engine owns it for the run's lifetime.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger

	// status is an optional websocket cache; when attached and healthy
	// it answers velocity queries without an HTTP round-trip.
	status *StatusListener

	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient returns a client for the given Moonraker endpoint.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: log.GetLogger().WithPrefix("klipper"),
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// AttachStatusListener wires a websocket status cache into the client.
func (c *Client) AttachStatusListener(s *StatusListener) {
	c.status = s
}

// Connect probes the controller and classifies the outcome. A transport
// failure returns Reachable=false together with a ConnectionError; a
// reachable server whose Klipper reports shutdown comes back with
// State=shutdown and no error, leaving the go/no-go call to the caller.
func (c *Client) Connect(ctx context.Context) (ConnectionState, error) {
	cs := ConnectionState{State: StateUnknown}

	if err := c.get(ctx, "/server/info", nil); err != nil {
		return cs, errors.ConnectionError(c.cfg.BaseURL, err)
	}
	cs.Reachable = true

	var info struct {
		Result struct {
			State        string `json:"state"`
			StateMessage string `json:"state_message"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/printer/info", &info); err != nil {
		c.logger.WithError(err).Warn("printer info unavailable")
		return cs, nil
	}
	cs.InfoAvailable = true
	switch State(info.Result.State) {
	case StateReady, StateStartup, StateError, StateShutdown:
		cs.State = State(info.Result.State)
	default:
		cs.State = StateUnknown
	}
	if cs.State == StateShutdown {
		c.logger.WithField("message", info.Result.StateMessage).
			Error("controller is shut down")
	}
	// The extruder is a pneumatic ink syringe; any heater setpoint
	// left over from a previous session must be cleared.
	if cs.State == StateReady {
		if err := c.ShutdownHeaters(ctx); err != nil {
			c.logger.WithError(err).Warn("heater safety shutdown failed")
		}
	}
	return cs, nil
}

// SendGCode submits one script line. Moonraker blocks the request until
// the command is queued (not executed), so a nil return means accepted.
func (c *Client) SendGCode(ctx context.Context, script string) error {
	q := url.Values{"script": {script}}
	if err := c.post(ctx, "/printer/gcode/script?"+q.Encode()); err != nil {
		return errors.SendError(script, err)
	}
	return nil
}

// Position returns the toolhead position (x, y, z, e).
func (c *Client) Position(ctx context.Context) ([4]float64, error) {
	var out struct {
		Result struct {
			Status struct {
				Toolhead struct {
					Position []float64 `json:"position"`
				} `json:"toolhead"`
			} `json:"status"`
		} `json:"result"`
	}
	var pos [4]float64
	if err := c.get(ctx, "/printer/objects/query?toolhead=position", &out); err != nil {
		return pos, errors.Wrap(errors.ErrConnection, err, "querying position")
	}
	if len(out.Result.Status.Toolhead.Position) < 4 {
		return pos, errors.New(errors.ErrConnection, "short position reply")
	}
	copy(pos[:], out.Result.Status.Toolhead.Position[:4])
	return pos, nil
}

// HomedAxes returns the set of homed axes as reported by the toolhead,
// upper-cased ("XYZ" when fully homed, "" when none).
func (c *Client) HomedAxes(ctx context.Context) (string, error) {
	var out struct {
		Result struct {
			Status struct {
				Toolhead struct {
					HomedAxes string `json:"homed_axes"`
				} `json:"toolhead"`
			} `json:"status"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/printer/objects/query?toolhead=homed_axes", &out); err != nil {
		return "", errors.Wrap(errors.ErrConnection, err, "querying homed axes")
	}
	return strings.ToUpper(out.Result.Status.Toolhead.HomedAxes), nil
}

// LiveVelocity returns the toolhead speed in mm/s. It prefers the
// websocket cache when one is attached and healthy.
func (c *Client) LiveVelocity(ctx context.Context) (float64, error) {
	if c.status != nil {
		if v, ok := c.status.LiveVelocity(); ok {
			return v, nil
		}
	}
	var out struct {
		Result struct {
			Status struct {
				MotionReport struct {
					LiveVelocity float64 `json:"live_velocity"`
				} `json:"motion_report"`
			} `json:"status"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/printer/objects/query?motion_report=live_velocity", &out); err != nil {
		return 0, errors.Wrap(errors.ErrConnection, err, "querying live velocity")
	}
	return out.Result.Status.MotionReport.LiveVelocity, nil
}

// HomeAxes homes the given subset ("XYZ", "XY", ...; empty homes all).
// Homing an already-homed axis is harmless, Klipper just re-homes it.
func (c *Client) HomeAxes(ctx context.Context, axes string) error {
	cmd := "G28"
	axes = strings.ToUpper(strings.TrimSpace(axes))
	if axes != "" && axes != "XYZ" && axes != "ALL" {
		for _, ax := range axes {
			if ax == 'X' || ax == 'Y' || ax == 'Z' {
				cmd += " " + string(ax)
			}
		}
	}
	return c.SendGCode(ctx, cmd)
}

// WaitForIdle polls live velocity at a fixed interval until the reading
// stays below the threshold for IdleDebounceCount consecutive samples.
// It returns false when the timeout elapses first; callers treat that as
// a recoverable warning. Failed velocity reads reset the debounce.
func (c *Client) WaitForIdle(ctx context.Context, timeout time.Duration) bool {
	deadline := c.now().Add(timeout)
	consecutive := 0
	for {
		if ctx.Err() != nil {
			return false
		}
		v, err := c.LiveVelocity(ctx)
		if err != nil {
			c.logger.WithError(err).Debug("velocity read failed during idle wait")
			consecutive = 0
		} else if v < c.cfg.IdleVelocityThreshold {
			consecutive++
			if consecutive >= c.cfg.IdleDebounceCount {
				return true
			}
		} else {
			consecutive = 0
		}
		if c.now().After(deadline) {
			c.logger.WithField("timeout", timeout).
				Warn("idle wait timed out, assuming motion finished")
			return false
		}
		c.sleep(c.cfg.IdlePollInterval)
	}
}

// EmergencyStop halts the controller immediately. Fire and forget: the
// post uses a short independent timeout and failures are only logged,
// since there is nothing more the caller can do.
func (c *Client) EmergencyStop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.post(ctx, "/printer/emergency_stop"); err != nil {
		c.logger.WithError(err).Error("emergency stop request failed")
		return
	}
	c.logger.Warn("emergency stop issued")
}

// ShutdownHeaters turns off the hotend and bed heaters. Run on every
// successful connect and again at the end of a run when requested.
func (c *Client) ShutdownHeaters(ctx context.Context) error {
	for _, cmd := range []string{"M104 S0", "M140 S0"} {
		if err := c.SendGCode(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding %s reply: %w", req.URL.Path, err)
		}
	}
	return nil
}
