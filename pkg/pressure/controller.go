// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package pressure implements the PD feedback loop that retunes the
// extrusion rate from load-cell readings while a print runs. The loop is
// optional: runs without a load cell never construct a controller.
package pressure

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// historySize bounds the smoothing window.
const historySize = 5

// Config holds the loop constants. Zero values for the gains, tolerance
// and sample time fall back to the defaults below.
type Config struct {
	TargetPressure float64
	Kp             float64
	Kd             float64
	MinExtrusion   float64
	MaxExtrusion   float64
	Tolerance      float64
	SampleTime     time.Duration
}

// Default loop constants, tuned on the rig.
const (
	DefaultKp           = 0.1
	DefaultKd           = 0.05
	DefaultTolerance    = 0.5
	DefaultSampleTime   = 100 * time.Millisecond
	DefaultMinExtrusion = 0.001
	DefaultMaxExtrusion = 0.2
)

func (c Config) withDefaults() Config {
	if c.Kp == 0 {
		c.Kp = DefaultKp
	}
	if c.Kd == 0 {
		c.Kd = DefaultKd
	}
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.SampleTime == 0 {
		c.SampleTime = DefaultSampleTime
	}
	// A zero-width clamp would pin every returned rate at 0.
	if c.MinExtrusion == 0 {
		c.MinExtrusion = DefaultMinExtrusion
	}
	if c.MaxExtrusion == 0 {
		c.MaxExtrusion = DefaultMaxExtrusion
	}
	return c
}

// Controller is the PD loop state for one run: the smoothing window,
// the previous error and its timestamp. It is not safe for concurrent
// use; the engine owns it for the run's lifetime.
type Controller struct {
	cfg       Config
	history   []float64
	prevError float64
	prevTime  time.Time
	started   bool

	now func() time.Time
}

// New returns a controller for one run.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:     cfg.withDefaults(),
		history: make([]float64, 0, historySize),
		now:     time.Now,
	}
}

// CalculateExtrusionRate folds one load-cell reading into the loop and
// returns the corrected rate, clamped to [MinExtrusion, MaxExtrusion].
//
// Two degradation paths return current unchanged: a missing reading
// (haveReading false) skips the tick entirely, and a call arriving
// sooner than SampleTime after the previous correction is ignored so
// the derivative term keeps a meaningful dt.
func (c *Controller) CalculateExtrusionRate(current, reading float64, haveReading bool) float64 {
	if !haveReading {
		return current
	}
	now := c.now()
	if c.started && now.Sub(c.prevTime) < c.cfg.SampleTime {
		return current
	}

	c.push(reading)
	smoothed := stat.Mean(c.history, nil)
	err := c.cfg.TargetPressure - smoothed

	var derivative float64
	if c.started {
		if dt := now.Sub(c.prevTime).Seconds(); dt > 0 {
			derivative = (err - c.prevError) / dt
		}
	}
	correction := c.cfg.Kp*err + c.cfg.Kd*derivative
	rate := clamp(current+correction, c.cfg.MinExtrusion, c.cfg.MaxExtrusion)

	c.prevError = err
	c.prevTime = now
	c.started = true
	return rate
}

// IsStable reports whether the reading sits within tolerance of the
// target.
func (c *Controller) IsStable(reading float64) bool {
	diff := reading - c.cfg.TargetPressure
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.cfg.Tolerance
}

// Reset clears the loop state. Called when a run starts or aborts.
func (c *Controller) Reset() {
	c.history = c.history[:0]
	c.prevError = 0
	c.prevTime = time.Time{}
	c.started = false
}

func (c *Controller) push(sample float64) {
	if len(c.history) == historySize {
		copy(c.history, c.history[1:])
		c.history = c.history[:historySize-1]
	}
	c.history = append(c.history, sample)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
