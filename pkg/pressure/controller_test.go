// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pressure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		TargetPressure: 10,
		Kp:             0.1,
		Kd:             0.05,
		MinExtrusion:   0.01,
		MaxExtrusion:   0.2,
		Tolerance:      0.5,
		SampleTime:     100 * time.Millisecond,
	}
}

// fakeClock advances by step on every read.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func newTestController(step time.Duration) *Controller {
	c := New(testConfig())
	clock := &fakeClock{t: time.Unix(1000, 0), step: step}
	c.now = clock.now
	return c
}

func TestEquilibriumLeavesRateUnchanged(t *testing.T) {
	c := newTestController(200 * time.Millisecond)
	rate := 0.05
	for i := 0; i < 10; i++ {
		rate = c.CalculateExtrusionRate(rate, 10, true)
		assert.InDelta(t, 0.05, rate, 1e-9,
			"at target pressure the rate must pass through unchanged")
	}
}

func TestZeroConfigBoundsDefaulted(t *testing.T) {
	c := New(Config{TargetPressure: 10})
	clock := &fakeClock{t: time.Unix(1000, 0), step: 200 * time.Millisecond}
	c.now = clock.now

	rate := c.CalculateExtrusionRate(0.05, 10, true)
	assert.InDelta(t, 0.05, rate, 1e-9,
		"unset extrusion bounds must not clamp the rate to zero")
	assert.Equal(t, DefaultMinExtrusion, c.cfg.MinExtrusion)
	assert.Equal(t, DefaultMaxExtrusion, c.cfg.MaxExtrusion)
}

func TestCorrectionDirection(t *testing.T) {
	c := newTestController(200 * time.Millisecond)

	low := c.CalculateExtrusionRate(0.05, 5, true)
	assert.Greater(t, low, 0.05, "low pressure increases extrusion")

	c.Reset()
	high := c.CalculateExtrusionRate(0.05, 15, true)
	assert.Less(t, high, 0.05, "high pressure decreases extrusion")
}

func TestClampedToBounds(t *testing.T) {
	c := newTestController(200 * time.Millisecond)
	cfg := testConfig()

	rate := c.CalculateExtrusionRate(0.05, -1e6, true)
	assert.InDelta(t, cfg.MaxExtrusion, rate, 1e-12)

	c.Reset()
	rate = c.CalculateExtrusionRate(0.05, 1e6, true)
	assert.InDelta(t, cfg.MinExtrusion, rate, 1e-12)
}

func TestSampleTimeGating(t *testing.T) {
	c := newTestController(10 * time.Millisecond)

	first := c.CalculateExtrusionRate(0.05, 5, true)
	require.NotEqual(t, 0.05, first)

	// Subsequent calls land well inside the sample interval and must
	// return the caller's rate untouched.
	for i := 0; i < 5; i++ {
		assert.InDelta(t, first, c.CalculateExtrusionRate(first, 0, true), 1e-12)
	}
}

func TestMissingReadingDegradesGracefully(t *testing.T) {
	c := newTestController(200 * time.Millisecond)
	assert.InDelta(t, 0.05, c.CalculateExtrusionRate(0.05, 0, false), 1e-12)

	// A missing reading must not count as a tick.
	rate := c.CalculateExtrusionRate(0.05, 5, true)
	assert.Greater(t, rate, 0.05)
}

func TestSmoothingWindowIsBounded(t *testing.T) {
	c := newTestController(200 * time.Millisecond)

	// Flood the window with far-off samples, then feed on-target ones.
	// After five on-target ticks the window holds only 10s and the
	// correction vanishes.
	for i := 0; i < 3; i++ {
		c.CalculateExtrusionRate(0.05, 100, true)
	}
	var rate float64
	for i := 0; i < historySize; i++ {
		rate = c.CalculateExtrusionRate(0.05, 10, true)
	}
	rate = c.CalculateExtrusionRate(rate, 10, true)
	assert.InDelta(t, rate, c.CalculateExtrusionRate(rate, 10, true), 1e-9)
}

func TestIsStable(t *testing.T) {
	c := New(testConfig())
	assert.True(t, c.IsStable(10))
	assert.True(t, c.IsStable(10.5))
	assert.True(t, c.IsStable(9.5))
	assert.False(t, c.IsStable(11))
}

func TestResetClearsState(t *testing.T) {
	c := newTestController(200 * time.Millisecond)
	c.CalculateExtrusionRate(0.05, 5, true)
	c.Reset()
	assert.Empty(t, c.history)
	assert.False(t, c.started)
}
