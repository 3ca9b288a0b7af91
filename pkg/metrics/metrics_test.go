// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveInstruction("move")
	m.ObserveInstruction("move")
	m.ObserveInstruction("capture")
	m.ObserveSendFailure()
	m.ObserveCapture("ok")
	m.ObserveCapture("failed")
	m.ObservePressureCorrection(0.06)
	m.SetRunState(1)

	assert.InDelta(t, 2, testutil.ToFloat64(m.InstructionsTotal.WithLabelValues("move")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.InstructionsTotal.WithLabelValues("capture")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SendFailuresTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CapturesTotal.WithLabelValues("failed")), 0)
	assert.InDelta(t, 0.06, testutil.ToFloat64(m.ExtrusionRate), 1e-12)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunState), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveInstruction("move")
		m.ObserveSendFailure()
		m.ObserveSendRetry()
		m.ObserveCapture("ok")
		m.ObservePressureCorrection(0.05)
		m.ObserveIdleTimeout()
		m.SetRunState(5)
		m.ObserveRunEnd("done")
	})
}
