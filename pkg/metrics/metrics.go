// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Run metrics for the toolpath execution engine.
//
// Exposes instruction throughput, send failures, capture outcomes,
// pressure-loop activity and run state as Prometheus collectors. All
// methods are nil-safe so instrumentation can be dropped from a run by
// passing a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	InstructionsTotal   *prometheus.CounterVec
	SendFailuresTotal   prometheus.Counter
	SendRetriesTotal    prometheus.Counter
	CapturesTotal       *prometheus.CounterVec
	PressureCorrections prometheus.Counter
	IdleWaitTimeouts    prometheus.Counter
	ExtrusionRate       prometheus.Gauge
	RunState            prometheus.Gauge
	RunsTotal           *prometheus.CounterVec
}

// New registers the engine collectors with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InstructionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "instructions_total",
			Help:      "Toolpath instructions dispatched, by instruction kind.",
		}, []string{"kind"}),
		SendFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "send_failures_total",
			Help:      "G-code sends rejected by the motion controller.",
		}),
		SendRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "send_retries_total",
			Help:      "G-code send attempts beyond the first.",
		}),
		CapturesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "captures_total",
			Help:      "Camera captures, by outcome.",
		}, []string{"outcome"}),
		PressureCorrections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "pressure_corrections_total",
			Help:      "Extrusion-rate corrections applied by the pressure loop.",
		}),
		IdleWaitTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "idle_wait_timeouts_total",
			Help:      "Idle waits that gave up before the head settled.",
		}),
		ExtrusionRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "diw",
			Name:      "extrusion_rate",
			Help:      "Extrusion rate currently in effect.",
		}),
		RunState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "diw",
			Name:      "run_state",
			Help:      "Engine state: 0 idle, 1 running, 2 paused, 3 awaiting capture, 4 awaiting input, 5 done, 6 aborted.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diw",
			Name:      "runs_total",
			Help:      "Completed runs, by final state.",
		}, []string{"state"}),
	}
}

// ObserveInstruction counts one dispatched instruction.
func (m *Metrics) ObserveInstruction(kind string) {
	if m == nil {
		return
	}
	m.InstructionsTotal.WithLabelValues(kind).Inc()
}

// ObserveSendFailure counts one rejected send.
func (m *Metrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.SendFailuresTotal.Inc()
}

// ObserveSendRetry counts one retried send attempt.
func (m *Metrics) ObserveSendRetry() {
	if m == nil {
		return
	}
	m.SendRetriesTotal.Inc()
}

// ObserveCapture counts a capture outcome ("ok" or "failed").
func (m *Metrics) ObserveCapture(outcome string) {
	if m == nil {
		return
	}
	m.CapturesTotal.WithLabelValues(outcome).Inc()
}

// ObservePressureCorrection records an applied rate correction.
func (m *Metrics) ObservePressureCorrection(rate float64) {
	if m == nil {
		return
	}
	m.PressureCorrections.Inc()
	m.ExtrusionRate.Set(rate)
}

// ObserveIdleTimeout counts one idle-wait timeout.
func (m *Metrics) ObserveIdleTimeout() {
	if m == nil {
		return
	}
	m.IdleWaitTimeouts.Inc()
}

// SetRunState publishes the engine state code.
func (m *Metrics) SetRunState(code float64) {
	if m == nil {
		return
	}
	m.RunState.Set(code)
}

// ObserveRunEnd counts a finished run by its terminal state name.
func (m *Metrics) ObserveRunEnd(state string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state).Inc()
}
