// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mita3055/diwctl/pkg/camera"
	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/pressure"
	"github.com/Mita3055/diwctl/pkg/profile"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

type mockController struct {
	mu        sync.Mutex
	sent      []string
	failAll   bool
	idleCalls int
	stops     int
	onSend    func(line string)
}

func (m *mockController) SendGCode(ctx context.Context, script string) error {
	m.mu.Lock()
	if m.failAll {
		m.mu.Unlock()
		return errors.New(errors.ErrSend, "controller rejected command")
	}
	m.sent = append(m.sent, script)
	onSend := m.onSend
	m.mu.Unlock()
	if onSend != nil {
		onSend(script)
	}
	return nil
}

func (m *mockController) WaitForIdle(ctx context.Context, timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleCalls++
	return true
}

func (m *mockController) EmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *mockController) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func testProfile() profile.Printer {
	return profile.Printer{
		ExtrusionRate: 0.05,
		Retraction:    1.5,
		FeedRate:      300,
		MovementSpeed: 1000,
		PrintHeight:   0.2,
		ZHop:          3,
		LineGap:       1,
	}
}

func newTestEngine(ctrl Controller, opts ...Option) (*Engine, *[]time.Duration) {
	e := New(Config{Profile: testProfile()}, ctrl, opts...)
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	return e, &slept
}

func TestRunSendsEncodedGCode(t *testing.T) {
	ctrl := &mockController{}
	e, _ := newTestEngine(ctrl)

	tp := toolpath.Toolpath{
		toolpath.Home{Axes: "XYZ"},
		toolpath.Absolute(),
		toolpath.MoveTo(10, 10, 5),
		toolpath.Relative(),
		toolpath.PrintX(5),
		toolpath.Comment(" skipped"),
		toolpath.Blank(),
	}
	require.NoError(t, e.Run(context.Background(), tp))

	assert.Equal(t, []string{
		"G28",
		"G90",
		"G1 X10 Y10 Z5 F1000",
		"G91",
		"G1 X5 E-0.250000 F300",
	}, ctrl.lines(), "comments and blanks never reach the controller")
	assert.Equal(t, StateDone, e.State())
}

func TestPauseWaitsForIdleOnceThenSleeps(t *testing.T) {
	ctrl := &mockController{}
	e, slept := newTestEngine(ctrl)

	require.NoError(t, e.Run(context.Background(), toolpath.Toolpath{
		toolpath.Pause{Seconds: 5},
	}))

	assert.Equal(t, 1, ctrl.idleCalls, "exactly one wait_for_idle per pause")
	require.Len(t, *slept, 1)
	assert.Equal(t, 5*time.Second, (*slept)[0])
}

func TestMalformedDirectiveSkippedNextExecutes(t *testing.T) {
	ctrl := &mockController{}
	e, _ := newTestEngine(ctrl)

	tp := toolpath.Toolpath{
		toolpath.ParseLine("CAPTURE, 1, 10"), // malformed: missing fields
		toolpath.Home{Axes: "XYZ"},
	}
	require.NoError(t, e.Run(context.Background(), tp))
	assert.Equal(t, []string{"G28"}, ctrl.lines(),
		"instruction after the bad directive still executes")
}

func TestCaptureStagesMoveAndRestoresMode(t *testing.T) {
	ctrl := &mockController{}
	var got camera.Request
	cam := camera.CapturerFunc(func(req camera.Request) error {
		got = req
		return nil
	})
	e, _ := newTestEngine(ctrl, WithCapturer(cam))

	tp := toolpath.Toolpath{
		toolpath.Absolute(),
		toolpath.MoveTo(20, 20, 1),
		toolpath.Relative(),
		toolpath.Capture{Camera: 1, X: 65, Y: 10, Z: 60, Filename: "layer_0.jpg"},
		toolpath.PrintX(5),
	}
	require.NoError(t, e.Run(context.Background(), tp))

	lines := ctrl.lines()
	require.Len(t, lines, 8)
	assert.Equal(t, "G90", lines[3], "capture forces absolute positioning")
	assert.Equal(t, "G1 Z60 F1000", lines[4], "Z is staged before the XY traverse")
	assert.Equal(t, "G1 X65 Y10 F1000", lines[5])
	assert.Equal(t, "G91", lines[6], "prior relative mode restored after capture")
	assert.Equal(t, "G1 X5 E-0.250000 F300", lines[7])

	assert.Equal(t, 1, got.Camera)
	assert.Equal(t, "layer_0.jpg", got.Filename)
	assert.Equal(t, 1, ctrl.idleCalls, "head must settle before the exposure")
}

func TestCaptureWithoutCameraIsNonFatal(t *testing.T) {
	ctrl := &mockController{}
	e, _ := newTestEngine(ctrl)

	tp := toolpath.Toolpath{
		toolpath.Capture{Camera: 1, X: 65, Y: 10, Z: 60, Filename: "x.jpg"},
		toolpath.Home{Axes: "XYZ"},
	}
	require.NoError(t, e.Run(context.Background(), tp))
	assert.Contains(t, ctrl.lines(), "G28")
}

func TestWaitBlocksUntilAcknowledged(t *testing.T) {
	ctrl := &mockController{}
	e, _ := newTestEngine(ctrl)

	done := make(chan error, 1)
	go func() {
		done <- e.Run(context.Background(), toolpath.Toolpath{toolpath.Wait{}})
	}()

	require.Eventually(t, func() bool {
		return e.State() == StateAwaitingInput
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("run finished before acknowledgment")
	case <-time.After(50 * time.Millisecond):
	}

	e.Acknowledge()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("acknowledgment did not release the barrier")
	}
	assert.Equal(t, StateDone, e.State())
}

func TestAbortIssuesEmergencyStop(t *testing.T) {
	ctrl := &mockController{}
	e, _ := newTestEngine(ctrl)
	ctrl.onSend = func(line string) {
		if line == "G90" {
			e.Abort()
		}
	}

	tp := toolpath.Toolpath{
		toolpath.Home{Axes: "XYZ"},
		toolpath.Absolute(),
		toolpath.MoveTo(10, 10, 5),
		toolpath.MoveTo(20, 20, 5),
	}
	err := e.Run(context.Background(), tp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAborted))
	assert.Equal(t, 1, ctrl.stops)
	assert.Equal(t, StateAborted, e.State())
	assert.Less(t, len(ctrl.lines()), 4, "dispatch stops after the abort")
}

func TestSendPolicyContinueSwallowsFailures(t *testing.T) {
	ctrl := &mockController{failAll: true}
	e, _ := newTestEngine(ctrl)

	tp := toolpath.Toolpath{toolpath.Home{Axes: "XYZ"}, toolpath.Absolute()}
	require.NoError(t, e.Run(context.Background(), tp))
	assert.Equal(t, StateDone, e.State())
}

func TestSendPolicyAbortStopsRun(t *testing.T) {
	ctrl := &mockController{failAll: true}
	e := New(Config{
		Profile:     testProfile(),
		SendPolicy:  AbortOnSendError,
		SendRetries: 2,
	}, ctrl)
	e.sleep = func(time.Duration) {}

	err := e.Run(context.Background(), toolpath.Toolpath{toolpath.Home{Axes: "XYZ"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSend))
}

type fixedLoadCell struct{ value float64 }

func (f fixedLoadCell) Load() (float64, bool) { return f.value, true }

func TestPressureLoopCorrectsExtrusionRate(t *testing.T) {
	ctrl := &mockController{}
	pc := pressure.New(pressure.Config{
		TargetPressure: 10,
		MinExtrusion:   0.01,
		MaxExtrusion:   0.2,
	})
	e, _ := newTestEngine(ctrl, WithPressureLoop(fixedLoadCell{value: 5}, pc))

	tp := toolpath.Toolpath{
		toolpath.Relative(),
		toolpath.PrintX(10),
	}
	require.NoError(t, e.Run(context.Background(), tp))

	lines := ctrl.lines()
	require.Len(t, lines, 2)
	// Pressure below target drives the rate up to the clamp ceiling:
	// E = -0.2 * 10.
	assert.Equal(t, "G1 X10 E-2.000000 F300", lines[1])
}

func TestPerStrokeRateBypassesPressureLoop(t *testing.T) {
	ctrl := &mockController{}
	pc := pressure.New(pressure.Config{
		TargetPressure: 10,
		MinExtrusion:   0.01,
		MaxExtrusion:   0.2,
	})
	e, _ := newTestEngine(ctrl, WithPressureLoop(fixedLoadCell{value: 5}, pc))

	tp := toolpath.Toolpath{
		toolpath.Relative(),
		toolpath.PrintX(10).WithRate(0.1),
	}
	require.NoError(t, e.Run(context.Background(), tp))

	lines := ctrl.lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "G1 X10 E-1.000000 F300", lines[1],
		"derived-profile strokes keep their explicit rate")
}
