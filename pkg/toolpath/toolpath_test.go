// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mita3055/diwctl/pkg/profile"
)

func testProfile() profile.Printer {
	return profile.Printer{
		ExtrusionRate: 0.05,
		Retraction:    1.5,
		FeedRate:      300,
		MovementSpeed: 1000,
		PrintHeight:   0.2,
		BedHeight:     0,
		ZHop:          3,
		LineGap:       1,
	}
}

func TestEncoderModalDedupe(t *testing.T) {
	enc := NewEncoder(testProfile())

	lines, err := enc.Encode(Absolute())
	require.NoError(t, err)
	assert.Equal(t, []string{"G90"}, lines)

	lines, err = enc.Encode(Absolute())
	require.NoError(t, err)
	assert.Empty(t, lines, "repeated G90 should be suppressed")

	lines, err = enc.Encode(Relative())
	require.NoError(t, err)
	assert.Equal(t, []string{"G91"}, lines)
}

func TestEncodeExtrudingStroke(t *testing.T) {
	enc := NewEncoder(testProfile())
	_, err := enc.Encode(Relative())
	require.NoError(t, err)

	lines, err := enc.Encode(PrintX(10))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "G1 X10 E-0.500000 F300", lines[0])

	// Diagonal stroke: E scales with planar distance.
	lines, err = enc.Encode(Move{X: 3, Y: 4, HasX: true, HasY: true, Extrude: true})
	require.NoError(t, err)
	assert.Equal(t, "G1 X3 Y4 E-0.250000 F300", lines[0])
}

func TestEncodeTravelUsesMovementSpeed(t *testing.T) {
	enc := NewEncoder(testProfile())
	_, err := enc.Encode(Absolute())
	require.NoError(t, err)

	lines, err := enc.Encode(MoveTo(10, 20, 5))
	require.NoError(t, err)
	assert.Equal(t, "G1 X10 Y20 Z5 F1000", lines[0])

	lines, err = enc.Encode(MoveZ(12.5))
	require.NoError(t, err)
	assert.Equal(t, "G1 Z12.5 F1000", lines[0])
}

func TestEncodeMoveBeforeModeFails(t *testing.T) {
	enc := NewEncoder(testProfile())
	_, err := enc.Encode(PrintX(10))
	assert.Error(t, err)
}

func TestRateOverridePriority(t *testing.T) {
	enc := NewEncoder(testProfile())
	_, err := enc.Encode(Relative())
	require.NoError(t, err)

	enc.SetLiveRate(0.08)
	lines, err := enc.Encode(PrintX(10))
	require.NoError(t, err)
	assert.Equal(t, "G1 X10 E-0.800000 F300", lines[0],
		"live rate replaces the profile rate")

	lines, err = enc.Encode(PrintX(10).WithRate(0.1))
	require.NoError(t, err)
	assert.Equal(t, "G1 X10 E-1.000000 F300", lines[0],
		"per-stroke override wins over the live rate")
}

func TestEncodeRetract(t *testing.T) {
	enc := NewEncoder(testProfile())
	_, err := enc.Encode(Relative())
	require.NoError(t, err)
	lines, err := enc.Encode(Retract{})
	require.NoError(t, err)
	assert.Equal(t, "G1 E1.5", lines[0])
}

func TestCaptureRoundTrip(t *testing.T) {
	single := Capture{Camera: 1, X: 65, Y: 10, Z: 80, Filename: "layer_1.jpg"}
	enc := NewEncoder(testProfile())
	lines, err := enc.Encode(single)
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE, 1, 65, 10, 80, layer_1.jpg, false", lines[0])
	assert.Equal(t, single, ParseLine(lines[0]))

	lapse := Capture{
		Camera: 2, X: 0, Y: 40, Z: 25, Filename: "cure.jpg",
		Timelapse: &Timelapse{Interval: 30, Duration: 1800},
	}
	lines, err = enc.Encode(lapse)
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE, 2, 0, 40, 25, cure.jpg, true, 30, 1800", lines[0])
	assert.Equal(t, lapse, ParseLine(lines[0]))
}

func TestParseDirectives(t *testing.T) {
	assert.Equal(t, Pause{Seconds: 2.5}, ParseLine("PASUE, 2.5"))
	assert.Equal(t, Pause{Seconds: 10}, ParseLine("PAUSE, 10"),
		"corrected spelling accepted on input")
	assert.Equal(t, Wait{}, ParseLine("WAIT"))
	assert.Equal(t, Message{Text: "layer 3 done, check nozzle"},
		ParseLine("PRINT_MESSAGE, layer 3 done, check nozzle"))
	assert.Equal(t, SetMode{Absolute: true}, ParseLine("G90"))
	assert.Equal(t, SetMode{Absolute: false}, ParseLine("G91"))
	assert.Equal(t, Home{Axes: "XYZ"}, ParseLine("G28 X Y Z"))
	assert.Equal(t, Home{}, ParseLine("G28"))
}

func TestParseMalformedDirective(t *testing.T) {
	inst := ParseLine("CAPTURE, 1, 10")
	bad, ok := inst.(Invalid)
	require.True(t, ok, "truncated capture must parse as Invalid, got %T", inst)
	assert.Equal(t, "CAPTURE, 1, 10", bad.Line)

	inst = ParseLine("CAPTURE, 1, 10, 20, 30, shot.jpg, true")
	_, ok = inst.(Invalid)
	assert.True(t, ok, "timelapse capture without interval/duration is invalid")

	inst = ParseLine("PASUE, soon")
	_, ok = inst.(Invalid)
	assert.True(t, ok)

	inst = ParseLine("WAIT, now")
	_, ok = inst.(Invalid)
	assert.True(t, ok, "WAIT with trailing fields must not reach the controller as G-code")
}

func TestParseCommentsAndRaw(t *testing.T) {
	assert.Equal(t, Raw{GCode: "; CAPTURE in a comment stays a comment"},
		ParseLine("; CAPTURE in a comment stays a comment"))
	assert.Equal(t, Raw{GCode: ""}, ParseLine(""))
	assert.Equal(t, Raw{GCode: "M104 S0"}, ParseLine("M104 S0"))
}

func TestSerializeParseFixpoint(t *testing.T) {
	prof := testProfile()
	tp := Toolpath{
		Home{Axes: "XYZ"},
		Absolute(),
		MoveTo(10, 37, 5),
		Relative(),
		PrintY(5),
		PrintX(-3.5),
		Retract{},
		Pause{Seconds: 2},
		Capture{Camera: 1, X: 65, Y: 10, Z: 80, Filename: "a.jpg"},
		Message{Text: "flip the sample"},
		Wait{},
		Comment(" print complete"),
		MotorsOff(),
	}

	var first bytes.Buffer
	require.NoError(t, Save(&first, tp, prof))

	parsed, err := Parse(strings.NewReader(first.String()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, Save(&second, parsed, prof))
	assert.Equal(t, first.String(), second.String())
}

func TestBuilderAutoHome(t *testing.T) {
	tp, err := NewBuilder().
		Add(Absolute(), MoveTo(10, 10, 5)).
		Build()
	require.NoError(t, err)
	require.NotEmpty(t, tp)
	assert.Equal(t, Home{Axes: "XYZ"}, tp[0])

	tp, err = NewBuilder().
		Home("XYZ").
		Add(Absolute(), MoveTo(10, 10, 5)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 3, len(tp), "no second home prepended")
}

func TestBuilderNoHoming(t *testing.T) {
	tp, err := NewBuilder().NoHoming().
		Add(Absolute(), MoveTo(1, 2, 3)).
		Build()
	require.NoError(t, err)
	_, isHome := tp[0].(Home)
	assert.False(t, isHome)
}

func TestValidateMotionBeforeMode(t *testing.T) {
	err := Validate(Toolpath{Home{}, PrintX(5)})
	assert.Error(t, err)

	err = Validate(Toolpath{Home{}, Relative(), PrintX(5)})
	assert.NoError(t, err)
}
