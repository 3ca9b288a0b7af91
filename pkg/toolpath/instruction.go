// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package toolpath defines the instruction stream a print run executes:
// the tagged instruction union emitted by pattern generators, the modal
// G-code encoder, the text persistence format with its pseudo-directives
// (CAPTURE, PASUE, PRINT_MESSAGE, WAIT), and the assembler that composes
// generator output into one replayable sequence.
package toolpath

import "fmt"

// Instruction is one element of a toolpath. It is a closed union:
// the execution engine dispatches on the concrete type, so the set of
// implementations is fixed to the types in this file.
type Instruction interface {
	instruction()
}

// Move is a single linear motion primitive. Axis fields are only
// meaningful when the matching Has flag is set; in absolute mode an
// unset axis is left where it is, in relative mode it simply does not
// move. Extruding moves compute E from the planar (XY) travel distance.
type Move struct {
	X, Y, Z          float64
	HasX, HasY, HasZ bool
	Extrude          bool

	// Rate overrides the profile extrusion rate for this one stroke
	// (e.g. the contact-patch bump). Zero means use the profile's or the
	// live pressure-corrected rate.
	Rate float64
}

// SetMode switches the controller's modal coordinate interpretation.
type SetMode struct {
	Absolute bool
}

// Home homes the named axes ("XYZ", "XY", "Z", ...).
type Home struct {
	Axes string
}

// Retract pulls the extruder back by the profile's retraction amount.
type Retract struct{}

// Timelapse describes a periodic capture attached to a Capture directive.
type Timelapse struct {
	Interval float64 // seconds between frames
	Duration float64 // total seconds
}

// Capture moves the head to (X, Y, Z) and takes a photo with the given
// camera. With Timelapse set it instead starts a periodic capture loop.
type Capture struct {
	Camera    int
	X, Y, Z   float64
	Filename  string
	Timelapse *Timelapse
}

// Pause waits for the controller to go idle, then sleeps.
type Pause struct {
	Seconds float64
}

// Wait blocks the run until an operator acknowledgment arrives. It is
// the only instruction that may block indefinitely.
type Wait struct{}

// Message forwards text to the operator console. Never fails the run.
type Message struct {
	Text string
}

// Raw is the escape hatch: a verbatim G-code line. It also carries
// comments (";...") and blank lines, which the dispatcher skips but the
// text format preserves.
type Raw struct {
	GCode string
}

// Invalid is produced by the parser for a pseudo-directive line it could
// not decode. The dispatcher logs a warning and skips it; serializing
// reproduces the original line.
type Invalid struct {
	Line   string
	Reason string
}

func (Move) instruction()    {}
func (SetMode) instruction() {}
func (Home) instruction()    {}
func (Retract) instruction() {}
func (Capture) instruction() {}
func (Pause) instruction()   {}
func (Wait) instruction()    {}
func (Message) instruction() {}
func (Raw) instruction()     {}
func (Invalid) instruction() {}

// Toolpath is an ordered instruction sequence representing one print
// run. Insertion order is significant; it is replayed exactly once.
type Toolpath []Instruction

// Motion primitive constructors. These mirror the stroke vocabulary the
// pattern generators are written in.

// MoveTo is a travel move specifying all three axes.
func MoveTo(x, y, z float64) Move {
	return Move{X: x, Y: y, Z: z, HasX: true, HasY: true, HasZ: true}
}

// PrintMove is an extruding move specifying all three axes.
func PrintMove(x, y, z float64) Move {
	return Move{X: x, Y: y, Z: z, HasX: true, HasY: true, HasZ: true, Extrude: true}
}

// PrintX is an extruding stroke along X.
func PrintX(d float64) Move { return Move{X: d, HasX: true, Extrude: true} }

// PrintY is an extruding stroke along Y.
func PrintY(d float64) Move { return Move{Y: d, HasY: true, Extrude: true} }

// MoveX is a travel move along X.
func MoveX(d float64) Move { return Move{X: d, HasX: true} }

// MoveY is a travel move along Y.
func MoveY(d float64) Move { return Move{Y: d, HasY: true} }

// MoveZ is a travel move along Z.
func MoveZ(d float64) Move { return Move{Z: d, HasZ: true} }

// Absolute switches to absolute positioning.
func Absolute() SetMode { return SetMode{Absolute: true} }

// Relative switches to relative positioning.
func Relative() SetMode { return SetMode{Absolute: false} }

// Comment returns a comment line carried as a Raw instruction.
func Comment(text string) Raw { return Raw{GCode: ";" + text} }

// Commentf returns a formatted comment line.
func Commentf(format string, args ...interface{}) Raw {
	return Comment(fmt.Sprintf(format, args...))
}

// Blank returns an empty line; generators use it to separate sections in
// the persisted text form.
func Blank() Raw { return Raw{} }

// MotorsOff disables the stepper motors (M84).
func MotorsOff() Raw { return Raw{GCode: "M84"} }

// WithRate returns a copy of the move with a per-stroke extrusion rate
// override. Used for strokes generated from a derived profile copy.
func (m Move) WithRate(rate float64) Move {
	m.Rate = rate
	return m
}
