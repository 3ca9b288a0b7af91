// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"fmt"

	"github.com/Mita3055/diwctl/pkg/errors"
)

// Builder assembles generator output and ad-hoc instructions into a
// single toolpath. Build enforces the two structural rules the
// dispatcher relies on: a positioning mode is set before the first
// motion, and the path starts by homing unless the caller opts out
// (for runs against an already-homed machine).
type Builder struct {
	tp       Toolpath
	autoHome bool
}

// NewBuilder returns an empty builder with homing-first enabled.
func NewBuilder() *Builder {
	return &Builder{autoHome: true}
}

// NoHoming disables the automatic leading Home for machines that are
// already homed when the run starts.
func (b *Builder) NoHoming() *Builder {
	b.autoHome = false
	return b
}

// Add appends instructions in order.
func (b *Builder) Add(instrs ...Instruction) *Builder {
	b.tp = append(b.tp, instrs...)
	return b
}

// Append appends a whole sub-path, typically one pattern generator's
// output.
func (b *Builder) Append(tp Toolpath) *Builder {
	b.tp = append(b.tp, tp...)
	return b
}

// Home appends a homing instruction for the given axes.
func (b *Builder) Home(axes string) *Builder {
	return b.Add(Home{Axes: axes})
}

// Capture appends a single photo capture at the given stage position.
func (b *Builder) Capture(camera int, x, y, z float64, filename string) *Builder {
	return b.Add(Capture{Camera: camera, X: x, Y: y, Z: z, Filename: filename})
}

// TimelapseCapture appends a periodic capture directive.
func (b *Builder) TimelapseCapture(camera int, x, y, z float64, filename string, interval, duration float64) *Builder {
	return b.Add(Capture{
		Camera: camera, X: x, Y: y, Z: z, Filename: filename,
		Timelapse: &Timelapse{Interval: interval, Duration: duration},
	})
}

// Message appends an operator console message.
func (b *Builder) Message(text string) *Builder {
	return b.Add(Message{Text: text})
}

// Wait appends an operator acknowledgment barrier.
func (b *Builder) Wait() *Builder {
	return b.Add(Wait{})
}

// Pause appends an idle-then-sleep pause.
func (b *Builder) Pause(seconds float64) *Builder {
	return b.Add(Pause{Seconds: seconds})
}

// MotorsOff appends an M84 to release the steppers at the end of a run.
func (b *Builder) MotorsOff() *Builder {
	return b.Add(MotorsOff())
}

// Comment appends a comment line.
func (b *Builder) Comment(text string) *Builder {
	return b.Add(Comment(text))
}

// Build validates the assembled path and returns it. With homing-first
// enabled, a Home is prepended when no homing occurs before the first
// motion.
func (b *Builder) Build() (Toolpath, error) {
	tp := b.tp
	if b.autoHome && !homedBeforeMotion(tp) {
		tp = append(Toolpath{Home{Axes: "XYZ"}}, tp...)
	}
	if err := Validate(tp); err != nil {
		return nil, err
	}
	return tp, nil
}

// Validate checks the structural invariants of an assembled toolpath:
// no motion before a positioning mode is set.
func Validate(tp Toolpath) error {
	modeSet := false
	for i, inst := range tp {
		switch inst.(type) {
		case SetMode:
			modeSet = true
		case Move, Retract:
			if !modeSet {
				return errors.New(errors.ErrToolpath,
					fmt.Sprintf("instruction %d: motion before positioning mode", i))
			}
		}
	}
	return nil
}

func homedBeforeMotion(tp Toolpath) bool {
	for _, inst := range tp {
		switch inst.(type) {
		case Home:
			return true
		case Move, Retract:
			return false
		}
	}
	return false
}
