// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/profile"
)

// Encoder turns instructions into G-code text lines. It is modal: it
// tracks the positioning mode it has emitted so duplicate G90/G91 lines
// are suppressed, and it refuses to encode motion before any mode has
// been established.
//
// Extruding moves pick their rate in priority order: the per-stroke
// override on the Move, then the live pressure-corrected rate, then the
// profile rate. E is emitted negative because on this hardware negative
// E values drive ink forward.
type Encoder struct {
	prof     profile.Printer
	haveMode bool
	absolute bool
	liveRate float64
}

// NewEncoder returns an encoder bound to a printer profile.
func NewEncoder(prof profile.Printer) *Encoder {
	return &Encoder{prof: prof}
}

// SetLiveRate installs a pressure-corrected extrusion rate used for
// subsequent extruding moves that carry no per-stroke override. Zero
// clears the override.
func (e *Encoder) SetLiveRate(rate float64) {
	e.liveRate = rate
}

// Mode reports the last positioning mode emitted and whether any mode
// has been emitted at all. The engine uses it to restore the mode after
// a capture detour.
func (e *Encoder) Mode() (absolute, known bool) {
	return e.absolute, e.haveMode
}

// Reset forgets the modal state, forcing the next SetMode to be emitted.
func (e *Encoder) Reset() {
	e.haveMode = false
	e.liveRate = 0
}

// Encode renders one instruction to zero or more text lines. A deduped
// SetMode encodes to no lines at all.
func (e *Encoder) Encode(inst Instruction) ([]string, error) {
	switch v := inst.(type) {
	case Move:
		line, err := e.encodeMove(v)
		if err != nil {
			return nil, err
		}
		return []string{line}, nil
	case SetMode:
		if e.haveMode && e.absolute == v.Absolute {
			return nil, nil
		}
		e.haveMode = true
		e.absolute = v.Absolute
		if v.Absolute {
			return []string{"G90"}, nil
		}
		return []string{"G91"}, nil
	case Home:
		return []string{encodeHome(v)}, nil
	case Retract:
		return []string{"G1 E" + fnum(e.prof.Retraction)}, nil
	case Capture:
		return []string{encodeCapture(v)}, nil
	case Pause:
		return []string{"PASUE, " + fnum(v.Seconds)}, nil
	case Wait:
		return []string{"WAIT"}, nil
	case Message:
		return []string{"PRINT_MESSAGE, " + v.Text}, nil
	case Raw:
		return []string{v.GCode}, nil
	case Invalid:
		return []string{v.Line}, nil
	default:
		return nil, errors.Newf(errors.ErrToolpath, "unknown instruction type %T", inst)
	}
}

// EncodeAll renders a whole toolpath.
func (e *Encoder) EncodeAll(tp Toolpath) ([]string, error) {
	lines := make([]string, 0, len(tp))
	for i, inst := range tp {
		out, err := e.Encode(inst)
		if err != nil {
			return nil, errors.Wrap(errors.ErrToolpath, err,
				fmt.Sprintf("instruction %d", i))
		}
		lines = append(lines, out...)
	}
	return lines, nil
}

func (e *Encoder) encodeMove(m Move) (string, error) {
	if !e.haveMode {
		return "", errors.New(errors.ErrToolpath,
			"move before positioning mode was set")
	}
	var b strings.Builder
	b.WriteString("G1")
	if m.HasX {
		b.WriteString(" X")
		b.WriteString(fnum(m.X))
	}
	if m.HasY {
		b.WriteString(" Y")
		b.WriteString(fnum(m.Y))
	}
	if m.HasZ {
		b.WriteString(" Z")
		b.WriteString(fnum(m.Z))
	}
	if m.Extrude {
		rate := e.prof.ExtrusionRate
		if e.liveRate > 0 {
			rate = e.liveRate
		}
		if m.Rate > 0 {
			rate = m.Rate
		}
		var dx, dy float64
		if m.HasX {
			dx = m.X
		}
		if m.HasY {
			dy = m.Y
		}
		dist := math.Sqrt(dx*dx + dy*dy)
		fmt.Fprintf(&b, " E%.6f F%s", -rate*dist, fnum(e.prof.FeedRate))
	} else {
		b.WriteString(" F")
		b.WriteString(fnum(e.prof.MovementSpeed))
	}
	return b.String(), nil
}

func encodeHome(h Home) string {
	axes := strings.ToUpper(strings.TrimSpace(h.Axes))
	if axes == "" || axes == "ALL" || axes == "XYZ" {
		return "G28"
	}
	var b strings.Builder
	b.WriteString("G28")
	for _, ax := range axes {
		if ax == 'X' || ax == 'Y' || ax == 'Z' {
			b.WriteByte(' ')
			b.WriteRune(ax)
		}
	}
	return b.String()
}

func encodeCapture(c Capture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CAPTURE, %d, %s, %s, %s, %s",
		c.Camera, fnum(c.X), fnum(c.Y), fnum(c.Z), c.Filename)
	if c.Timelapse != nil {
		fmt.Fprintf(&b, ", true, %s, %s",
			fnum(c.Timelapse.Interval), fnum(c.Timelapse.Duration))
	} else {
		b.WriteString(", false")
	}
	return b.String()
}

// fnum formats a coordinate with the shortest decimal representation
// that parses back to the same value.
func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
