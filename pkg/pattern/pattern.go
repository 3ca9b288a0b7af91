// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package pattern holds the toolpath generators for the test structures
// printed on this rig: priming lines, interdigitated capacitors, square
// waves, lattices and their layered 3D variants, and straight-line
// calibration prints.
//
// Generators are pure: they take immutable profiles plus geometry
// parameters and return an instruction sequence. They never fail at
// runtime; negative counts or dimensions are a caller contract
// violation.
package pattern

import (
	"fmt"

	"github.com/Mita3055/diwctl/pkg/profile"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

func header(title string) toolpath.Toolpath {
	return toolpath.Toolpath{
		toolpath.Blank(),
		toolpath.Blank(),
		toolpath.Comment(title),
	}
}

func param(name string, v interface{}) toolpath.Raw {
	return toolpath.Commentf("\t%s : %v", name, v)
}

func pause(seconds float64) toolpath.Toolpath {
	return toolpath.Toolpath{
		toolpath.Blank(),
		toolpath.Commentf("Pausing for %v seconds", seconds),
		toolpath.Pause{Seconds: seconds},
		toolpath.Blank(),
	}
}

func capture(camera int, x, y, z float64, filename string) toolpath.Toolpath {
	return toolpath.Toolpath{
		toolpath.Blank(),
		toolpath.Comment("Capturing image"),
		toolpath.Capture{Camera: camera, X: x, Y: y, Z: z, Filename: filename},
		toolpath.Blank(),
	}
}

func messageAndWait(text string) toolpath.Toolpath {
	return toolpath.Toolpath{
		toolpath.Blank(),
		toolpath.Message{Text: text},
		toolpath.Blank(),
		toolpath.Wait{},
		toolpath.Blank(),
	}
}

// PrimeLine draws a single priming stroke at bed height to establish ink
// flow before the first pattern.
func PrimeLine(prof profile.Printer, xStart, yStart, length float64) toolpath.Toolpath {
	tp := header("Printing priming line")
	tp = append(tp, param("xStart", xStart), param("yStart", yStart))
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart, yStart, 10),
		toolpath.MoveZ(prof.BedHeight),
		toolpath.Relative(),
		toolpath.PrintY(length),
	)
	return tp
}

// PrimeRoutine draws three priming strokes of increasing length at
// advancing x offsets, then lifts the nozzle clear of the bed.
func PrimeRoutine(prof profile.Printer, xStart, yStart float64) toolpath.Toolpath {
	tp := header("Starting prime routine")
	tp = append(tp, param("xStart", xStart), param("yStart", yStart))
	tp = append(tp, PrimeLine(prof, xStart, yStart, 10)...)
	tp = append(tp, PrimeLine(prof, xStart+5, yStart, 20)...)
	tp = append(tp, PrimeLine(prof, xStart+10, yStart, 30)...)
	tp = append(tp, toolpath.MoveZ(10))
	return tp
}

// SquareWave prints a square wave: iterations repetitions of an up
// stroke of height, across of width, down stroke, across again.
func SquareWave(prof profile.Printer, startX, startY, height, width float64, iterations int) toolpath.Toolpath {
	tp := header("Printing square wave")
	tp = append(tp,
		param("start_x", startX), param("start_y", startY),
		param("height", height), param("width", width),
		param("iterations", iterations),
	)
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(startX, startY, prof.PrintHeight),
		toolpath.Relative(),
	)
	for i := 0; i < iterations; i++ {
		tp = append(tp,
			toolpath.PrintY(height),
			toolpath.PrintX(width),
			toolpath.PrintY(-height),
			toolpath.PrintX(width),
		)
	}
	tp = append(tp, toolpath.MoveZ(10))
	return tp
}

// ContractingSquareWave is the square wave with geometric width decay:
// the width is multiplied by shrinkRate after every half-stroke, twice
// per iteration.
func ContractingSquareWave(prof profile.Printer, startX, startY, height, width float64, iterations int, shrinkRate float64) toolpath.Toolpath {
	tp := header("Printing contracting square wave")
	tp = append(tp,
		param("start_x", startX), param("start_y", startY),
		param("height", height), param("width", width),
		param("iterations", iterations), param("shrink_rate", shrinkRate),
	)
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(startX, startY-5, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintY(5),
	)
	cur := width
	for i := 0; i < iterations; i++ {
		tp = append(tp, toolpath.PrintY(height), toolpath.PrintX(cur))
		cur *= shrinkRate
		tp = append(tp, toolpath.PrintY(-height), toolpath.PrintX(cur))
		cur *= shrinkRate
	}
	tp = append(tp, toolpath.MoveZ(10))
	return tp
}

// LayeredFFT stacks the contracting square wave over layers. Every
// layer re-primes and reprints the full wave — the width decay restarts
// each pass — at a print height raised by layerHeight per layer, then
// captures a photo. An operator barrier separates layers but never
// follows the last one.
func LayeredFFT(prof profile.Printer, startX, startY, height, width float64, iterations int, shrinkRate, layerHeight float64, layers int) toolpath.Toolpath {
	tp := header("Printing layered FFT")
	layerProf := prof
	for layer := 0; layer < layers; layer++ {
		tp = append(tp, PrimeLine(layerProf, 20, 10, 30)...)
		tp = append(tp, ContractingSquareWave(layerProf,
			startX, startY, height, width, iterations, shrinkRate)...)
		tp = append(tp, capture(1, 90, 10, 60,
			fmt.Sprintf("FFT_%d", layer+1))...)
		if layer != layers-1 {
			tp = append(tp, messageAndWait("Continue to next layer")...)
		}
		layerProf = layerProf.WithPrintHeight(layerProf.PrintHeight+layerHeight, nil)
	}
	return tp
}

// StraightLines prints qty parallel calibration lines of the given
// length, spaced along X, then parks the head clear of the samples.
func StraightLines(prof profile.Printer, startX, startY, length float64, qty int, spacing float64) toolpath.Toolpath {
	tp := toolpath.Toolpath{
		toolpath.Absolute(),
		toolpath.MoveZ(prof.PrintHeight + 5),
		toolpath.MoveTo(startX, startY-5, prof.PrintHeight+5),
	}
	for line := 0; line < qty; line++ {
		tp = append(tp,
			toolpath.Relative(),
			toolpath.Move{X: 0, Y: 5, Z: -5, HasX: true, HasY: true, HasZ: true},
			toolpath.PrintY(length),
			toolpath.Move{X: 0, Y: 5, Z: 5, HasX: true, HasY: true, HasZ: true},
			toolpath.MoveZ(10),
		)
		if line != qty-1 {
			// -length-10 also cancels the two 5 mm approach/exit strokes.
			tp = append(tp,
				toolpath.Move{X: spacing, Y: -length - 10, Z: 0, HasX: true, HasY: true, HasZ: true},
				toolpath.Absolute(),
				toolpath.MoveZ(prof.PrintHeight+5),
			)
		}
	}
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveZ(60),
	)
	tp = append(tp, capture(1, 90, 10, 60, "straight_line_test")...)
	return tp
}

// defaultFlowRates spans the feed rates swept by the mass-flow test.
var defaultFlowRates = []float64{0.1, 0.2, 0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500}

// MassFlowTest extrudes a fixed 35 mm filament length at each feed rate
// with an operator barrier after every extrusion, so the dispensed mass
// can be weighed per rate. A nil rates slice uses the default sweep.
func MassFlowTest(rates []float64) toolpath.Toolpath {
	if rates == nil {
		rates = defaultFlowRates
	}
	tp := header("Mass flow test")
	for _, rate := range rates {
		tp = append(tp,
			toolpath.Raw{GCode: fmt.Sprintf("G1 E35 F%v", rate)},
			toolpath.Wait{},
		)
	}
	return tp
}

// FlowCharacterization primes three lines of increasing length, checks
// in with the operator, then prints a single test stroke of the given
// length at startZ. The elevated start height makes it usable over a
// mounted substrate.
func FlowCharacterization(prof profile.Printer, startX, startY, startZ, length float64) toolpath.Toolpath {
	tp := header("Flow characterization test")
	tp = append(tp,
		param("start_x", startX), param("start_y", startY),
		param("start_z", startZ), param("length", length),
	)
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveZ(40),
		toolpath.MoveTo(5, 10, 40),
	)
	tp = append(tp, PrimeLine(prof, 5, 10, 20)...)
	tp = append(tp, PrimeLine(prof, 10, 10, 30)...)
	tp = append(tp, PrimeLine(prof, 15, 10, 40)...)
	tp = append(tp, toolpath.MoveZ(45))
	tp = append(tp, messageAndWait("Prime lines complete. Ready to continue?")...)

	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveZ(startZ+5),
		toolpath.MoveTo(startX, startY-5, startZ+5),
		toolpath.Relative(),
		toolpath.Move{X: 0, Y: 5, Z: -5, HasX: true, HasY: true, HasZ: true},
		toolpath.PrintY(length),
		toolpath.Move{X: 0, Y: 5, Z: 5, HasX: true, HasY: true, HasZ: true},
		toolpath.MoveZ(55),
	)
	return tp
}
