// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pattern

import (
	"fmt"

	"github.com/Mita3055/diwctl/pkg/profile"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

// Lattice prints a grid: rows vertical strokes boustrophedon (alternating
// sign by row index), each followed by an X step of spacing, then a
// closing horizontal pass. The closing pass branches on the parity of
// rows — even and odd row counts leave the head on opposite sides of the
// grid, so the final return stroke differs in both sign and length.
func Lattice(prof profile.Printer, startX, startY float64, rows, cols int, spacing float64) toolpath.Toolpath {
	tp := header("Printing lattice/grid")
	tp = append(tp,
		param("start_x", startX), param("start_y", startY),
		param("horizontal_lines", cols), param("vertical_lines", rows),
		param("spacing", spacing),
	)
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(startX, startY-spacing, 5),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintY(5),
	)
	tp = append(tp, latticePass(rows, cols, spacing)...)
	return tp
}

// latticePass emits one full grid: the vertical boustrophedon strokes
// plus the parity-dependent closing horizontal section. It starts and
// ends in relative mode.
func latticePass(rows, cols int, spacing float64) toolpath.Toolpath {
	span := spacing * float64(cols)
	var tp toolpath.Toolpath
	for i := 0; i < rows; i++ {
		if i%2 == 0 {
			tp = append(tp, toolpath.PrintY(span))
		} else {
			tp = append(tp, toolpath.PrintY(-span))
		}
		tp = append(tp, toolpath.PrintX(spacing))
	}
	return append(tp, latticeClosing(rows, cols, spacing)...)
}

func latticeClosing(rows, cols int, spacing float64) toolpath.Toolpath {
	span := spacing * float64(cols)
	rowSpan := spacing * float64(rows)
	var tp toolpath.Toolpath
	if rows%2 == 0 {
		tp = append(tp, toolpath.PrintY(span))
		for i := 0; i < cols; i++ {
			if i%2 == 0 {
				tp = append(tp, toolpath.PrintX(-rowSpan))
			} else {
				tp = append(tp, toolpath.PrintX(rowSpan))
			}
			tp = append(tp, toolpath.PrintY(-spacing))
		}
		tp = append(tp, toolpath.PrintX(-5-spacing-span))
	} else {
		tp = append(tp, toolpath.PrintY(-span))
		for i := 0; i < cols; i++ {
			if i%2 == 0 {
				tp = append(tp, toolpath.PrintX(-rowSpan))
			} else {
				tp = append(tp, toolpath.PrintX(rowSpan))
			}
			tp = append(tp, toolpath.PrintY(spacing))
		}
		tp = append(tp, toolpath.PrintX(5+span))
	}
	return tp
}

// Lattice3D stacks lattice passes over layers. Every layer re-primes
// and repositions absolutely to the start corner at the current print
// height, prints the grid, then captures a photo. The print height
// advances by layerHeight after the vertical section and again after
// the closing section, so consecutive layers sit 2·layerHeight apart.
// Operator barriers separate layers but never follow the final capture.
func Lattice3D(prof profile.Printer, startX, startY float64, rows, cols int, spacing float64, layers int, layerHeight float64) toolpath.Toolpath {
	tp := header("Printing 3D lattice/grid")
	tp = append(tp,
		param("start_x", startX), param("start_y", startY),
		param("horizontal_lines", cols), param("vertical_lines", rows),
		param("spacing", spacing), param("layers", layers),
		param("layer_height", layerHeight),
	)

	span := spacing * float64(cols)
	printZ := prof.PrintHeight
	layerZ := 0.0
	for layer := 0; layer < layers; layer++ {
		tp = append(tp, PrimeLine(prof, 20, 10, 30)...)
		tp = append(tp,
			toolpath.Absolute(),
			toolpath.MoveTo(startX, startY-spacing, 5),
			toolpath.MoveZ(printZ),
			toolpath.Relative(),
			toolpath.PrintY(5),
		)
		for i := 0; i < rows; i++ {
			if i%2 == 0 {
				tp = append(tp, toolpath.PrintY(span))
			} else {
				tp = append(tp, toolpath.PrintY(-span))
			}
			tp = append(tp, toolpath.PrintX(spacing))
		}
		layerZ += layerHeight

		tp = append(tp, latticeClosing(rows, cols, spacing)...)
		layerZ += layerHeight
		printZ = prof.PrintHeight + layerZ

		tp = append(tp, capture(1, 65, 10, layerZ+60,
			fmt.Sprintf("lattice_layer_%d_horizontal", layer))...)
		if layer != layers-1 {
			tp = append(tp, messageAndWait("Continue to next layer")...)
		}
	}

	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveZ(60),
		toolpath.MoveTo(65, 10, 60),
	)
	return tp
}
