// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pattern

import (
	"github.com/Mita3055/diwctl/pkg/profile"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

// Capacitor prints an interdigitated capacitor as two opposed combs
// drawn with a double line and no nozzle lift between arms. The left
// comb prints its stem then arm_count arms; the right comb starts
// offset by arm_len+gap and interleaves its arms between the left ones.
func Capacitor(prof profile.Printer, cap profile.Capacitor, xStart, yStart float64) toolpath.Toolpath {
	tp := header("Printing capacitor (double line, no lift)")
	tp = append(tp, param("xStart", xStart), param("yStart", yStart))

	// Left comb.
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart, yStart, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintY(cap.StemLen-cap.ArmGap),
	)
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.PrintY(cap.ArmGap-prof.LineGap/2),
			toolpath.PrintX(cap.ArmLen),
			toolpath.PrintY(prof.LineGap),
			toolpath.PrintX(-cap.ArmLen),
		)
	}
	down := cap.StemLen + float64(cap.ArmCount)*prof.LineGap +
		float64(cap.ArmCount-1)*cap.ArmGap
	tp = append(tp,
		toolpath.PrintX(-prof.LineGap),
		toolpath.PrintY(-down),
		toolpath.MoveZ(prof.ZHop),
	)

	// Right comb, interleaved.
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart+cap.ArmLen+cap.Gap, yStart, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintY(cap.StemLen-3*cap.ArmGap/2-prof.LineGap),
	)
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.PrintY(cap.ArmGap),
			toolpath.PrintX(-cap.ArmLen),
			toolpath.PrintY(prof.LineGap),
			toolpath.PrintX(cap.ArmLen),
		)
	}
	down = cap.StemLen + float64(cap.ArmCount)*prof.LineGap +
		float64(cap.ArmCount-1)*cap.ArmGap - cap.ArmGap/2
	tp = append(tp,
		toolpath.PrintY(-down),
		toolpath.MoveZ(10),
	)
	return tp
}

// CapacitorContactPatch is the double-line capacitor preceded, on each
// side, by a square contact patch for probing. The short lead-in stroke
// into the patch runs at a bumped extrusion rate taken from a derived
// profile copy, so the shared profile is never mutated.
func CapacitorContactPatch(prof profile.Printer, cap profile.Capacitor, xStart, yStart float64) toolpath.Toolpath {
	pre := prof.WithExtrusionBump(0.005)

	tp := header("Printing capacitor with contact patches")
	tp = append(tp, param("xStart", xStart), param("yStart", yStart))

	// Left side: lead-in, patch, stem, arms.
	tp = append(tp, contactPatch(prof, pre, cap, xStart, yStart)...)
	tp = append(tp, toolpath.PrintY(cap.StemLen-cap.ArmGap))
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.PrintY(cap.ArmGap),
			toolpath.PrintX(cap.ArmLen),
			toolpath.PrintY(prof.LineGap),
			toolpath.PrintX(-cap.ArmLen),
		)
	}
	down := cap.StemLen + float64(cap.ArmCount)*prof.LineGap +
		float64(cap.ArmCount-1)*cap.ArmGap
	tp = append(tp,
		toolpath.PrintX(-prof.LineGap),
		toolpath.PrintY(-down),
		liftNozzle(),
	)

	// Right side.
	rightX := xStart + cap.ArmLen + cap.Gap
	tp = append(tp, contactPatch(prof, pre, cap, rightX, yStart)...)
	tp = append(tp, toolpath.PrintY(cap.StemLen-3*cap.ArmGap/2-prof.LineGap))
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.PrintY(cap.ArmGap),
			toolpath.PrintX(-cap.ArmLen),
			toolpath.PrintY(prof.LineGap),
			toolpath.PrintX(cap.ArmLen),
		)
	}
	down = cap.StemLen + float64(cap.ArmCount)*prof.LineGap +
		float64(cap.ArmCount-1)*cap.ArmGap - cap.ArmGap/2
	tp = append(tp,
		toolpath.PrintY(-down),
		liftNozzle(),
	)
	return tp
}

// contactPatch approaches from 6 mm below the comb origin, draws the
// bumped-rate lead-in, hops over it, and traces the square patch. It
// leaves the encoder in relative mode at the comb origin.
func contactPatch(prof, pre profile.Printer, cap profile.Capacitor, x, y float64) toolpath.Toolpath {
	w := cap.ContactPatchWidth
	return toolpath.Toolpath{
		toolpath.Absolute(),
		toolpath.MoveTo(x, y-6, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintY(2).WithRate(pre.ExtrusionRate),
		toolpath.Absolute(),
		toolpath.MoveZ(prof.PrintHeight + 2),
		toolpath.MoveTo(x, y, prof.PrintHeight),
		toolpath.Relative(),
		toolpath.PrintX(-w / 2),
		toolpath.PrintY(w),
		toolpath.PrintX(w),
		toolpath.PrintY(-w),
		toolpath.PrintX(-w / 2),
	}
}

func liftNozzle() toolpath.Move {
	return toolpath.Move{X: 0, Y: -3, Z: 3, HasX: true, HasY: true, HasZ: true}
}

// CapacitorLayers reprints just the arms of an existing comb pair,
// shifted by (xOffset, yOffset) from the original origin. Each arm gets
// a short bumped-rate lead-in from beside the stem, a hop over it, then
// the arm loop at a slightly raised rate. Left comb first, then right.
func CapacitorLayers(prof profile.Printer, cap profile.Capacitor, xStart, yStart, xOffset, yOffset float64) toolpath.Toolpath {
	pre := prof.WithExtrusionBump(0.005)
	main := prof.WithExtrusionBump(0.001)
	x := xStart + xOffset
	y := yStart + yOffset

	tp := header("Printing capacitor arm layers")
	tp = append(tp,
		param("xStart", x), param("yStart", y),
		param("xOffset", xOffset), param("yOffset", yOffset),
	)

	// Left comb: approach from the left of the first arm.
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(x-5, y+cap.StemLen, 5),
		toolpath.MoveZ(prof.PrintHeight),
	)
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.Relative(),
			toolpath.PrintX(2.5).WithRate(pre.ExtrusionRate),
			toolpath.MoveZ(2.5),
			toolpath.Move{X: 2.5, Y: 0, Z: -2.5, HasX: true, HasY: true, HasZ: true},
			toolpath.PrintX(cap.ArmLen).WithRate(main.ExtrusionRate),
			toolpath.PrintY(prof.LineGap).WithRate(main.ExtrusionRate),
			toolpath.PrintX(-cap.ArmLen).WithRate(main.ExtrusionRate),
			toolpath.Move{X: -5, Y: 0, Z: 5, HasX: true, HasY: true, HasZ: true},
		)
		if arm < cap.ArmCount-1 {
			tp = append(tp,
				toolpath.MoveY(cap.ArmGap),
				toolpath.Absolute(),
				toolpath.MoveZ(prof.PrintHeight),
			)
		} else {
			tp = append(tp, toolpath.MoveZ(5))
		}
	}

	// Right comb: approach from the right, arms print inward.
	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(x+cap.ArmLen+cap.Gap+5,
			y+cap.StemLen-cap.ArmGap/2-prof.LineGap, prof.PrintHeight),
	)
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp,
			toolpath.Relative(),
			toolpath.PrintX(-2).WithRate(pre.ExtrusionRate),
			toolpath.MoveZ(2),
			toolpath.Move{X: -3, Y: 0, Z: -2, HasX: true, HasY: true, HasZ: true},
			toolpath.PrintX(-cap.ArmLen).WithRate(main.ExtrusionRate),
			toolpath.PrintY(prof.LineGap).WithRate(main.ExtrusionRate),
			toolpath.PrintX(cap.ArmLen).WithRate(main.ExtrusionRate),
			toolpath.Move{X: 5, Y: 0, Z: 5, HasX: true, HasY: true, HasZ: true},
		)
		if arm < cap.ArmCount-1 {
			tp = append(tp,
				toolpath.MoveY(cap.ArmGap),
				toolpath.Absolute(),
				toolpath.MoveZ(prof.PrintHeight),
			)
		} else {
			tp = append(tp, toolpath.MoveZ(5))
		}
	}
	return tp
}

// SingleLineCap prints both combs of a single-line capacitor, lifting
// 2 mm after each arm and diving back for the next. With layers > 1 the
// whole structure repeats at increasing height, separated by a pause of
// delay seconds; no pause precedes the first layer.
func SingleLineCap(prof profile.Printer, cap profile.Capacitor, layers int, layerHeight, delay, xStart, yStart float64) toolpath.Toolpath {
	tp := header("Printing capacitor (single line)")
	tp = append(tp, param("xStart", xStart), param("yStart", yStart))

	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart, yStart, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
	)
	tp = append(tp, singleCombLeft(cap, false)...)
	tp = append(tp,
		toolpath.MoveZ(10),
		toolpath.Absolute(),
		toolpath.MoveTo(xStart+cap.ArmLen+cap.ArmGap, yStart, prof.PrintHeight),
		toolpath.Relative(),
	)
	tp = append(tp, singleCombRight(cap, false)...)
	tp = append(tp, toolpath.MoveZ(10))

	for layer := 1; layer < layers; layer++ {
		z := prof.PrintHeight + layerHeight*float64(layer+1)
		tp = append(tp, pause(delay)...)
		tp = append(tp,
			toolpath.Absolute(),
			toolpath.MoveTo(xStart, yStart+leftStem(cap), 10),
			toolpath.MoveZ(z),
			toolpath.Relative(),
		)
		tp = append(tp, singleCombArmsLeft(cap, false)...)
		tp = append(tp,
			toolpath.Absolute(),
			toolpath.MoveTo(xStart+cap.ArmLen+cap.ArmGap, yStart+rightStem(cap), 10),
			toolpath.MoveZ(z),
			toolpath.Relative(),
		)
		tp = append(tp, singleCombArmsRight(cap, false)...)
	}
	return tp
}

// SingleLineCapLeft prints only the left comb, retracting after every
// arm to cut the filament cleanly.
func SingleLineCapLeft(prof profile.Printer, cap profile.Capacitor, layers int, layerHeight, delay, xStart, yStart float64) toolpath.Toolpath {
	tp := header("Printing capacitor (single line, left)")
	tp = append(tp,
		param("xStart", xStart), param("yStart", yStart),
		param("layers", layers), param("layer_height", layerHeight),
		param("delay", delay), param("extrusion_rate", prof.ExtrusionRate),
	)

	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart, yStart, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
	)
	tp = append(tp, singleCombLeft(cap, true)...)
	tp = append(tp, toolpath.Retract{}, toolpath.MoveZ(10))

	for layer := 1; layer < layers; layer++ {
		z := prof.PrintHeight + layerHeight*float64(layer+1)
		tp = append(tp, pause(delay)...)
		tp = append(tp,
			toolpath.Absolute(),
			toolpath.MoveTo(xStart, yStart+leftStem(cap), 10),
			toolpath.MoveZ(z),
			toolpath.Relative(),
		)
		tp = append(tp, singleCombArmsLeft(cap, true)...)
	}
	if layers > 1 {
		tp = append(tp, toolpath.MoveZ(10))
	}
	return tp
}

// SingleLineCapRight prints only the right comb with retraction after
// every arm.
func SingleLineCapRight(prof profile.Printer, cap profile.Capacitor, layers int, layerHeight, delay, xStart, yStart float64) toolpath.Toolpath {
	tp := header("Printing capacitor (single line, right)")
	tp = append(tp,
		param("xStart", xStart), param("yStart", yStart),
		param("layers", layers), param("layer_height", layerHeight),
		param("delay", delay), param("extrusion_rate", prof.ExtrusionRate),
	)

	tp = append(tp,
		toolpath.Absolute(),
		toolpath.MoveTo(xStart+cap.ArmLen+cap.ArmGap, yStart, 10),
		toolpath.MoveZ(prof.PrintHeight),
		toolpath.Relative(),
	)
	tp = append(tp, singleCombRight(cap, true)...)
	tp = append(tp, toolpath.MoveZ(10))

	for layer := 1; layer < layers; layer++ {
		z := prof.PrintHeight + layerHeight*float64(layer+1)
		tp = append(tp, pause(delay)...)
		tp = append(tp,
			toolpath.Absolute(),
			toolpath.MoveTo(xStart+cap.ArmLen+cap.ArmGap, yStart+rightStem(cap), 10),
			toolpath.MoveZ(z),
			toolpath.Relative(),
		)
		tp = append(tp, singleCombArmsRight(cap, true)...)
	}
	return tp
}

func leftStem(cap profile.Capacitor) float64 {
	return cap.StemLen + float64(cap.ArmCount-1)*cap.ArmGap
}

func rightStem(cap profile.Capacitor) float64 {
	return cap.StemLen + (float64(cap.ArmCount)-0.5)*cap.ArmGap
}

func singleCombLeft(cap profile.Capacitor, retract bool) toolpath.Toolpath {
	tp := toolpath.Toolpath{toolpath.PrintY(leftStem(cap))}
	return append(tp, singleCombArmsLeft(cap, retract)...)
}

func singleCombRight(cap profile.Capacitor, retract bool) toolpath.Toolpath {
	tp := toolpath.Toolpath{toolpath.PrintY(rightStem(cap))}
	return append(tp, singleCombArmsRight(cap, retract)...)
}

func singleCombArmsLeft(cap profile.Capacitor, retract bool) toolpath.Toolpath {
	var tp toolpath.Toolpath
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp, toolpath.PrintX(cap.ArmLen))
		if retract {
			tp = append(tp, toolpath.Retract{})
		}
		tp = append(tp,
			toolpath.MoveZ(2),
			toolpath.Move{X: -cap.ArmLen, Y: -cap.ArmGap, Z: -2,
				HasX: true, HasY: true, HasZ: true},
		)
	}
	return tp
}

func singleCombArmsRight(cap profile.Capacitor, retract bool) toolpath.Toolpath {
	var tp toolpath.Toolpath
	for arm := 0; arm < cap.ArmCount; arm++ {
		tp = append(tp, toolpath.PrintX(-cap.ArmLen))
		if retract {
			tp = append(tp, toolpath.Retract{})
		}
		tp = append(tp,
			toolpath.MoveZ(2),
			toolpath.Move{X: cap.ArmLen, Y: -cap.ArmGap, Z: -2,
				HasX: true, HasY: true, HasZ: true},
		)
	}
	return tp
}
