// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mita3055/diwctl/pkg/log"
	"github.com/Mita3055/diwctl/pkg/pattern"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

var generateCmd = &cobra.Command{
	Use:   "generate <pattern>",
	Short: "Generate a toolpath file for a pattern",
	Long: `Generate assembles a pattern into a toolpath file ready for "diwctl print".

Patterns: prime, prime-routine, capacitor, capacitor-patch, capacitor-layers,
single-line, single-line-left, single-line-right, square-wave,
contracting-square-wave, lattice, lattice3d, fft, straight-lines, mass-flow,
flow-test.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var genFlags struct {
	output    string
	capName   string
	x, y      float64
	rows      int
	cols      int
	spacing   float64
	layers    int
	layerH    float64
	delay     float64
	height    float64
	width     float64
	iters     int
	shrink    float64
	length    float64
	qty       int
	xOffset   float64
	yOffset   float64
	startZ    float64
	prime     bool
	primeLen  float64
	motorsOff bool
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genFlags.output, "output", "o", "toolpath.gcode", "output file")
	f.StringVar(&genFlags.capName, "capacitor", "standard", "capacitor profile name")
	f.Float64Var(&genFlags.x, "x", 60, "pattern X origin")
	f.Float64Var(&genFlags.y, "y", 50, "pattern Y origin")
	f.IntVar(&genFlags.rows, "rows", 5, "lattice rows")
	f.IntVar(&genFlags.cols, "cols", 5, "lattice columns")
	f.Float64Var(&genFlags.spacing, "spacing", 3, "lattice/line spacing")
	f.IntVar(&genFlags.layers, "layers", 1, "layer count for layered patterns")
	f.Float64Var(&genFlags.layerH, "layer-height", 0.5, "height added per layer")
	f.Float64Var(&genFlags.delay, "delay", 30, "pause between layers, seconds")
	f.Float64Var(&genFlags.height, "height", 30, "wave stroke height")
	f.Float64Var(&genFlags.width, "width", 5, "wave stroke width")
	f.IntVar(&genFlags.iters, "iterations", 12, "wave iterations")
	f.Float64Var(&genFlags.shrink, "shrink", 0.9, "contraction rate per half-stroke")
	f.Float64Var(&genFlags.length, "length", 40, "straight line length")
	f.IntVar(&genFlags.qty, "qty", 5, "straight line count")
	f.Float64Var(&genFlags.xOffset, "x-offset", 0, "arm-layer X offset from the comb origin")
	f.Float64Var(&genFlags.yOffset, "y-offset", 0, "arm-layer Y offset from the comb origin")
	f.Float64Var(&genFlags.startZ, "start-z", 10, "flow test stroke height")
	f.BoolVar(&genFlags.prime, "prime", true, "print a priming line first")
	f.Float64Var(&genFlags.primeLen, "prime-length", 10, "priming line length")
	f.BoolVar(&genFlags.motorsOff, "motors-off", false, "release steppers at the end")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	file, prn, err := loadProfiles()
	if err != nil {
		return err
	}
	name := strings.ToLower(args[0])

	b := toolpath.NewBuilder()
	if genFlags.prime && name != "prime" && name != "prime-routine" {
		// Priming strokes always precede the first pattern.
		b.Append(pattern.PrimeLine(prn, genFlags.x-20, genFlags.y-20, genFlags.primeLen))
	}

	switch name {
	case "prime":
		b.Append(pattern.PrimeLine(prn, genFlags.x, genFlags.y, genFlags.primeLen))
	case "prime-routine":
		b.Append(pattern.PrimeRoutine(prn, genFlags.x, genFlags.y))
	case "capacitor":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.Capacitor(prn, capProf, genFlags.x, genFlags.y))
	case "capacitor-patch":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.CapacitorContactPatch(prn, capProf, genFlags.x, genFlags.y))
	case "single-line":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.SingleLineCap(prn, capProf,
			genFlags.layers, genFlags.layerH, genFlags.delay, genFlags.x, genFlags.y))
	case "single-line-left":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.SingleLineCapLeft(prn, capProf,
			genFlags.layers, genFlags.layerH, genFlags.delay, genFlags.x, genFlags.y))
	case "single-line-right":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.SingleLineCapRight(prn, capProf,
			genFlags.layers, genFlags.layerH, genFlags.delay, genFlags.x, genFlags.y))
	case "capacitor-layers":
		capProf, err := file.Capacitor(genFlags.capName)
		if err != nil {
			return err
		}
		b.Append(pattern.CapacitorLayers(prn, capProf,
			genFlags.x, genFlags.y, genFlags.xOffset, genFlags.yOffset))
	case "mass-flow":
		b.Append(pattern.MassFlowTest(nil))
	case "flow-test":
		b.Append(pattern.FlowCharacterization(prn,
			genFlags.x, genFlags.y, genFlags.startZ, genFlags.length))
	case "square-wave":
		b.Append(pattern.SquareWave(prn, genFlags.x, genFlags.y,
			genFlags.height, genFlags.width, genFlags.iters))
	case "contracting-square-wave":
		b.Append(pattern.ContractingSquareWave(prn, genFlags.x, genFlags.y,
			genFlags.height, genFlags.width, genFlags.iters, genFlags.shrink))
	case "lattice":
		b.Append(pattern.Lattice(prn, genFlags.x, genFlags.y,
			genFlags.rows, genFlags.cols, genFlags.spacing))
	case "lattice3d":
		b.Append(pattern.Lattice3D(prn, genFlags.x, genFlags.y,
			genFlags.rows, genFlags.cols, genFlags.spacing,
			genFlags.layers, genFlags.layerH))
	case "fft":
		b.Append(pattern.LayeredFFT(prn, genFlags.x, genFlags.y,
			genFlags.height, genFlags.width, genFlags.iters,
			genFlags.shrink, genFlags.layerH, genFlags.layers))
	case "straight-lines":
		b.Append(pattern.StraightLines(prn, genFlags.x, genFlags.y,
			genFlags.length, genFlags.qty, genFlags.spacing))
	default:
		return fmt.Errorf("unknown pattern %q", args[0])
	}

	if genFlags.motorsOff {
		b.MotorsOff()
	}
	tp, err := b.Build()
	if err != nil {
		return err
	}
	if err := toolpath.SaveFile(genFlags.output, tp, prn); err != nil {
		return err
	}
	log.GetLogger().WithFields(log.Fields{
		"pattern":      name,
		"instructions": len(tp),
		"file":         genFlags.output,
	}).Info("toolpath written")
	return nil
}
