// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package profile

import (
	"fmt"
	"sort"
)

// Built-in printer profiles, tuned per ink on the lab machine.
var builtinPrinters = map[string]Printer{
	"pva": {
		ExtrusionRate: 0.075,
		Retraction:    0.03,
		FeedRate:      950,
		MovementSpeed: 5000,
		PrintHeight:   1.9,
		BedHeight:     1.75,
		ZHop:          5,
		LineGap:       0.1,
	},
	"mxene-ink": {
		ExtrusionRate: 0.02,
		Retraction:    0.03,
		FeedRate:      1300,
		MovementSpeed: 5000,
		PrintHeight:   1.9,
		BedHeight:     1.75,
		ZHop:          5,
		LineGap:       0.3,
	},
	"mxene-2-20": {
		ExtrusionRate: 0.008,
		Retraction:    0.04,
		FeedRate:      1700,
		MovementSpeed: 5000,
		PrintHeight:   0.5,
		BedHeight:     0.5,
		ZHop:          5,
		LineGap:       0.4,
	},
	"mxene-pet-25g": {
		ExtrusionRate: 0.08,
		Retraction:    0.04,
		FeedRate:      1200,
		MovementSpeed: 5000,
		PrintHeight:   1.1,
		BedHeight:     1.0,
		ZHop:          5,
		LineGap:       0.6,
	},
	"mxene-pet-30g": {
		ExtrusionRate: 0.015,
		Retraction:    0.04,
		FeedRate:      1650,
		MovementSpeed: 6000,
		PrintHeight:   1.3,
		BedHeight:     1.3,
		ZHop:          5,
		LineGap:       0.1,
	},
	"mxene-np3-22g": {
		ExtrusionRate: 0.008,
		Retraction:    0.04,
		FeedRate:      1100,
		MovementSpeed: 6000,
		PrintHeight:   1.3,
		BedHeight:     1.3,
		ZHop:          5,
		LineGap:       0.1,
	},
}

// Built-in capacitor geometries.
var builtinCapacitors = map[string]Capacitor{
	"standard": {
		StemLen:           10,
		ArmLen:            10,
		ArmCount:          4,
		Gap:               3,
		ArmGap:            4,
		ContactPatchWidth: 3,
	},
	"large": {
		StemLen:           20,
		ArmLen:            20,
		ArmCount:          4,
		Gap:               6,
		ArmGap:            6,
		ContactPatchWidth: 10,
	},
	"small": {
		StemLen:           10,
		ArmLen:            5,
		ArmCount:          4,
		Gap:               1,
		ArmGap:            2,
		ContactPatchWidth: 5,
	},
	"electro-cell": {
		StemLen:           10,
		ArmLen:            8,
		ArmCount:          3,
		Gap:               2,
		ArmGap:            2.5,
		ContactPatchWidth: 3,
	},
}

// LookupPrinter returns a built-in printer profile by name.
func LookupPrinter(name string) (Printer, error) {
	p, ok := builtinPrinters[name]
	if !ok {
		return Printer{}, fmt.Errorf("unknown printer profile %q (available: %v)", name, PrinterNames())
	}
	return p, nil
}

// LookupCapacitor returns a built-in capacitor geometry by name.
func LookupCapacitor(name string) (Capacitor, error) {
	c, ok := builtinCapacitors[name]
	if !ok {
		return Capacitor{}, fmt.Errorf("unknown capacitor profile %q (available: %v)", name, CapacitorNames())
	}
	return c, nil
}

// PrinterNames lists the built-in printer profile names, sorted.
func PrinterNames() []string {
	names := make([]string, 0, len(builtinPrinters))
	for name := range builtinPrinters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CapacitorNames lists the built-in capacitor profile names, sorted.
func CapacitorNames() []string {
	names := make([]string, 0, len(builtinCapacitors))
	for name := range builtinCapacitors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
