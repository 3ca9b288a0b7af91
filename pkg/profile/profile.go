// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package profile holds the immutable printer and pattern parameter
// records a print run is generated from.
//
// Profiles are value types. Generators that need an adjusted rate (a
// priming bump, a contact-patch bump) work on a derived copy; the
// original is never mutated, since one profile value is commonly shared
// across several pattern calls in a single toolpath.
package profile

import (
	"github.com/Mita3055/diwctl/pkg/errors"
)

// PressureMode configures optional closed-loop pressure control for a run.
type PressureMode struct {
	Enabled        bool    `yaml:"enabled"`
	TargetPressure float64 `yaml:"target_pressure"` // newtons
}

// Printer is the set of machine parameters that drive command encoding.
// All lengths are millimeters; speeds are mm/min.
type Printer struct {
	ExtrusionRate float64 `yaml:"extrusion_rate"` // E units per mm of planar travel
	Retraction    float64 `yaml:"retraction"`
	FeedRate      float64 `yaml:"feed_rate"`      // printing strokes
	MovementSpeed float64 `yaml:"movement_speed"` // travel moves
	PrintHeight   float64 `yaml:"print_height"`
	BedHeight     float64 `yaml:"bed_height"`
	ZHop          float64 `yaml:"z_hop"`
	LineGap       float64 `yaml:"line_gap"`

	Pressure PressureMode `yaml:"pressure,omitempty"`
}

// WithExtrusionRate returns a copy with the extrusion rate replaced.
func (p Printer) WithExtrusionRate(rate float64) Printer {
	p.ExtrusionRate = rate
	return p
}

// WithExtrusionBump returns a copy with the extrusion rate raised by delta.
func (p Printer) WithExtrusionBump(delta float64) Printer {
	p.ExtrusionRate += delta
	return p
}

// WithPrintHeight returns a copy with the print height replaced. If
// bedHeight is non-nil the bed height is replaced too.
func (p Printer) WithPrintHeight(printHeight float64, bedHeight *float64) Printer {
	p.PrintHeight = printHeight
	if bedHeight != nil {
		p.BedHeight = *bedHeight
	}
	return p
}

// WithPressure returns a copy with pressure-based extrusion enabled at
// the given target.
func (p Printer) WithPressure(targetPressure float64) Printer {
	p.Pressure = PressureMode{Enabled: true, TargetPressure: targetPressure}
	return p
}

// Validate checks the profile for values that would produce a toolpath
// the machine cannot execute.
func (p Printer) Validate() error {
	switch {
	case p.ExtrusionRate <= 0:
		return errors.ProfileError("extrusion_rate must be positive")
	case p.FeedRate <= 0:
		return errors.ProfileError("feed_rate must be positive")
	case p.MovementSpeed <= 0:
		return errors.ProfileError("movement_speed must be positive")
	case p.PrintHeight <= 0:
		return errors.ProfileError("print_height must be positive")
	case p.LineGap < 0:
		return errors.ProfileError("line_gap must not be negative")
	}
	return nil
}

// Capacitor describes an interdigitated-comb capacitor pattern.
// All lengths are millimeters.
type Capacitor struct {
	StemLen           float64 `yaml:"stem_len"`
	ArmLen            float64 `yaml:"arm_len"`
	ArmCount          int     `yaml:"arm_count"`
	Gap               float64 `yaml:"gap"`
	ArmGap            float64 `yaml:"arm_gap"`
	ContactPatchWidth float64 `yaml:"contact_patch_width"`
}

// Validate checks the capacitor geometry.
func (c Capacitor) Validate() error {
	if c.ArmCount <= 0 {
		return errors.ProfileError("arm_count must be positive")
	}
	if c.StemLen <= 0 || c.ArmLen <= 0 {
		return errors.ProfileError("stem_len and arm_len must be positive")
	}
	return nil
}
