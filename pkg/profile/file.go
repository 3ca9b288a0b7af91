// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk profile collection. User files extend or override
// the built-in registry for one machine/ink combination.
type File struct {
	Printers   map[string]Printer   `yaml:"printers"`
	Capacitors map[string]Capacitor `yaml:"capacitors"`
}

// LoadFile reads and validates a YAML profile file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}

	for name, p := range f.Printers {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile: printer %q: %w", name, err)
		}
	}
	for name, c := range f.Capacitors {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("profile: capacitor %q: %w", name, err)
		}
	}

	return &f, nil
}

// SaveFile writes a profile collection as YAML.
func (f *File) SaveFile(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("profile: write %s: %w", path, err)
	}
	return nil
}

// Printer resolves a printer profile by name, preferring the file's own
// entries over the built-ins.
func (f *File) Printer(name string) (Printer, error) {
	if f != nil {
		if p, ok := f.Printers[name]; ok {
			return p, nil
		}
	}
	return LookupPrinter(name)
}

// Capacitor resolves a capacitor geometry by name, preferring the file's
// own entries over the built-ins.
func (f *File) Capacitor(name string) (Capacitor, error) {
	if f != nil {
		if c, ok := f.Capacitors[name]; ok {
			return c, nil
		}
	}
	return LookupCapacitor(name)
}
