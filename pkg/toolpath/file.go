// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/profile"
)

// Save writes the toolpath's text form, one line per encoded
// instruction. The profile supplies the extrusion and feed parameters
// baked into the G-code lines.
func Save(w io.Writer, tp Toolpath, prof profile.Printer) error {
	enc := NewEncoder(prof)
	lines, err := enc.EncodeAll(tp)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return errors.Wrap(errors.ErrToolpath, err, "writing toolpath")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrToolpath, err, "writing toolpath")
	}
	return nil
}

// SaveFile writes the toolpath to a file, replacing any existing
// contents. Missing directories on the path are created.
func SaveFile(path string, tp Toolpath, prof profile.Printer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrToolpath, err, "creating "+dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrToolpath, err, "creating "+path)
	}
	defer f.Close()
	if err := Save(f, tp, prof); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrToolpath, err, "closing "+path)
	}
	return nil
}

// LoadFile parses a persisted toolpath file.
func LoadFile(path string) (Toolpath, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrToolpath, err, "opening "+path)
	}
	defer f.Close()
	return Parse(f)
}
