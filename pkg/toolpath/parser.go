// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Mita3055/diwctl/pkg/errors"
)

// Parse reads the persisted text form of a toolpath. Every input line
// maps to exactly one instruction: pseudo-directives become their typed
// form, G90/G91/G28 become SetMode/Home so the dispatcher keeps its
// modal tracking on replayed files, comments and unrecognized G-code
// pass through as Raw, and a malformed directive becomes Invalid so the
// dispatcher can warn and skip without losing the line.
func Parse(r io.Reader) (Toolpath, error) {
	var tp Toolpath
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		tp = append(tp, ParseLine(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrToolpath, err, "reading toolpath")
	}
	return tp, nil
}

// ParseLine decodes a single line. It never fails: undecodable
// directives come back as Invalid.
func ParseLine(line string) Instruction {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, ";") {
		return Raw{GCode: line}
	}

	head := trimmed
	if i := strings.IndexByte(trimmed, ','); i >= 0 {
		head = trimmed[:i]
	}
	switch strings.ToUpper(strings.TrimSpace(head)) {
	case "CAPTURE":
		return parseCapture(trimmed)
	case "PASUE", "PAUSE":
		return parsePause(trimmed)
	case "PRINT_MESSAGE":
		return parseMessage(trimmed)
	case "WAIT":
		if strings.EqualFold(trimmed, "WAIT") {
			return Wait{}
		}
		return Invalid{Line: line, Reason: "WAIT takes no arguments"}
	}

	switch {
	case trimmed == "G90":
		return SetMode{Absolute: true}
	case trimmed == "G91":
		return SetMode{Absolute: false}
	case trimmed == "G28" || strings.HasPrefix(trimmed, "G28 "):
		axes := strings.ReplaceAll(strings.TrimPrefix(trimmed, "G28"), " ", "")
		return Home{Axes: axes}
	}
	return Raw{GCode: line}
}

func parseCapture(line string) Instruction {
	fields := splitFields(line)
	if len(fields) != 7 && len(fields) != 9 {
		return Invalid{Line: line,
			Reason: "capture needs camera, x, y, z, filename, timelapse"}
	}
	cam, err := strconv.Atoi(fields[1])
	if err != nil {
		return Invalid{Line: line, Reason: "bad camera number " + fields[1]}
	}
	var xyz [3]float64
	for i := 0; i < 3; i++ {
		xyz[i], err = strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return Invalid{Line: line, Reason: "bad coordinate " + fields[2+i]}
		}
	}
	c := Capture{Camera: cam, X: xyz[0], Y: xyz[1], Z: xyz[2], Filename: fields[5]}
	timelapse, err := strconv.ParseBool(strings.ToLower(fields[6]))
	if err != nil {
		return Invalid{Line: line, Reason: "bad timelapse flag " + fields[6]}
	}
	if timelapse {
		if len(fields) != 9 {
			return Invalid{Line: line,
				Reason: "timelapse capture needs interval and duration"}
		}
		interval, err1 := strconv.ParseFloat(fields[7], 64)
		duration, err2 := strconv.ParseFloat(fields[8], 64)
		if err1 != nil || err2 != nil {
			return Invalid{Line: line, Reason: "bad timelapse interval or duration"}
		}
		c.Timelapse = &Timelapse{Interval: interval, Duration: duration}
	}
	return c
}

func parsePause(line string) Instruction {
	fields := splitFields(line)
	if len(fields) != 2 {
		return Invalid{Line: line, Reason: "pause needs a duration"}
	}
	sec, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || sec < 0 {
		return Invalid{Line: line, Reason: "bad pause duration " + fields[1]}
	}
	return Pause{Seconds: sec}
}

func parseMessage(line string) Instruction {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return Invalid{Line: line, Reason: "message needs text"}
	}
	return Message{Text: strings.TrimSpace(parts[1])}
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
