// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(prefix string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(prefix)
	l.SetWriter(&buf)
	l.SetColorize(false)
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger("test")
	l.SetLevel(WARN)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("DEBUG message should be filtered at WARN level")
	}
	if strings.Contains(out, "info message") {
		t.Error("INFO message should be filtered at WARN level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("WARN message missing")
	}
	if !strings.Contains(out, "error message") {
		t.Error("ERROR message missing")
	}
}

func TestTextFormat(t *testing.T) {
	l, buf := newBufferLogger("engine")

	l.Info("dispatched %d instructions", 12)

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "engine: dispatched 12 instructions") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestFieldsSorted(t *testing.T) {
	l, buf := newBufferLogger("test")

	l.WithFields(Fields{"z": 1, "a": 2}).Info("fields")

	out := buf.String()
	if !strings.Contains(out, "{a=2, z=1}") {
		t.Errorf("fields not sorted: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := newBufferLogger("klipper")
	l.SetFormat(FormatJSON)

	l.WithField("gcode", "G28").Warn("send failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["logger"] != "klipper" {
		t.Errorf("logger = %v, want klipper", entry["logger"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["gcode"] != "G28" {
		t.Errorf("fields missing gcode: %v", entry["fields"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestWithPrefixInheritsSettings(t *testing.T) {
	l, buf := newBufferLogger("root")
	l.SetLevel(ERROR)

	child := l.WithPrefix("child")
	child.Warn("should not appear")
	child.Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Error("child logger did not inherit level")
	}
	if !strings.Contains(out, "child: should appear") {
		t.Errorf("child prefix missing: %q", out)
	}
}
