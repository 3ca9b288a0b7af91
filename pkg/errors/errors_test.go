// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(ErrConnection, "controller unreachable")
	want := "[CONNECTION] controller unreachable"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	wrapped := Wrap(ErrSend, errors.New("dial tcp: refused"), "send_gcode failed")
	if got := wrapped.Error(); got != "[SEND] send_gcode failed: dial tcp: refused" {
		t.Errorf("wrapped Error() = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := Wrap(ErrHardware, inner, "camera unavailable")

	if !errors.Is(e, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestIsCode(t *testing.T) {
	e := SendError("G1 X1", errors.New("timeout"))
	if !Is(e, ErrSend) {
		t.Error("Is(ErrSend) = false, want true")
	}
	if Is(e, ErrConnection) {
		t.Error("Is(ErrConnection) = true, want false")
	}

	// Code checks must see through plain fmt wrapping.
	outer := fmt.Errorf("run failed: %w", e)
	if !Is(outer, ErrSend) {
		t.Error("Is should find code through wrapped errors")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ConnectionError("unreachable", nil)) {
		t.Error("connection errors are fatal")
	}
	if IsFatal(IdleTimeoutError("timed out")) {
		t.Error("idle timeouts are recoverable")
	}
	if IsFatal(DirectiveParseError("CAPTURE,1,10", "missing fields")) {
		t.Error("directive parse errors are recoverable")
	}
}

func TestContext(t *testing.T) {
	e := DirectiveParseError("CAPTURE,1,10", "expected at least 6 fields")
	if e.Context["line"] != "CAPTURE,1,10" {
		t.Errorf("context line = %v", e.Context["line"])
	}
}
