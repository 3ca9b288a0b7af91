// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Unified error handling for the DIW printer host.
package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an error by which run-loop policy applies to it.
type Code string

const (
	// ErrConnection: the motion controller is unreachable or unusable at
	// run start. Fatal; the run must not begin.
	ErrConnection Code = "CONNECTION"

	// ErrDirectiveParse: a pseudo-directive payload could not be parsed.
	// Recoverable; the instruction is skipped and the run continues.
	ErrDirectiveParse Code = "DIRECTIVE_PARSE"

	// ErrSend: a single send_gcode call failed. The run continues or
	// aborts depending on the engine's send policy.
	ErrSend Code = "SEND"

	// ErrIdleTimeout: wait_for_idle exceeded its timeout. Logged as a
	// warning; the run continues assuming motion finished.
	ErrIdleTimeout Code = "IDLE_TIMEOUT"

	// ErrHardware: a collaborator (load cell, camera) read failed. The
	// affected feature degrades without aborting the print.
	ErrHardware Code = "HARDWARE"

	// ErrProfile: invalid printer or pattern profile configuration.
	ErrProfile Code = "PROFILE"

	// ErrToolpath: invalid toolpath structure (e.g. a Move before any
	// modal state was established).
	ErrToolpath Code = "TOOLPATH"

	// ErrAborted: the run was cancelled by the operator.
	ErrAborted Code = "ABORTED"
)

// HostError is the unified error type for the printer host.
type HostError struct {
	Code    Code
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetContext attaches additional context to the error.
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new HostError.
func New(code Code, message string) *HostError {
	return &HostError{Code: code, Message: message}
}

// Newf creates a new HostError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *HostError {
	return &HostError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code Code, err error, message string) *HostError {
	return &HostError{Code: code, Message: message, Err: err}
}

// ConnectionError creates a fatal connection error.
func ConnectionError(message string, err error) *HostError {
	return &HostError{Code: ErrConnection, Message: message, Err: err}
}

// DirectiveParseError creates a recoverable directive parse error.
func DirectiveParseError(line string, reason string) *HostError {
	e := Newf(ErrDirectiveParse, "malformed directive: %s", reason)
	return e.SetContext("line", line)
}

// SendError creates an error for a failed send_gcode call.
func SendError(cmd string, err error) *HostError {
	e := Wrap(ErrSend, err, "send_gcode failed")
	return e.SetContext("gcode", cmd)
}

// IdleTimeoutError creates a recoverable idle-wait timeout error.
func IdleTimeoutError(message string) *HostError {
	return New(ErrIdleTimeout, message)
}

// HardwareError creates a degraded-feature hardware error.
func HardwareError(component string, err error) *HostError {
	e := Wrap(ErrHardware, err, component+" unavailable")
	return e.SetContext("component", component)
}

// ProfileError creates a profile validation error.
func ProfileError(message string) *HostError {
	return New(ErrProfile, message)
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var he *HostError
	for errors.As(err, &he) {
		if he.Code == code {
			return true
		}
		err = he.Err
		he = nil
	}
	return false
}

// IsFatal reports whether the error must stop a run before it begins.
func IsFatal(err error) bool {
	return Is(err, ErrConnection) || Is(err, ErrAborted)
}
