// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package errs declares the distinct error kinds the rendering core raises
// (spec.md §7, "Error kinds (not type names)"). Each kind is a struct type
// that holds its cause and implements Unwrap, so callers use
// errors.Is/errors.As rather than string matching.
package errs

import (
	"errors"
	"fmt"
)

// ErrShutdownInProgress names a duplicate trigger of the shutdown sequence.
// shutdown.Coordinator does not return it: a duplicate ShutdownAll call is a
// no-op that waits for the first one to finish.
var ErrShutdownInProgress = errors.New("errs: shutdown already in progress")

// ConfigError wraps a malformed-manifest or invalid-topology failure,
// fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error: field %q: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError constructs a ConfigError.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// HardwareApplyError wraps a single-channel flush failure. Non-fatal: the
// caller logs and continues, counting consecutive occurrences toward
// channel quarantine.
type HardwareApplyError struct {
	Channel string
	Err     error
}

func (e *HardwareApplyError) Error() string {
	return fmt.Sprintf("hardware apply error on channel %q: %v", e.Channel, e.Err)
}

func (e *HardwareApplyError) Unwrap() error { return e.Err }

// NewHardwareApplyError constructs a HardwareApplyError.
func NewHardwareApplyError(channel string, err error) *HardwareApplyError {
	return &HardwareApplyError{Channel: channel, Err: err}
}

// ParamValidationError wraps a range/type mismatch from a control input.
// It must never mutate animation state; the caller surfaces it verbatim.
type ParamValidationError struct {
	Param string
	Err   error
}

func (e *ParamValidationError) Error() string {
	return fmt.Sprintf("parameter %q validation error: %v", e.Param, e.Err)
}

func (e *ParamValidationError) Unwrap() error { return e.Err }

// NewParamValidationError constructs a ParamValidationError.
func NewParamValidationError(param string, err error) *ParamValidationError {
	return &ParamValidationError{Param: param, Err: err}
}

// TaskFailureError wraps a tracked task's panic or returned error, as
// recorded by tasks.Registry. The task's slot is released; no automatic
// restart is attempted.
type TaskFailureError struct {
	TaskID      int64
	Description string
	Err         error
}

func (e *TaskFailureError) Error() string {
	return fmt.Sprintf("task %d (%s) failed: %v", e.TaskID, e.Description, e.Err)
}

func (e *TaskFailureError) Unwrap() error { return e.Err }

// NewTaskFailureError constructs a TaskFailureError.
func NewTaskFailureError(taskID int64, description string, err error) *TaskFailureError {
	return &TaskFailureError{TaskID: taskID, Description: description, Err: err}
}

// TimeoutError wraps a shutdown-handler or animation-cancellation budget
// overrun. Logged as a warning; execution continues past it.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(operation string, err error) *TimeoutError {
	return &TimeoutError{Operation: operation, Err: err}
}
