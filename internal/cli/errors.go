// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all CLI commands.
//
// Commands always return errors; main decides how to display them and
// which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"os"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration error
	ExitConfigError = 3
	// ExitNetworkError indicates a network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with an exit code.
type CommandError struct {
	Command  string
	Message  string
	ExitCode int
	Cause    error
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewUsageError creates an error for invalid command usage.
func NewUsageError(command, message string) *CommandError {
	return &CommandError{Command: command, Message: message, ExitCode: ExitUsageError}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(command, resource string) *CommandError {
	return &CommandError{
		Command:  command,
		Message:  resource + " not found",
		ExitCode: ExitNotFoundError,
	}
}

// WrapError wraps an underlying error with command context.
func WrapError(command, message string, cause error, exitCode int) *CommandError {
	return &CommandError{Command: command, Message: message, ExitCode: exitCode, Cause: cause}
}

// ExitCodeFor returns the exit code for an error: the CommandError's code
// when it carries one, ExitGeneralError otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode != 0 {
		return cmdErr.ExitCode
	}
	return ExitGeneralError
}

// ReportError prints an error to stderr in a consistent format.
func ReportError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
}
