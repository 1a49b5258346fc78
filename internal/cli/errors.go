// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - error types, display and exit codes for CLI commands.
//
// Handlers always return errors; Run displays them once and maps them to an
// exit code.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/jcluts/personachat/internal/config"
	"github.com/jcluts/personachat/internal/llm"
	"github.com/jcluts/personachat/internal/prompt"
	"github.com/jcluts/personachat/internal/speech"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration or template error
	ExitConfigError = 3
	// ExitAuthError indicates the provider rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the provider could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "init", "chat")
	Action  string // Action being performed (e.g., "write", "read input")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid command-line usage.
type ValidationError struct {
	Field   string // Flag or argument that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid usage (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// DISPLAY AND EXIT CODES
// =============================================================================

// DisplayError writes err to w in the standard format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[Error]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "%s\n", DimStyle.Render(hint))
	}
}

// DisplayWarning writes a non-fatal problem to w.
func DisplayWarning(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", WarningStyle.Render("[Warning]"), err)
}

func errorHint(err error) string {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) && errors.Is(err, fs.ErrNotExist) {
		return "Run 'personachat init' to create a sample configuration."
	}
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) && llmErr.IsAuth() {
		return "Check the llm_api_key entry in api_keys or set " + config.EnvKeyPrefix + "<NAME>."
	}
	return ""
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var cfgErr *config.ConfigError
	var tmplErr *prompt.TemplateError
	if errors.As(err, &cfgErr) || errors.As(err, &tmplErr) {
		return ExitConfigError
	}

	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) && llmErr.IsAuth() {
		return ExitAuthError
	}
	var ttsErr *speech.TTSError
	if errors.As(err, &ttsErr) && ttsErr.IsAuth() {
		return ExitAuthError
	}

	var llmTransport *llm.TransportError
	var ttsTransport *speech.TransportError
	if errors.As(err, &llmTransport) || errors.As(err, &ttsTransport) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
