// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/conversation"
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
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing session or a rejected token
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitForbiddenError indicates the user lacks the role
	ExitForbiddenError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitLimitError indicates the monthly allowance is used up
	ExitLimitError = 9
)

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New(`not logged in; run "evo login" first`)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError is a bad flag or argument value.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf(" (example: %s)", e.Example)
	}
	return msg
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a ValidationError with a usage hint.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// DISPLAY
// =============================================================================

// userMessage turns backend errors into the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrForbidden):
		return "Access denied: your role does not allow this."
	case errors.Is(err, api.ErrUnauthorized):
		return `Your session is no longer valid. Run "evo login" again.`
	case errors.Is(err, api.ErrUsageLimit), errors.Is(err, conversation.ErrLimitReached):
		return "You've reached your monthly message limit. Contact your admin for more."
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Invalid email or password."
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// DisplayError writes err in a consistent format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), userMessage(err))
}

// DisplayErrorJSON writes err as a failed JSON response.
func DisplayErrorJSON(w io.Writer, command string, err error) {
	resp := NewJSONErrorResponseStr(command, userMessage(err))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(resp)
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var cfgErr config.ValidateErrors
	var apiErr *api.APIError
	switch {
	case errors.As(err, &validationErr):
		return ExitUsageError
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, api.ErrInvalidCredentials):
		return ExitAuthError
	case errors.Is(err, api.ErrForbidden):
		return ExitForbiddenError
	case errors.Is(err, api.ErrNotFound), errors.Is(err, conversation.ErrUnknownConversation):
		return ExitNotFoundError
	case errors.Is(err, api.ErrUsageLimit), errors.Is(err, conversation.ErrLimitReached):
		return ExitLimitError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &apiErr):
		return ExitGeneralError
	}

	// Cobra reports flag and argument mistakes as plain errors.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unknown flag"), strings.Contains(msg, "unknown command"),
		strings.Contains(msg, "accepts "), strings.Contains(msg, "requires at least"),
		strings.Contains(msg, "invalid argument"):
		return ExitUsageError
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial"):
		return ExitNetworkError
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timed out"):
		return ExitTimeoutError
	}
	return ExitGeneralError
}
