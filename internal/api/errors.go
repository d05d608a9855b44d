// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error variables for the status codes the client treats specially.
var (
	// ErrUnauthorized indicates the token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks the role for the operation.
	ErrForbidden = errors.New("access denied")

	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsageLimit indicates the monthly message allowance is used up.
	ErrUsageLimit = errors.New("usage limit reached")
)

// maxErrorMessage bounds how much of a raw error body is shown to the user.
const maxErrorMessage = 200

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string

	kind error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Unwrap returns the sentinel for the status class, if any.
func (e *APIError) Unwrap() error {
	return e.kind
}

// newStatusError builds the error for a failed response.
func newStatusError(status int, body []byte) *APIError {
	e := &APIError{
		Status:  status,
		Message: errorMessage(body),
	}
	switch status {
	case http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case http.StatusForbidden:
		e.kind = ErrForbidden
	case http.StatusNotFound:
		e.kind = ErrNotFound
	case http.StatusTooManyRequests:
		e.kind = ErrUsageLimit
	}
	return e
}

// errorMessage extracts a readable message from an error body. The backend
// usually answers {"message": "..."}; some paths use {"error": "..."}.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error.message", "error", "detail"} {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
		return ""
	}
	msg := strings.TrimSpace(string(body))
	if strings.HasPrefix(msg, "<") {
		// HTML error pages from proxies carry nothing useful.
		return ""
	}
	if runes := []rune(msg); len(runes) > maxErrorMessage {
		msg = string(runes[:maxErrorMessage]) + "..."
	}
	return msg
}

// UserMessage returns the text to show for err, falling back to fallback
// when the backend supplied nothing readable.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
