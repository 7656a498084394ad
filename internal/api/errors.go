// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the server's own explanation, taken from an "error" or
	// "message" JSON field when present.
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	se := &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.Str != "" {
				se.Message = v.Str
				break
			}
		}
	}
	return se
}

// ServerMessage returns the backend's message carried by err, or fallback.
// Commands use it the way the pages used `err.response?.data?.error || "..."`.
func ServerMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
