// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/olegiv/blogconsole/internal/i18n"
)

// APIError is an application-level failure: the request reached the blog API
// and came back 2xx, but the payload carries a truthy "error" field.
type APIError struct {
	Code    string // value of the "error" field, e.g. "value:invalid" or "true"
	Data    string // value of the "data" field, usually the offending field name
	Message string // user-facing message, shown verbatim
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "api error: " + e.Code
	}
	return e.Message
}

// TransportError is a transport-level failure: non-2xx status, timeout,
// network error, or a body that is not valid JSON. StatusCode is 0 when no
// response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error (HTTP %d)", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the text to show in a page's error slot for err.
// Application errors are shown verbatim; anything else is reported as a
// network problem with the HTTP status.
func Message(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	status := 0
	var tErr *TransportError
	if errors.As(err, &tErr) {
		status = tErr.StatusCode
	}
	return i18n.Tc(ctx, "error.network", status)
}

// envelope is the part of every response object that signals failure.
type envelope struct {
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseEnvelope validates a successful (2xx) response body. It returns the
// body unchanged when it carries no error flag, an *APIError when it does,
// and a *TransportError when the body is not JSON.
func ParseEnvelope(status int, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, &TransportError{StatusCode: status, Err: errors.New("invalid JSON response")}
	}

	// Only objects can carry an error flag
	if trimmed[0] != '{' {
		return json.RawMessage(trimmed), nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &TransportError{StatusCode: status, Err: fmt.Errorf("decoding envelope: %w", err)}
	}
	if !truthy(env.Error) {
		return json.RawMessage(trimmed), nil
	}

	return nil, &APIError{
		Code:    scalarString(env.Error),
		Data:    scalarString(env.Data),
		Message: scalarString(env.Message),
	}
}

// truthy follows JavaScript truthiness for a JSON value: null, false, 0 and
// "" are false; everything else, including {} and [], is true.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return true
		}
		return s != ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return true
		}
		return f != 0
	}
}

// scalarString renders a JSON scalar as plain text. Strings are unquoted,
// null becomes "", other values keep their JSON form.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
