// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package formsubmit validates a fixed, ordered set of form fields and runs
// one submit-then-handle-response cycle against the blog API.
package formsubmit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/i18n"
)

// ErrBusy is returned by Submit while a previous submit is in flight.
var ErrBusy = errors.New("formsubmit: submit already in progress")

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}

// Values holds raw or trimmed form values keyed by field name.
type Values map[string]string

// Field declares one form field. Fields are validated in declaration order.
type Field struct {
	// Name is the form input name.
	Name string

	// Key is the JSON key in the request body; defaults to Name.
	Key string

	// Validate checks the trimmed value; all holds every trimmed value for
	// cross-field checks. Nil accepts anything.
	Validate func(value string, all Values) bool

	// Message is shown when Validate fails. It is looked up as a message key
	// and shown as is when no translation exists.
	Message string

	// Transform maps the value written to the request body.
	Transform func(value string, all Values) any

	// Omit validates the field without sending it.
	Omit bool

	// KeepRaw sends the untrimmed value.
	KeepRaw bool

	// Secret keeps the value out of FormState, e.g. for passwords.
	Secret bool
}

func (f Field) key() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Name
}

// Poster issues requests against the blog API. *apiclient.Client satisfies it.
type Poster interface {
	Do(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// View receives form state changes. Methods are called with the helper lock
// held and must not call back into the helper.
type View interface {
	SetBusy(busy bool)
	ShowError(message string)
	ClearError()
	ResetFields(names []string)
}

// Config parameterizes a Helper.
type Config struct {
	Fields     []Field
	Endpoint   func() string
	Method     string // default POST
	Completion Completion
	Logger     *slog.Logger
}

// FormState is the observable state of a form.
type FormState struct {
	Fields    Values
	Busy      bool
	ErrorText string
}

// Result describes what the caller should do after a successful submit.
type Result struct {
	// Redirect is the URL to navigate to, if any.
	Redirect string

	// Payload is the decoded success response.
	Payload json.RawMessage
}

// Helper runs submit cycles for one form.
type Helper struct {
	cfg    Config
	api    Poster
	view   View
	logger *slog.Logger

	mu    sync.Mutex
	state FormState
}

// New creates a Helper. view may be nil.
func New(cfg Config, api Poster, view View) *Helper {
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if view == nil {
		view = nopView{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Helper{
		cfg:    cfg,
		api:    api,
		view:   view,
		logger: logger.With("component", "formsubmit"),
		state:  FormState{Fields: Values{}},
	}
}

// Submit validates values and, when every field passes, sends one request.
// Validation stops at the first failing field and returns a *ValidationError
// without touching the network. While a submit is in flight, Submit returns
// ErrBusy.
func (h *Helper) Submit(ctx context.Context, values Values) (Result, error) {
	h.mu.Lock()
	if h.state.Busy {
		h.mu.Unlock()
		return Result{}, ErrBusy
	}

	trimmed := make(Values, len(h.cfg.Fields))
	shown := make(Values, len(h.cfg.Fields))
	for _, f := range h.cfg.Fields {
		trimmed[f.Name] = strings.TrimSpace(values[f.Name])
		if !f.Secret {
			shown[f.Name] = trimmed[f.Name]
		}
	}
	h.state.Fields = shown

	for _, f := range h.cfg.Fields {
		if f.Validate != nil && !f.Validate(trimmed[f.Name], trimmed) {
			msg := i18n.Tc(ctx, f.Message)
			h.state.ErrorText = msg
			h.view.ShowError(msg)
			h.mu.Unlock()
			return Result{}, &ValidationError{Field: f.Name, Message: msg}
		}
	}

	body := make(map[string]any, len(h.cfg.Fields))
	for _, f := range h.cfg.Fields {
		if f.Omit {
			continue
		}
		value := trimmed[f.Name]
		if f.KeepRaw {
			value = values[f.Name]
		}
		if f.Transform != nil {
			body[f.key()] = f.Transform(value, trimmed)
		} else {
			body[f.key()] = value
		}
	}

	h.state.ErrorText = ""
	h.state.Busy = true
	h.view.ClearError()
	h.view.SetBusy(true)
	h.mu.Unlock()

	endpoint := h.cfg.Endpoint()
	payload, err := h.send(ctx, endpoint, body)
	defer h.mu.Unlock()

	if err != nil {
		h.logger.Warn("form submit failed", "endpoint", endpoint, "error", err)
		h.fail(apiclient.Message(ctx, err))
		return Result{}, err
	}

	res := Result{Payload: payload}
	c := h.cfg.Completion
	if len(c.reset) > 0 {
		for _, name := range c.reset {
			h.state.Fields[name] = ""
		}
		h.view.ResetFields(c.reset)
	}
	if c.redirect != nil {
		res.Redirect = c.redirect(payload)
	}
	if c.callback != nil {
		if err := c.callback(ctx, payload); err != nil {
			h.logger.Warn("form completion failed", "endpoint", endpoint, "error", err)
			h.fail(apiclient.Message(ctx, err))
			return res, err
		}
	}
	return res, nil
}

// send posts body and returns with h.mu held and busy cleared. A panicking
// Poster still clears busy before the panic propagates.
func (h *Helper) send(ctx context.Context, endpoint string, body map[string]any) (json.RawMessage, error) {
	defer func() {
		h.mu.Lock()
		h.state.Busy = false
		h.view.SetBusy(false)
		if r := recover(); r != nil {
			h.mu.Unlock()
			panic(r)
		}
	}()
	return h.api.Do(ctx, h.cfg.Method, endpoint, body)
}

// must be called with h.mu held.
func (h *Helper) fail(msg string) {
	h.state.ErrorText = msg
	h.view.ShowError(msg)
}

// State returns a copy of the form state.
func (h *Helper) State() FormState {
	h.mu.Lock()
	defer h.mu.Unlock()
	fields := make(Values, len(h.state.Fields))
	for k, v := range h.state.Fields {
		fields[k] = v
	}
	return FormState{Fields: fields, Busy: h.state.Busy, ErrorText: h.state.ErrorText}
}

// SetFields replaces the displayed values, e.g. when an edit form is loaded
// or a reply prefix is inserted.
func (h *Helper) SetFields(values Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, v := range values {
		h.state.Fields[k] = v
	}
}

// ShowError puts msg in the error slot, e.g. when loading an edit form fails.
func (h *Helper) ShowError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fail(msg)
}

// ClearError hides the error slot.
func (h *Helper) ClearError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.ErrorText = ""
	h.view.ClearError()
}

type nopView struct{}

func (nopView) SetBusy(bool)         {}
func (nopView) ShowError(string)     {}
func (nopView) ClearError()          {}
func (nopView) ResetFields([]string) {}
