// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formsubmit

import (
	"context"
	"encoding/json"
)

// Completion is the action taken after a successful submit.
type Completion struct {
	redirect func(payload json.RawMessage) string
	reset    []string
	callback func(ctx context.Context, payload json.RawMessage) error
}

// Redirect navigates to url.
func Redirect(url string) Completion {
	return Completion{redirect: func(json.RawMessage) string { return url }}
}

// RedirectFunc navigates to a URL computed from the response payload.
func RedirectFunc(fn func(payload json.RawMessage) string) Completion {
	return Completion{redirect: fn}
}

// ResetFields empties the named fields.
func ResetFields(names ...string) Completion {
	return Completion{reset: names}
}

// Callback hands the decoded payload to fn. An error from fn is shown in the
// error slot.
func Callback(fn func(ctx context.Context, payload json.RawMessage) error) Completion {
	return Completion{callback: fn}
}

// Then combines two completions: fields are reset first, then the callback
// runs, then the redirect is reported.
func (c Completion) Then(next Completion) Completion {
	out := c
	out.reset = append(append([]string(nil), c.reset...), next.reset...)
	if next.redirect != nil {
		out.redirect = next.redirect
	}
	if next.callback != nil {
		if prev := c.callback; prev != nil {
			out.callback = func(ctx context.Context, p json.RawMessage) error {
				if err := prev(ctx, p); err != nil {
					return err
				}
				return next.callback(ctx, p)
			}
		} else {
			out.callback = next.callback
		}
	}
	return out
}
