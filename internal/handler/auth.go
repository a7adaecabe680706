// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/render"
	"github.com/olegiv/blogconsole/internal/session"
)

// SigninPage is the data of the sign-in page.
type SigninPage struct {
	Form      formsubmit.FormState
	Next      string
	GitHubURL string
}

// RegisterPage is the data of the registration page.
type RegisterPage struct {
	Form formsubmit.FormState
}

// SigninForm handles GET /signin. The page returns to ?next= or to the
// referring console page after signing in.
func (h *Handler) SigninForm(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" {
		next = console.RefererPath(r.Referer(), r.Host)
	}
	h.renderSignin(w, r, http.StatusOK, console.SafeRedirect(next), render.TemplateData{})
}

// Signin handles POST /signin.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	ctx := r.Context()
	form := h.session(r).SigninForm
	next := console.SafeRedirect(r.PostFormValue("next"))
	email := strings.ToLower(strings.TrimSpace(r.PostFormValue(console.FieldEmail)))

	if h.guard != nil {
		if locked, wait := h.guard.Locked(email); locked {
			form.SetFields(formsubmit.Values{console.FieldEmail: email})
			form.ShowError(i18n.Tc(ctx, "error.account_locked", wait.Round(time.Second).String()))
			h.logger.Warn("sign-in attempt on locked account", "email", email, "remaining", wait)
			h.renderSignin(w, r, http.StatusTooManyRequests, next, render.TemplateData{})
			return
		}
	}

	res, err := form.Submit(ctx, formValues(r, console.FieldEmail, console.FieldPassword))
	if err != nil {
		var apiErr *apiclient.APIError
		if h.guard != nil && errors.As(err, &apiErr) {
			if locked, wait := h.guard.Failed(email); locked {
				h.logger.Warn("account locked after failed sign-ins", "email", email, "duration", wait)
			}
		}
		h.renderSignin(w, r, http.StatusOK, next, h.submitted(r, form, err))
		return
	}

	if h.guard != nil {
		h.guard.Succeeded(email)
	}
	if err := h.signedIn(r, payloadName(res.Payload, email)); err != nil {
		logAndInternalError(w, h.logger, "failed to renew session token", "error", err)
		return
	}
	h.logger.Info("user signed in", "email", email)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) renderSignin(w http.ResponseWriter, r *http.Request, status int, next string, data render.TemplateData) {
	form := h.session(r).SigninForm
	page := SigninPage{Next: next, Form: form.State()}
	form.ClearError()
	if u, ok := h.svc.GitHubURL(next); ok {
		page.GitHubURL = u
	}
	data.Title = form.Title
	data.Data = page
	h.render(w, r, status, "signin", data)
}

// RegisterForm handles GET /register.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, render.TemplateData{})
}

// Register handles POST /register and signs the new user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	form := h.session(r).RegisterForm
	values := formValues(r, console.FieldName, console.FieldEmail,
		console.FieldPassword, console.FieldPassword2, console.FieldVerify)

	res, err := form.Submit(r.Context(), values)
	if err != nil {
		h.renderRegister(w, r, h.submitted(r, form, err))
		return
	}
	if err := h.signedIn(r, payloadName(res.Payload, values[console.FieldName])); err != nil {
		logAndInternalError(w, h.logger, "failed to renew session token", "error", err)
		return
	}
	h.logger.Info("user registered", "email", strings.ToLower(strings.TrimSpace(values[console.FieldEmail])))
	http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, data render.TemplateData) {
	form := h.session(r).RegisterForm
	page := RegisterPage{Form: form.State()}
	form.ClearError()
	data.Title = form.Title
	data.Data = page
	h.render(w, r, http.StatusOK, "register", data)
}

// VerifyImage handles GET /register/verifyimage. The captcha is fetched with
// the session's jar so the API can tie the code to it.
func (h *Handler) VerifyImage(w http.ResponseWriter, r *http.Request) {
	dataURL, err := h.svc.VerifyImage(r.Context())
	if err != nil {
		h.logger.Warn("fetching verify image failed", "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	mimeType, data, err := decodeDataURL(dataURL)
	if err != nil {
		h.logger.Warn("decoding verify image failed", "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// GitHubSignin handles GET /auth/github by sending the browser to the GitHub
// authorization page.
func (h *Handler) GitHubSignin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" {
		next = console.RefererPath(r.Referer(), r.Host)
	}
	target, ok := h.svc.GitHubURL(next)
	if !ok {
		h.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// WeiboSignin handles POST /auth/weibo, posted by the Weibo widget with the
// user's uid and access token.
func (h *Handler) WeiboSignin(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	uid := r.PostFormValue("uid")
	if err := h.svc.WeiboLogin(r.Context(), uid, r.PostFormValue("access_token")); err != nil {
		h.logger.Warn("weibo sign-in failed", "uid", uid, "error", err)
	} else {
		h.logger.Info("user signed in with weibo", "uid", uid)
	}
	target := console.RefererPath(r.Referer(), r.Host)
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Signout handles GET /signout.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if jar := apiclient.JarFromContext(ctx); jar != nil {
		jar.Clear()
	}
	if err := session.SignOut(ctx, h.sm); err != nil {
		logAndInternalError(w, h.logger, "failed to sign out", "error", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// signedIn records the signed-in user under a fresh session token.
func (h *Handler) signedIn(r *http.Request, name string) error {
	if err := h.sm.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sm.Put(r.Context(), session.KeyUserName, name)
	return nil
}

// payloadName reads the user name from an account payload.
func payloadName(payload json.RawMessage, fallback string) string {
	var account struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(payload, &account); err != nil || account.Name == "" {
		return fallback
	}
	return account.Name
}

// decodeDataURL splits a base64 image data URL into its MIME type and bytes.
func decodeDataURL(dataURL string) (string, []byte, error) {
	header, encoded, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("not a base64 image data URL")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"), data, nil
}
