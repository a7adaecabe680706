// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/render"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashSuccess)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logger *slog.Logger, logMsg string, args ...any) {
	logger.Error(logMsg, args...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// renderError renders the error page with a translated title and message.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, titleKey, messageKey string) {
	h.render(w, r, status, "error", render.TemplateData{
		Title: titleKey,
		Data:  i18n.Tc(r.Context(), messageKey),
	})
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "title.not_found", "error.page_not_found")
}

// parseFormOr400 parses the request form and answers 400 on failure.
func (h *Handler) parseFormOr400(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("invalid form data", "path", r.URL.Path, "error", err)
		h.renderError(w, r, http.StatusBadRequest, "title.error", "error.forbidden")
		return false
	}
	return true
}

// formValues collects the named form fields of r.
func formValues(r *http.Request, names ...string) formsubmit.Values {
	values := make(formsubmit.Values, len(names))
	for _, name := range names {
		values[name] = r.PostFormValue(name)
	}
	return values
}
