// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler serves the console pages. Each handler drives one page
// binding of the console session and renders the result.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/imaging"
	"github.com/olegiv/blogconsole/internal/middleware"
	"github.com/olegiv/blogconsole/internal/render"
	"github.com/olegiv/blogconsole/internal/session"
)

// Config holds the dependencies of the console handlers.
type Config struct {
	Service        *console.Service
	SessionManager *scs.SessionManager
	Renderer       *render.Renderer
	Images         *imaging.Processor
	SigninGuard    *middleware.SigninGuard // may be nil
	Logger         *slog.Logger
}

// Handler serves the console pages.
type Handler struct {
	svc      *console.Service
	sm       *scs.SessionManager
	renderer *render.Renderer
	images   *imaging.Processor
	guard    *middleware.SigninGuard
	logger   *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	images := cfg.Images
	if images == nil {
		images = imaging.NewProcessor(imaging.Options{})
	}
	return &Handler{
		svc:      cfg.Service,
		sm:       cfg.SessionManager,
		renderer: cfg.Renderer,
		images:   images,
		guard:    cfg.SigninGuard,
		logger:   logger.With("component", "handler"),
	}
}

// session returns the page bindings of the request's console session.
func (h *Handler) session(r *http.Request) *console.Session {
	return h.svc.Session(session.ConsoleID(r.Context(), h.sm))
}

// render renders a page and falls back to a plain 500 when the template fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data render.TemplateData) {
	data.Resources = console.Resources
	if err := h.renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, h.logger, "failed to render template", "template", name, "error", err)
	}
}
