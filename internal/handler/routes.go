// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogconsole/internal/console"
)

// Routes mounts the console pages on r. throttle wraps the sign-in and
// registration posts.
func (h *Handler) Routes(r chi.Router, throttle ...func(http.Handler) http.Handler) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/manage/"+console.ResourceBlogs, http.StatusFound)
	})

	r.Route("/manage", func(r chi.Router) {
		r.Get("/blogs/create", h.NewBlog)
		r.Post("/blogs/create", h.SaveBlog)
		r.Get("/blogs/edit", h.EditBlog)
		r.Post("/blogs/edit", h.SaveBlog)

		r.Get("/{resource}", h.List)
		r.Post("/{resource}", h.Create)
		r.Post("/{resource}/prev", h.Previous)
		r.Post("/{resource}/next", h.Next)
		r.Get("/{resource}/{id}/delete", h.ConfirmDelete)
		r.Post("/{resource}/{id}/delete", h.Delete)
	})

	r.Get("/blog/{id}", h.ShowBlog)
	r.Post("/blog/{id}/comments", h.PostComment)

	r.Get("/signin", h.SigninForm)
	r.Get("/register", h.RegisterForm)
	r.Get("/register/verifyimage", h.VerifyImage)
	r.Group(func(r chi.Router) {
		r.Use(throttle...)
		r.Post("/signin", h.Signin)
		r.Post("/register", h.Register)
	})

	r.Get("/auth/github", h.GitHubSignin)
	r.Post("/auth/weibo", h.WeiboSignin)
	r.Get("/signout", h.Signout)

	r.NotFound(h.NotFound)
}

// Create handles POST /manage/{resource} for the pages with a create form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "resource") {
	case console.ResourceBlogTypes:
		h.CreateBlogType(w, r)
	case console.ResourceImages:
		h.UploadImage(w, r)
	default:
		h.NotFound(w, r)
	}
}

// Routes mounts the health endpoints on r.
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
}
