// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/render"
)

// Editor routes.
const (
	RouteBlogCreate = "/manage/blogs/create"
	RouteBlogEdit   = "/manage/blogs/edit"
)

// EditorPage is the data of the blog editor.
type EditorPage struct {
	Action      string
	Form        formsubmit.FormState
	Types       []console.BlogType
	TypesError  string
	ShowPreview bool
}

// BlogPage is the data of the blog detail page.
type BlogPage struct {
	Blog      console.Blog
	Comments  []console.Comment
	BlogID    string
	Form      formsubmit.FormState
	LoadError string
}

var editorFields = []string{
	console.FieldTitle,
	console.FieldCoverImage,
	console.FieldSummary,
	console.FieldContent,
	console.FieldType,
}

// NewBlog handles GET /manage/blogs/create.
func (h *Handler) NewBlog(w http.ResponseWriter, r *http.Request) {
	h.renderEditor(w, r, h.session(r).Editor(""), RouteBlogCreate, render.TemplateData{}, false)
}

// EditBlog handles GET /manage/blogs/edit?id=, loading the stored blog into
// the form.
func (h *Handler) EditBlog(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}
	form := h.session(r).Editor(id)
	if _, err := console.LoadInto(r.Context(), h.svc.API(), form, id); err != nil {
		h.logger.Warn("loading blog for edit failed", "id", id, "error", err)
	}
	h.renderEditor(w, r, form, editAction(id), render.TemplateData{}, false)
}

// SaveBlog handles POST /manage/blogs/create and POST /manage/blogs/edit?id=.
// The preview action renders the markdown without saving.
func (h *Handler) SaveBlog(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	id := r.URL.Query().Get("id")
	action := RouteBlogCreate
	if r.URL.Path == RouteBlogEdit {
		if id == "" {
			h.NotFound(w, r)
			return
		}
		action = editAction(id)
	} else {
		id = ""
	}

	form := h.session(r).Editor(id)
	values := formValues(r, editorFields...)

	if r.PostFormValue("action") == "preview" {
		form.SetFields(values)
		h.renderEditor(w, r, form, action, render.TemplateData{}, true)
		return
	}

	_, err := form.Submit(r.Context(), values)
	if err == nil {
		h.logger.Info("blog saved", "id", id, "title", values[console.FieldTitle])
		flashSuccess(w, r, h.renderer, action, h.submitted(r, form, nil).Flash)
		return
	}
	h.renderEditor(w, r, form, action, h.submitted(r, form, err), false)
}

func editAction(id string) string {
	return RouteBlogEdit + "?id=" + url.QueryEscape(id)
}

func (h *Handler) renderEditor(w http.ResponseWriter, r *http.Request, form *console.Form, action string, data render.TemplateData, preview bool) {
	page := EditorPage{Action: action, ShowPreview: preview}
	types, err := h.svc.TypeOptions(r.Context())
	if err != nil {
		h.logger.Warn("loading blog types failed", "error", err)
		page.TypesError = apiclient.Message(r.Context(), err)
	}
	page.Types = types
	page.Form = form.State()
	form.ClearError()

	data.Title = form.Title
	data.Data = page
	h.render(w, r, http.StatusOK, "editor", data)
}

// ShowBlog handles GET /blog/{id}. ?reply=name&rid=id pre-fills the comment
// box with a reply to that user.
func (h *Handler) ShowBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form := h.session(r).CommentForm(id)

	if reply := r.URL.Query().Get("reply"); reply != "" {
		form.SetFields(formsubmit.Values{
			console.FieldComment:    console.ReplyPrefix(r.Context(), reply),
			console.FieldTargetName: reply,
			console.FieldTargetID:   r.URL.Query().Get("rid"),
		})
	}
	h.renderBlog(w, r, id, form, render.TemplateData{})
}

// PostComment handles POST /blog/{id}/comments and returns to the post.
func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	form := h.session(r).CommentForm(id)

	res, err := form.Submit(r.Context(), formValues(r,
		console.FieldComment, console.FieldTargetName, console.FieldTargetID))
	if err == nil {
		form.SetFields(formsubmit.Values{console.FieldTargetName: "", console.FieldTargetID: "", console.FieldComment: ""})
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}
	h.renderBlog(w, r, id, form, h.submitted(r, form, err))
}

func (h *Handler) renderBlog(w http.ResponseWriter, r *http.Request, id string, form *console.Form, data render.TemplateData) {
	page := BlogPage{BlogID: id}
	blog, err := console.LoadBlog(r.Context(), h.svc.API(), id)
	if err != nil {
		h.logger.Warn("loading blog failed", "id", id, "error", err)
		page.LoadError = apiclient.Message(r.Context(), err)
	} else {
		page.Blog = blog
		comments, err := console.LoadComments(r.Context(), h.svc.API(), id)
		if err != nil {
			h.logger.Warn("loading comments failed", "id", id, "error", err)
		}
		page.Comments = comments
	}
	page.Form = form.State()
	form.ClearError()

	data.Title = "title.blogs"
	data.Data = page
	h.render(w, r, http.StatusOK, "blog", data)
}
