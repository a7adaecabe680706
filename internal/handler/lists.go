// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/listctl"
	"github.com/olegiv/blogconsole/internal/render"
	"github.com/olegiv/blogconsole/internal/uikit"
)

// ListPage is the data of the list and image grid pages.
type ListPage struct {
	List    console.ListView
	Form    formsubmit.FormState // create/upload form of the page, if any
	Preview template.URL         // thumbnail of the last upload
}

// ConfirmPage is the data of the delete confirmation page.
type ConfirmPage struct {
	Prompt string
	Action string
	Cancel string
	Page   int
}

// listBinding resolves the {resource} URL parameter or renders 404.
func (h *Handler) listBinding(w http.ResponseWriter, r *http.Request) (*console.Session, console.ListBinding, bool) {
	sess := h.session(r)
	binding, ok := sess.List(chi.URLParam(r, "resource"))
	if !ok {
		h.NotFound(w, r)
		return nil, nil, false
	}
	return sess, binding, true
}

// List handles GET /manage/{resource}?page=n.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, binding, ok := h.listBinding(w, r)
	if !ok {
		return
	}
	h.fetch(r, binding, uikit.ParsePageParam(r))
	h.renderList(w, r, sess, binding, render.TemplateData{})
}

// Previous handles POST /manage/{resource}/prev.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, console.ListBinding.Previous)
}

// Next handles POST /manage/{resource}/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, console.ListBinding.Next)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, move func(console.ListBinding, context.Context) error) {
	sess, binding, ok := h.listBinding(w, r)
	if !ok {
		return
	}
	if binding.CurrentIndex() == 0 {
		// Nothing loaded in this session yet; show the first page.
		h.fetch(r, binding, 1)
	} else if err := move(binding, r.Context()); err != nil && !errors.Is(err, listctl.ErrStale) {
		h.logger.Debug("page step failed", "resource", chi.URLParam(r, "resource"), "error", err)
	}
	h.renderList(w, r, sess, binding, render.TemplateData{})
}

// ConfirmDelete handles GET /manage/{resource}/{id}/delete?page=n and asks
// for confirmation with the item's label.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	sess, binding, ok := h.listBinding(w, r)
	if !ok {
		return
	}
	if !binding.CanDelete() {
		h.NotFound(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	page := uikit.ParsePageParam(r)
	view := binding.View()
	if binding.CurrentIndex() != page {
		if err := h.fetch(r, binding, page); err != nil {
			h.renderList(w, r, sess, binding, render.TemplateData{})
			return
		}
	}

	prompt, err := binding.DeletePrompt(r.Context(), id)
	if err != nil {
		h.renderList(w, r, sess, binding, deleteFailure(r, err))
		return
	}

	h.render(w, r, http.StatusOK, "confirm", render.TemplateData{
		Title: "title.confirm",
		Data: ConfirmPage{
			Prompt: prompt,
			Action: fmt.Sprintf("%s/%s/delete", view.Base, id),
			Cancel: fmt.Sprintf("%s?page=%d", view.Base, page),
			Page:   page,
		},
	})
}

// Delete handles POST /manage/{resource}/{id}/delete, the confirmed delete.
// The list shows the re-fetched page afterwards.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	sess, binding, ok := h.listBinding(w, r)
	if !ok {
		return
	}
	if !binding.CanDelete() {
		h.NotFound(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	page, err := strconv.Atoi(r.PostFormValue("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if binding.CurrentIndex() != page {
		if err := h.fetch(r, binding, page); err != nil {
			h.renderList(w, r, sess, binding, render.TemplateData{})
			return
		}
	}

	data := h.deleted(r, chi.URLParam(r, "resource"), id, binding.DeleteItem(r.Context(), id, listctl.Confirmed))
	h.renderList(w, r, sess, binding, data)
}

// deleted handles the outcome of a confirmed delete. ErrStale means the item
// was deleted and a newer fetch replaced the refreshed page.
func (h *Handler) deleted(r *http.Request, resource, id string, err error) render.TemplateData {
	switch {
	case err == nil, errors.Is(err, listctl.ErrStale):
		if resource == console.ResourceBlogTypes {
			h.svc.InvalidateTypeOptions(r.Context())
		}
	case errors.Is(err, listctl.ErrUnknownItem), errors.Is(err, listctl.ErrNoDelete):
		return deleteFailure(r, err)
	default:
		// The controller put the message in the list's error slot.
		h.logger.Warn("delete failed", "resource", resource, "id", id, "error", err)
	}
	return render.TemplateData{}
}

func deleteFailure(r *http.Request, err error) render.TemplateData {
	msg := i18n.Tc(r.Context(), "error.not_found")
	if errors.Is(err, listctl.ErrNoDelete) {
		msg = i18n.Tc(r.Context(), "error.forbidden")
	}
	return render.TemplateData{Flash: msg, FlashType: render.FlashError}
}

// fetch loads page index; failures are already in the list's error slot.
func (h *Handler) fetch(r *http.Request, binding console.ListBinding, index int) error {
	err := binding.FetchPage(r.Context(), index)
	if err != nil && !errors.Is(err, listctl.ErrStale) {
		h.logger.Debug("page fetch failed", "path", r.URL.Path, "index", index, "error", err)
	}
	return err
}

// renderList renders the list page of binding with its embedded form. The
// error slots are cleared once shown.
func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, sess *console.Session, binding console.ListBinding, data render.TemplateData, preview ...template.URL) {
	view := binding.View()
	binding.ClearError()

	page := ListPage{List: view}
	if len(preview) > 0 {
		page.Preview = preview[0]
	}

	name := "list"
	var form *console.Form
	switch view.Resource {
	case console.ResourceBlogTypes:
		form = sess.BlogTypeForm
	case console.ResourceImages:
		form = sess.ImageForm
		name = "images"
	}
	if form != nil {
		page.Form = form.State()
		form.ClearError()
	}

	data.Title = view.Title
	data.Data = page
	h.render(w, r, http.StatusOK, name, data)
}
