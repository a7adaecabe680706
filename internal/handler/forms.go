// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/imaging"
	"github.com/olegiv/blogconsole/internal/render"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the image itself.
const multipartOverhead = 1 << 20

// submitted builds the template data after a form submit: the success flash
// when the submit went through, nothing otherwise since the form's error slot
// carries the failure.
func (h *Handler) submitted(r *http.Request, form *console.Form, err error) render.TemplateData {
	var data render.TemplateData
	switch {
	case err == nil:
		if form.Success != "" {
			data.Flash = i18n.Tc(r.Context(), form.Success)
			data.FlashType = render.FlashSuccess
		}
	case errors.Is(err, formsubmit.ErrBusy):
		h.logger.Debug("form already submitting", "path", r.URL.Path)
		data.Flash = i18n.Tc(r.Context(), "error.busy")
		data.FlashType = render.FlashInfo
	default:
		var vErr *formsubmit.ValidationError
		if !errors.As(err, &vErr) {
			h.logger.Warn("form submit failed", "path", r.URL.Path, "error", err)
		}
	}
	return data
}

// CreateBlogType handles POST /manage/blogtypes. On success the form is
// cleared and the list shows the refreshed page.
func (h *Handler) CreateBlogType(w http.ResponseWriter, r *http.Request) {
	if !h.parseFormOr400(w, r) {
		return
	}
	sess := h.session(r)
	form := sess.BlogTypeForm

	_, err := form.Submit(r.Context(), formValues(r, console.FieldTypeName, console.FieldTypeLevel))
	data := h.submitted(r, form, err)
	if sess.BlogTypes.CurrentIndex() == 0 {
		h.fetch(r, sess.BlogTypes, 1)
	}
	h.renderList(w, r, sess, sess.BlogTypes, data)
}

// UploadImage handles POST /manage/images. The image is oriented, bounded
// and re-encoded before it is posted as a data URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	form := sess.ImageForm
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxBytes()+multipartOverhead)
	var (
		upload *imaging.Upload
		err    error
	)
	if perr := r.ParseMultipartForm(multipartOverhead); perr != nil {
		var maxErr *http.MaxBytesError
		if errors.As(perr, &maxErr) {
			form.ShowError(i18n.Tc(ctx, "validation.image_too_large"))
		} else {
			form.ShowError(i18n.Tc(ctx, "validation.image_required"))
		}
		err = perr
	} else if file, header, ferr := r.FormFile(console.FieldImageData); ferr != nil {
		// An empty submit fails validation without reaching the API.
		_, err = form.Submit(ctx, formsubmit.Values{})
	} else {
		upload, err = h.images.Prepare(file, header.Filename)
		_ = file.Close()
		switch {
		case errors.Is(err, imaging.ErrTooLarge):
			form.ShowError(i18n.Tc(ctx, "validation.image_too_large"))
		case err != nil:
			form.ShowError(i18n.Tc(ctx, "validation.image_invalid"))
		default:
			_, err = form.Submit(ctx, formsubmit.Values{
				console.FieldImageName: upload.Name,
				console.FieldImageData: upload.DataURL,
			})
		}
	}
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}

	data := h.submitted(r, form, err)
	var preview template.URL
	if err == nil && upload != nil {
		preview = render.DataURLAttr(upload.Thumbnail)
		h.logger.Info("image uploaded", "name", upload.Name, "size", upload.Size,
			"width", upload.Width, "height", upload.Height)
	}
	if sess.Images.CurrentIndex() == 0 {
		h.fetch(r, sess.Images, 1)
	}
	h.renderList(w, r, sess, sess.Images, data, preview)
}
