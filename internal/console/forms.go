// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/formsubmit"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/uikit"
)

// Form binds a formsubmit.Helper to its page.
type Form struct {
	*formsubmit.Helper

	// Title is the message key of the page title.
	Title string

	// Success is the message key shown after a successful submit, "" for none.
	Success string
}

// Blog editor field names.
const (
	FieldTitle      = "title"
	FieldCoverImage = "cover_image"
	FieldSummary    = "summary"
	FieldContent    = "content"
	FieldType       = "type"
)

// HashPassword returns the credential the blog API expects: the hex SHA-1 of
// "email:password" with the email trimmed and lower-cased.
func HashPassword(email, password string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(email)) + ":" + password))
	return hex.EncodeToString(sum[:])
}

func hashedPassword(emailField string) func(string, formsubmit.Values) any {
	return func(password string, all formsubmit.Values) any {
		return HashPassword(all[emailField], password)
	}
}

func lower(value string, _ formsubmit.Values) any {
	return strings.ToLower(value)
}

// newEditorForm builds the blog editor. An empty id creates a blog; otherwise
// the blog with that id is updated.
func newEditorForm(api API, id string, logger *slog.Logger) *Form {
	endpoint := apiclient.PathBlogs
	title := "title.blog_create"
	var completion formsubmit.Completion
	if id == "" {
		completion = formsubmit.ResetFields(FieldTitle, FieldCoverImage, FieldSummary, FieldContent)
	} else {
		endpoint = apiclient.Item(apiclient.PathBlogs, id)
		title = "title.blog_edit"
	}

	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldTitle, Key: "name", Validate: formsubmit.Required, Message: "validation.title_required"},
				{Name: FieldCoverImage, Validate: formsubmit.Required, Message: "validation.cover_required"},
				{Name: FieldSummary, Validate: formsubmit.Required, Message: "validation.summary_required"},
				{Name: FieldContent, Validate: formsubmit.Required, Message: "validation.content_required"},
				{Name: FieldType, Validate: formsubmit.Required, Message: "validation.type_required"},
			},
			Endpoint:   func() string { return endpoint },
			Completion: completion,
			Logger:     logger,
		}, api, nil),
		Title:   title,
		Success: "msg.blog_saved",
	}
}

// LoadInto fills an edit form with the stored blog. A failure is shown in the
// form's error slot.
func LoadInto(ctx context.Context, api API, form *Form, id string) (Blog, error) {
	blog, err := LoadBlog(ctx, api, id)
	if err != nil {
		form.ShowError(apiclient.Message(ctx, err))
		return blog, err
	}
	form.SetFields(formsubmit.Values{
		FieldTitle:      blog.Name,
		FieldCoverImage: blog.CoverImage,
		FieldSummary:    blog.Summary,
		FieldContent:    blog.Content,
		FieldType:       blog.Type,
	})
	return blog, nil
}

// LoadBlog fetches one blog.
func LoadBlog(ctx context.Context, api API, id string) (Blog, error) {
	var blog Blog
	payload, err := api.Get(ctx, apiclient.Item(apiclient.PathBlogs, id))
	if err != nil {
		return blog, err
	}
	if err := json.Unmarshal(payload, &blog); err != nil {
		return blog, &apiclient.TransportError{StatusCode: 200, Err: err}
	}
	return blog, nil
}

// maxCommentPages bounds how far LoadComments walks the comment list.
const maxCommentPages = 10

// LoadComments returns the comments on blogID, newest first. The API lists
// comments across all posts, so pages are walked until the last one or
// maxCommentPages.
func LoadComments(ctx context.Context, api API, blogID string) ([]Comment, error) {
	var comments []Comment
	for index := 1; index <= maxCommentPages; index++ {
		payload, err := api.Get(ctx, apiclient.PageOf(apiclient.PathComments, index))
		if err != nil {
			return comments, err
		}
		var resp struct {
			Comments []Comment      `json:"comments"`
			Page     uikit.PageInfo `json:"page"`
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			return comments, &apiclient.TransportError{StatusCode: 200, Err: err}
		}
		for _, c := range resp.Comments {
			if c.BlogID == blogID {
				comments = append(comments, c)
			}
		}
		if !resp.Page.HasNext {
			break
		}
	}
	return comments, nil
}

// Comment form field names.
const (
	FieldComment    = "content"
	FieldTargetName = "target_name"
	FieldTargetID   = "target_id"
)

// newCommentForm posts a comment on blogID and then returns to the post page.
// The reply target fields may be empty; the API then addresses the author.
func newCommentForm(api API, blogID string, logger *slog.Logger) *Form {
	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldComment, Validate: formsubmit.Required, Message: "validation.comment_required"},
				{Name: FieldTargetName, Key: "targetName"},
				{Name: FieldTargetID, Key: "targetId"},
			},
			Endpoint:   func() string { return apiclient.BlogComments(blogID) },
			Completion: formsubmit.Redirect("/blog/" + blogID),
			Logger:     logger,
		}, api, nil),
	}
}

// ReplyPrefix is the text a reply to author starts with.
func ReplyPrefix(ctx context.Context, author string) string {
	return i18n.Tc(ctx, "msg.reply_prefix", author)
}

// Account form field names.
const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldPassword2 = "password2"
	FieldVerify    = "verify"
)

// newSigninForm authenticates against the blog API. The caller redirects to
// the page the user came from.
func newSigninForm(api API, logger *slog.Logger) *Form {
	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldEmail, Validate: formsubmit.Email, Message: "validation.email_invalid", Transform: lower},
				{Name: FieldPassword, Validate: formsubmit.Required, Message: "validation.password_required",
					KeepRaw: true, Secret: true, Transform: hashedPassword(FieldEmail)},
			},
			Endpoint: func() string { return apiclient.PathAuthenticate },
			Logger:   logger,
		}, api, nil),
		Title: "title.signin",
	}
}

// newRegisterForm creates an account and goes to the home page.
func newRegisterForm(api API, logger *slog.Logger) *Form {
	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldName, Validate: formsubmit.Required, Message: "validation.name_required"},
				{Name: FieldEmail, Validate: formsubmit.Email, Message: "validation.email_invalid", Transform: lower},
				{Name: FieldPassword, Validate: formsubmit.MinLength(6), Message: "validation.password_short",
					KeepRaw: true, Secret: true, Transform: hashedPassword(FieldEmail)},
				{Name: FieldPassword2, Validate: formsubmit.Matches(FieldPassword), Message: "validation.password_mismatch", Omit: true, Secret: true},
				{Name: FieldVerify, Validate: formsubmit.Required, Message: "validation.verify_required"},
			},
			Endpoint:   func() string { return apiclient.PathUsers },
			Completion: formsubmit.Redirect("/"),
			Logger:     logger,
		}, api, nil),
		Title: "title.register",
	}
}

// Blog type form field names.
const (
	FieldTypeName  = "name"
	FieldTypeLevel = "level"
)

func newBlogTypeForm(api API, done func(ctx context.Context), logger *slog.Logger) *Form {
	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldTypeName, Validate: formsubmit.Required, Message: "validation.type_name_required"},
				{Name: FieldTypeLevel},
			},
			Endpoint: func() string { return apiclient.PathBlogTypes },
			Completion: formsubmit.ResetFields(FieldTypeName, FieldTypeLevel).Then(
				formsubmit.Callback(func(ctx context.Context, _ json.RawMessage) error {
					done(ctx)
					return nil
				})),
			Logger: logger,
		}, api, nil),
		Title:   "title.blogtypes",
		Success: "msg.blogtype_created",
	}
}

// Image upload field names.
const (
	FieldImageName = "name"
	FieldImageData = "image"
)

func newImageForm(api API, done func(ctx context.Context), logger *slog.Logger) *Form {
	return &Form{
		Helper: formsubmit.New(formsubmit.Config{
			Fields: []formsubmit.Field{
				{Name: FieldImageName, Validate: formsubmit.Required, Message: "validation.image_required"},
				{Name: FieldImageData, Validate: formsubmit.Required, Message: "validation.image_required"},
			},
			Endpoint: func() string { return apiclient.PathImages },
			Completion: formsubmit.Callback(func(ctx context.Context, _ json.RawMessage) error {
				done(ctx)
				return nil
			}),
			Logger: logger,
		}, api, nil),
		Title:   "title.images",
		Success: "msg.image_uploaded",
	}
}
