// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"log/slog"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/listctl"
	"github.com/olegiv/blogconsole/internal/uikit"
)

// Resource names, used in console URLs (/manage/{resource}).
const (
	ResourceBlogs     = "blogs"
	ResourceComments  = "comments"
	ResourceBlogTypes = "blogtypes"
	ResourceImages    = "images"
	ResourceUsers     = "users"
)

// Resources lists the managed resources in menu order.
var Resources = []string{ResourceBlogs, ResourceComments, ResourceBlogTypes, ResourceImages, ResourceUsers}

// RowView is one rendered row. Item is nil for padding rows.
type RowView struct {
	Item  any
	Blank bool
}

// ListView is the template-facing projection of a list binding.
type ListView struct {
	Resource  string
	Title     string // message key
	Base      string // console URL of the list
	Loading   bool
	Error     string
	Rows      []RowView
	Strip     []uikit.StripEntry
	Mode      uikit.Mode
	Page      uikit.PageInfo
	CanDelete bool
}

// ListBinding is the type-erased interface the HTTP layer drives.
type ListBinding interface {
	FetchPage(ctx context.Context, index int) error
	JumpTo(ctx context.Context, index int) error
	Previous(ctx context.Context) error
	Next(ctx context.Context) error
	Refresh(ctx context.Context) error
	DeleteItem(ctx context.Context, id string, confirm listctl.Confirmer) error
	DeletePrompt(ctx context.Context, id string) (string, error)
	CanDelete() bool
	CurrentIndex() int
	View() ListView
	// ClearError hides the error slot once it has been rendered.
	ClearError()
}

// List binds a listctl.Controller to an in-memory screen for one resource.
type List[T any] struct {
	*listctl.Controller[T]
	screen   *listctl.Screen[T]
	resource string
	title    string
}

// View implements ListBinding.
func (l *List[T]) View() ListView {
	snap := l.screen.Snapshot()
	rows := make([]RowView, len(snap.Rows))
	for i, r := range snap.Rows {
		if r.Blank {
			rows[i] = RowView{Blank: true}
		} else {
			rows[i] = RowView{Item: r.Item}
		}
	}
	page, _ := l.Current()
	return ListView{
		Resource:  l.resource,
		Title:     l.title,
		Base:      "/manage/" + l.resource,
		Loading:   snap.Loading,
		Error:     snap.Error,
		Rows:      rows,
		Strip:     snap.Strip,
		Mode:      l.Mode(),
		Page:      page.PageInfo,
		CanDelete: l.CanDelete(),
	}
}

// ClearError implements ListBinding.
func (l *List[T]) ClearError() {
	l.screen.ClearError()
}

// Items returns the items of the current page.
func (l *List[T]) Items() []T {
	page, _ := l.Current()
	return page.Items
}

type listSpec[T any] struct {
	resource   string
	title      string
	collection string
	itemsKey   string
	id         func(T) string
	label      func(T) string
	noDelete   bool
	mode       uikit.Mode
}

func newList[T any](spec listSpec[T], api API, pageSize int, logger *slog.Logger) *List[T] {
	cfg := listctl.Config[T]{
		EndpointForPage: func(i int) string { return apiclient.PageOf(spec.collection, i) },
		ItemsKey:        spec.itemsKey,
		ItemID:          spec.id,
		ItemLabel:       spec.label,
		PageSize:        pageSize,
		Mode:            spec.mode,
		Logger:          logger,
	}
	if !spec.noDelete {
		cfg.DeleteEndpoint = func(id string) string { return apiclient.DeleteOf(spec.collection, id) }
	}
	screen := listctl.NewScreen[T]()
	return &List[T]{
		Controller: listctl.New(cfg, api, screen),
		screen:     screen,
		resource:   spec.resource,
		title:      spec.title,
	}
}

func newBlogList(api API, size int, logger *slog.Logger) *List[Blog] {
	return newList(listSpec[Blog]{
		resource:   ResourceBlogs,
		title:      "title.blogs",
		collection: apiclient.PathBlogs,
		itemsKey:   "blogs",
		id:         func(b Blog) string { return b.ID },
		label:      func(b Blog) string { return b.Name },
		mode:       uikit.ModeWindowed,
	}, api, size, logger)
}

func newCommentList(api API, size int, logger *slog.Logger) *List[Comment] {
	return newList(listSpec[Comment]{
		resource:   ResourceComments,
		title:      "title.comments",
		collection: apiclient.PathComments,
		itemsKey:   "comments",
		id:         func(c Comment) string { return c.ID },
		label:      func(c Comment) string { return c.Content },
		mode:       uikit.ModeWindowed,
	}, api, size, logger)
}

func newBlogTypeList(api API, size int, logger *slog.Logger) *List[BlogType] {
	return newList(listSpec[BlogType]{
		resource:   ResourceBlogTypes,
		title:      "title.blogtypes",
		collection: apiclient.PathBlogTypes,
		itemsKey:   "types",
		id:         func(t BlogType) string { return t.ID },
		label:      func(t BlogType) string { return t.Name },
		mode:       uikit.ModeWindowed,
	}, api, size, logger)
}

func newImageList(api API, size int, logger *slog.Logger) *List[Image] {
	return newList(listSpec[Image]{
		resource:   ResourceImages,
		title:      "title.images",
		collection: apiclient.PathImages,
		itemsKey:   "images",
		id:         func(i Image) string { return i.ID },
		label:      func(i Image) string { return i.URL },
		mode:       uikit.ModeCompact,
	}, api, size, logger)
}

func newUserList(api API, size int, logger *slog.Logger) *List[User] {
	return newList(listSpec[User]{
		resource:   ResourceUsers,
		title:      "title.users",
		collection: apiclient.PathUsers,
		itemsKey:   "users",
		id:         func(u User) string { return u.ID },
		label:      func(u User) string { return u.Name },
		noDelete:   true,
		mode:       uikit.ModeWindowed,
	}, api, size, logger)
}
