// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listctl drives a paginated, deletable list backed by the blog API.
// A Controller fetches one page at a time, keeps it as the source of truth,
// and projects it onto a View as rows padded to a fixed height plus a
// pagination strip.
package listctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/uikit"
)

// Sentinel errors.
var (
	ErrNoDelete     = errors.New("listctl: delete is not supported for this list")
	ErrNotConfirmed = errors.New("listctl: delete not confirmed")
	ErrUnknownItem  = errors.New("listctl: item is not on the current page")
	ErrStale        = errors.New("listctl: response superseded by a newer fetch")
)

// Fetcher issues requests against the blog API. *apiclient.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Row is one table row. Blank rows pad short pages.
type Row[T any] struct {
	Item  T
	Blank bool
}

// View receives the projection of controller state. Methods are called with
// the controller lock held and must not call back into the controller.
type View[T any] interface {
	SetLoading(loading bool)
	// ShowError shows message in the error slot; "" hides it.
	ShowError(message string)
	Render(rows []Row[T], strip []uikit.StripEntry)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer for actions that were already confirmed, e.g. the
// POST that follows a confirmation page.
var Confirmed = ConfirmFunc(func(context.Context, string) bool { return true })

// Page is one fetched slice of a collection plus its position metadata.
type Page[T any] struct {
	Items []T
	uikit.PageInfo
}

// Config parameterizes a Controller for one resource.
type Config[T any] struct {
	// EndpointForPage returns the list URL for a 1-based page index.
	EndpointForPage func(index int) string

	// DeleteEndpoint returns the delete URL of an item; nil disables delete.
	DeleteEndpoint func(id string) string

	// ItemsKey is the key of the item array in list responses.
	ItemsKey string

	ItemID    func(T) string
	ItemLabel func(T) string

	// PageSize is the fixed number of rows rendered per page.
	PageSize int

	Mode uikit.Mode

	Logger *slog.Logger
}

// Controller holds the list state of one page binding.
type Controller[T any] struct {
	cfg    Config[T]
	api    Fetcher
	view   View[T]
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	page    Page[T]
	loaded  bool
	current int
}

// New creates a Controller.
func New[T any](cfg Config[T], api Fetcher, view View[T]) *Controller[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[T]{
		cfg:     cfg,
		api:     api,
		view:    view,
		logger:  logger.With("component", "listctl", "items", cfg.ItemsKey),
		current: 1,
	}
}

// FetchPage loads page index and renders it. Application errors are shown
// verbatim and transport errors as a network message; in both cases the
// previously rendered page stays in place. A response that arrives after a
// newer fetch was issued is dropped and ErrStale is returned.
func (c *Controller[T]) FetchPage(ctx context.Context, index int) error {
	if index < 1 {
		index = 1
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.view.SetLoading(true)
	c.view.ShowError("")
	c.mu.Unlock()

	payload, err := c.api.Get(ctx, c.cfg.EndpointForPage(index))

	var page Page[T]
	if err == nil {
		page, err = decodePage[T](payload, c.cfg.ItemsKey, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("discarding stale page response", "index", index, "seq", seq, "latest", c.seq)
		return ErrStale
	}
	defer c.view.SetLoading(false)

	if err != nil {
		c.logger.Warn("fetching page failed", "index", index, "error", err)
		c.view.ShowError(apiclient.Message(ctx, err))
		return err
	}

	c.page = page
	c.loaded = true
	c.current = page.PageIndex
	c.view.Render(c.rows(), uikit.BuildStrip(c.cfg.Mode, page.PageInfo))
	return nil
}

// DeleteItem asks for confirmation using the item's label from the stored
// page, posts the delete and, on success, re-fetches the current page.
// The list is never changed locally.
func (c *Controller[T]) DeleteItem(ctx context.Context, id string, confirm Confirmer) error {
	prompt, err := c.DeletePrompt(ctx, id)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm.Confirm(ctx, prompt) {
		return ErrNotConfirmed
	}

	if _, err := c.api.Post(ctx, c.cfg.DeleteEndpoint(id), struct{}{}); err != nil {
		c.logger.Warn("deleting item failed", "id", id, "error", err)
		c.mu.Lock()
		c.view.ShowError(apiclient.Message(ctx, err))
		c.mu.Unlock()
		return err
	}

	c.logger.Info("item deleted", "id", id)
	return c.FetchPage(ctx, c.currentIndex())
}

// DeletePrompt returns the confirmation text for deleting id.
func (c *Controller[T]) DeletePrompt(ctx context.Context, id string) (string, error) {
	if c.cfg.DeleteEndpoint == nil {
		return "", ErrNoDelete
	}
	item, ok := c.Find(id)
	if !ok {
		return "", ErrUnknownItem
	}
	label := id
	if c.cfg.ItemLabel != nil {
		label = c.cfg.ItemLabel(item)
	}
	return i18n.Tc(ctx, "confirm.delete", label), nil
}

// JumpTo fetches an explicit page.
func (c *Controller[T]) JumpTo(ctx context.Context, index int) error {
	return c.FetchPage(ctx, index)
}

// Previous fetches the page before the current one. It does nothing when the
// current page has no predecessor.
func (c *Controller[T]) Previous(ctx context.Context) error {
	c.mu.Lock()
	ok := c.loaded && c.page.HasPrevious
	target := c.current - 1
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.FetchPage(ctx, target)
}

// Next fetches the page after the current one. It does nothing when the
// current page has no successor.
func (c *Controller[T]) Next(ctx context.Context) error {
	c.mu.Lock()
	ok := c.loaded && c.page.HasNext
	target := c.current + 1
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.FetchPage(ctx, target)
}

// Refresh re-fetches the current page, e.g. after a create.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.FetchPage(ctx, c.currentIndex())
}

// Current returns the last successfully fetched page.
func (c *Controller[T]) Current() (Page[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := c.page
	page.Items = append([]T(nil), c.page.Items...)
	return page, c.loaded
}

// CurrentIndex returns the index of the last successfully fetched page, or 0
// before the first successful fetch.
func (c *Controller[T]) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return 0
	}
	return c.current
}

// Find looks up an item of the current page by id.
func (c *Controller[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.ItemID != nil {
		for _, item := range c.page.Items {
			if c.cfg.ItemID(item) == id {
				return item, true
			}
		}
	}
	var zero T
	return zero, false
}

// CanDelete reports whether the list supports deletion.
func (c *Controller[T]) CanDelete() bool {
	return c.cfg.DeleteEndpoint != nil
}

// Mode returns the strip layout of the list.
func (c *Controller[T]) Mode() uikit.Mode {
	return c.cfg.Mode
}

func (c *Controller[T]) currentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// rows must be called with c.mu held.
func (c *Controller[T]) rows() []Row[T] {
	pad := uikit.PadCount(len(c.page.Items), c.cfg.PageSize)
	rows := make([]Row[T], 0, len(c.page.Items)+pad)
	for _, item := range c.page.Items {
		rows = append(rows, Row[T]{Item: item})
	}
	for range pad {
		rows = append(rows, Row[T]{Blank: true})
	}
	return rows
}

// decodePage extracts the item array and page metadata from a list response.
func decodePage[T any](payload json.RawMessage, itemsKey string, requested int) (Page[T], error) {
	var page Page[T]

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return page, malformed(itemsKey, err)
	}

	if raw, ok := fields[itemsKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, malformed(itemsKey, err)
		}
	}
	if raw, ok := fields["page"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.PageInfo); err != nil {
			return page, malformed(itemsKey, err)
		}
	}
	if page.PageIndex < 1 {
		page.PageIndex = requested
	}
	return page, nil
}

// malformed reports a 2xx list response of the wrong shape. It is surfaced
// like any other transport failure.
func malformed(itemsKey string, err error) error {
	return &apiclient.TransportError{
		StatusCode: http.StatusOK,
		Err:        fmt.Errorf("decoding %s page: %w", itemsKey, err),
	}
}
