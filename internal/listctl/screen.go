// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listctl

import (
	"sync"

	"github.com/olegiv/blogconsole/internal/uikit"
)

// Screen is a View that keeps the last projection in memory so a handler can
// render it into a template.
type Screen[T any] struct {
	mu      sync.RWMutex
	loading bool
	err     string
	rows    []Row[T]
	strip   []uikit.StripEntry
	renders int
}

// NewScreen returns an empty Screen.
func NewScreen[T any]() *Screen[T] {
	return &Screen[T]{}
}

// SetLoading implements View.
func (s *Screen[T]) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// ShowError implements View.
func (s *Screen[T]) ShowError(message string) {
	s.mu.Lock()
	s.err = message
	s.mu.Unlock()
}

// Render implements View.
func (s *Screen[T]) Render(rows []Row[T], strip []uikit.StripEntry) {
	s.mu.Lock()
	s.rows = rows
	s.strip = strip
	s.renders++
	s.mu.Unlock()
}

// Snapshot is a read-only copy of a Screen.
type Snapshot[T any] struct {
	Loading bool
	Error   string
	Rows    []Row[T]
	Strip   []uikit.StripEntry
	Renders int
}

// Snapshot returns the current projection.
func (s *Screen[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[T]{
		Loading: s.loading,
		Error:   s.err,
		Rows:    append([]Row[T](nil), s.rows...),
		Strip:   append([]uikit.StripEntry(nil), s.strip...),
		Renders: s.renders,
	}
}

// ClearError hides the error slot, e.g. once the message has been displayed.
func (s *Screen[T]) ClearError() {
	s.ShowError("")
}
