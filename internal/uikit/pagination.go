// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"strconv"
)

// Mode selects the layout of a pagination strip.
type Mode int

const (
	// ModeWindowed shows numbered pages around the current one, the first and
	// last pages, and ellipses for the skipped ranges.
	ModeWindowed Mode = iota
	// ModeCompact shows only prev, the current page and next.
	ModeCompact
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeWindowed:
		return "windowed"
	case ModeCompact:
		return "compact"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// EntryKind identifies the variant of a StripEntry.
type EntryKind string

const (
	EntryPage     EntryKind = "page"
	EntryEllipsis EntryKind = "ellipsis"
	EntryPrev     EntryKind = "prev"
	EntryNext     EntryKind = "next"
)

// PageInfo is the position metadata of one fetched page.
type PageInfo struct {
	PageIndex   int  `json:"page_index"`
	PageCount   int  `json:"page_count"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// StripEntry is one control of a rendered pagination strip.
// Index is the target page for page/prev/next entries and zero for ellipses.
// Active is only set on the current page; Enabled is only meaningful for
// prev/next.
type StripEntry struct {
	Kind    EntryKind
	Index   int
	Active  bool
	Enabled bool
}

// IsLink reports whether the entry should be rendered as a clickable link.
func (e StripEntry) IsLink() bool {
	switch e.Kind {
	case EntryPage:
		return !e.Active
	case EntryPrev, EntryNext:
		return e.Enabled
	default:
		return false
	}
}

// BuildStrip returns the ordered strip entries for the given page metadata.
// The result depends only on its inputs.
func BuildStrip(mode Mode, info PageInfo) []StripEntry {
	if mode == ModeCompact {
		return []StripEntry{
			prevEntry(info),
			{Kind: EntryPage, Index: info.PageIndex, Active: true},
			nextEntry(info),
		}
	}
	return buildWindowed(info)
}

func buildWindowed(info PageInfo) []StripEntry {
	current := info.PageIndex
	count := info.PageCount

	// prev + at most 9 numbered/ellipsis entries + next
	entries := make([]StripEntry, 0, 11)
	entries = append(entries, prevEntry(info))

	// Leading window
	if current-4 > 0 {
		entries = append(entries, pageEntry(1), StripEntry{Kind: EntryEllipsis})
	} else if current-4 == 0 {
		entries = append(entries, pageEntry(1))
	}
	if current-2 > 0 {
		entries = append(entries, pageEntry(current-2))
	}
	if current-1 > 0 {
		entries = append(entries, pageEntry(current-1))
	}

	entries = append(entries, StripEntry{Kind: EntryPage, Index: current, Active: true})

	// Trailing window
	if current+1 <= count {
		entries = append(entries, pageEntry(current+1))
	}
	if current+2 <= count {
		entries = append(entries, pageEntry(current+2))
	}
	if current+3 == count {
		entries = append(entries, pageEntry(current+3))
	} else if current+3 < count {
		entries = append(entries, StripEntry{Kind: EntryEllipsis}, pageEntry(count))
	}

	return append(entries, nextEntry(info))
}

func pageEntry(index int) StripEntry {
	return StripEntry{Kind: EntryPage, Index: index}
}

func prevEntry(info PageInfo) StripEntry {
	return StripEntry{Kind: EntryPrev, Index: info.PageIndex - 1, Enabled: info.HasPrevious}
}

func nextEntry(info PageInfo) StripEntry {
	return StripEntry{Kind: EntryNext, Index: info.PageIndex + 1, Enabled: info.HasNext}
}

// PadCount returns how many blank rows are needed to fill a table of size
// rows when n data rows are present. Never negative.
func PadCount(n, size int) int {
	if n >= size {
		return 0
	}
	return size - n
}

// ParsePageParam parses the "page" query parameter from the request.
// Returns 1 if the parameter is missing, empty, or invalid.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParseIntParam parses an integer query parameter from the request.
// Returns defaultVal if the parameter is missing, empty, or invalid.
// If minVal > 0, values below minVal return defaultVal.
// If maxVal > 0, values above maxVal return defaultVal.
func ParseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}
