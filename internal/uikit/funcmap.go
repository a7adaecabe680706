// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides pagination strip logic and reusable template
// helpers for the UIkit-styled console pages.
package uikit

import (
	"fmt"
	"html/template"
	"math"
	"time"
)

// TemplateFuncs returns a template.FuncMap with pure, reusable helper functions.
//
// Callers can merge project-specific functions on top:
//
//	funcs := uikit.TemplateFuncs()
//	funcs["myFunc"] = myProjectFunc
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": Truncate,
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		// blanks returns a slice of length PadCount(n, size) so templates can
		// range over the padding rows.
		"blanks": func(n, size int) []struct{} {
			return make([]struct{}, PadCount(n, size))
		},
		"timestamp":   FormatTimestamp,
		"stripClass":  StripClass,
		"stripLabel":  StripLabel,
		"stripTarget": StripTarget,
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				dict[key] = values[i+1]
			}
			return dict
		},
	}
}

// Truncate shortens s to at most length runes, appending "..." when cut.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}

// FormatTimestamp formats a Unix timestamp in seconds (as sent by the blog
// API, with a fractional part) as "2006-01-02 15:04". Zero yields "".
func FormatTimestamp(ts float64) string {
	if ts <= 0 || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return ""
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).Local().Format("2006-01-02 15:04")
}

// StripClass returns the UIkit list item class for a strip entry.
func StripClass(e StripEntry) string {
	switch {
	case e.Kind == EntryPage && e.Active:
		return "uk-active"
	case (e.Kind == EntryPrev || e.Kind == EntryNext) && !e.Enabled:
		return "uk-disabled"
	default:
		return ""
	}
}

// StripLabel returns the visible text of a strip entry.
func StripLabel(e StripEntry) string {
	switch e.Kind {
	case EntryPrev:
		return "«"
	case EntryNext:
		return "»"
	case EntryEllipsis:
		return "..."
	default:
		return fmt.Sprintf("%d", e.Index)
	}
}

// StripTarget returns the link for an entry given a base path such as
// "/manage/blogs". Entries that are not links return "".
func StripTarget(base string, e StripEntry) string {
	if !e.IsLink() {
		return ""
	}
	return fmt.Sprintf("%s?page=%d", base, e.Index)
}
