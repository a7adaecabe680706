// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// htmlSanitizer strips script, event handlers and the like from rendered
	// blog content, which is written by any signed-in user.
	htmlSanitizer = bluemonday.UGCPolicy()
)

// Markdown converts blog markdown to sanitized HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized
}

// DataURLAttr marks an image data URL as safe for a src attribute. Anything
// else yields "".
func DataURLAttr(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") || strings.ContainsAny(s, "\"'<> ") {
		return ""
	}
	return template.URL(s) //nolint:gosec // checked image data URL
}
