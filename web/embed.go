// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the console's HTML templates.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var content embed.FS

// Templates is the template tree, rooted at its layouts/, partials/ and
// pages/ directories.
var Templates = mustSub(content, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
