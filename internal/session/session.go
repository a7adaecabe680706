// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures console sessions. A session carries the blog API
// cookie jar of the signed-in user, the console binding key and flash messages.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/cache"
)

// Session keys.
const (
	KeyJar       = "upstream_jar"
	KeyConsoleID = "console_id"
	KeyUserName  = "user_name"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Options configures the session manager.
type Options struct {
	Lifetime    time.Duration
	IdleTimeout time.Duration
	IsDev       bool
}

// New creates a session manager whose data lives in store.
func New(store cache.Cache, opts Options) *scs.SessionManager {
	sm := scs.New()
	sm.Store = NewCacheStore(store)

	sm.Lifetime = opts.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 24 * time.Hour
	}
	if opts.IdleTimeout > 0 {
		sm.IdleTimeout = opts.IdleTimeout
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev // Secure cookies in production only
	if !opts.IsDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Jar restores the blog API cookie jar of the current session.
func Jar(ctx context.Context, sm *scs.SessionManager) *apiclient.Jar {
	return apiclient.DecodeJar(sm.GetString(ctx, KeyJar))
}

// SaveJar writes the jar back when a request changed it.
func SaveJar(ctx context.Context, sm *scs.SessionManager, jar *apiclient.Jar) {
	if jar != nil && jar.Changed() {
		sm.Put(ctx, KeyJar, jar.Encode())
	}
}

// ConsoleID returns the key of the session's console bindings, creating one
// on first use.
func ConsoleID(ctx context.Context, sm *scs.SessionManager) string {
	id := sm.GetString(ctx, KeyConsoleID)
	if id == "" {
		id = uuid.NewString()
		sm.Put(ctx, KeyConsoleID, id)
	}
	return id
}

// SignOut forgets the upstream cookies and the signed-in user. The console
// bindings keep their key so a stale binding is swept like any idle one.
func SignOut(ctx context.Context, sm *scs.SessionManager) error {
	sm.Remove(ctx, KeyJar)
	sm.Remove(ctx, KeyUserName)
	return sm.RenewToken(ctx)
}
