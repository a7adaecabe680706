// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/cache"
)

func newStore(t *testing.T) *cache.MemoryCache {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_DevMode(t *testing.T) {
	sm := New(newStore(t), Options{IsDev: true})

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("Lifetime = %v, want 24h", sm.Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	sm := New(newStore(t), Options{Lifetime: time.Hour, IdleTimeout: 10 * time.Minute})

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("expected __Host-session cookie name, got %q", sm.Cookie.Name)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("expected Cookie.Path = '/', got %q", sm.Cookie.Path)
	}
	if sm.Lifetime != time.Hour || sm.IdleTimeout != 10*time.Minute {
		t.Errorf("Lifetime/IdleTimeout = %v/%v", sm.Lifetime, sm.IdleTimeout)
	}
}

func TestCacheStore(t *testing.T) {
	store := NewCacheStore(newStore(t))

	if _, found, err := store.Find("missing"); err != nil || found {
		t.Errorf("Find(missing) = found %v, err %v", found, err)
	}

	if err := store.Commit("tok", []byte("data"), time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	b, found, err := store.Find("tok")
	if err != nil || !found || string(b) != "data" {
		t.Errorf("Find(tok) = %q, %v, %v", b, found, err)
	}

	// An already expired commit removes the session
	if err := store.Commit("tok", []byte("data"), time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Commit expired: %v", err)
	}
	if _, found, _ := store.Find("tok"); found {
		t.Error("expired commit should delete the session")
	}

	_ = store.Commit("tok2", []byte("x"), time.Now().Add(time.Minute))
	if err := store.Delete("tok2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Find("tok2"); found {
		t.Error("deleted session still found")
	}
}

func TestJarAndConsoleID_RoundTrip(t *testing.T) {
	sm := New(newStore(t), Options{IsDev: true})

	var cookie *http.Cookie
	var firstID string

	write := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		jar := Jar(ctx, sm)
		jar.Update([]*http.Cookie{{Name: "USER_SESSION", Value: "u1"}})
		SaveJar(ctx, sm, jar)
		firstID = ConsoleID(ctx, sm)
	}))

	rec := httptest.NewRecorder()
	write.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.Cookie.Name {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set")
	}

	read := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		jar := Jar(ctx, sm)
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://api/", nil)
		jar.Apply(req)
		if c, err := req.Cookie("USER_SESSION"); err != nil || c.Value != "u1" {
			t.Errorf("jar cookie = %v, %v", c, err)
		}
		if id := ConsoleID(ctx, sm); id != firstID {
			t.Errorf("ConsoleID = %q, want %q", id, firstID)
		}
		if err := SignOut(ctx, sm); err != nil {
			t.Errorf("SignOut: %v", err)
		}
		if Jar(ctx, sm).Len() != 0 {
			t.Error("jar should be empty after sign-out")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	read.ServeHTTP(httptest.NewRecorder(), req)
}

func TestSaveJar_Unchanged(t *testing.T) {
	sm := New(newStore(t), Options{IsDev: true})
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SaveJar(r.Context(), sm, apiclient.NewJar())
		SaveJar(r.Context(), sm, nil)
		if sm.Exists(r.Context(), KeyJar) {
			t.Error("unchanged jar should not be written")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
