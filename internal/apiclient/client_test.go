// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "http://127.0.0.1:9000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", c.BaseURL())
}

func TestClient_GetSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/blogs", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `{"blogs":[],"page":{"page_index":3}}`)
	})

	payload, err := c.Get(context.Background(), PageOf(PathBlogs, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"blogs":[],"page":{"page_index":3}}`, string(payload))
}

func TestClient_PostSendsEmptyObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}", string(body))
		_, _ = io.WriteString(w, `{"id":"b1"}`)
	})

	_, err := c.Post(context.Background(), DeleteOf(PathBlogs, "b1"), nil)
	require.NoError(t, err)
}

func TestClient_ApplicationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"permission:forbidden","data":"permission","message":"no permission"}`)
	})

	_, err := c.Get(context.Background(), PageOf(PathUsers, 1))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "no permission", apiErr.Message)
	assert.Equal(t, "permission", apiErr.Data)
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":true,"message":"ignored"}`)
	})

	_, err := c.Get(context.Background(), PageOf(PathBlogs, 1))
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusBadGateway, tErr.StatusCode)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), PageOf(PathBlogs, 1))
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, 0, tErr.StatusCode)
}

func TestClient_RejectsAbsolutePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	_, err := c.Get(context.Background(), "http://evil.example/api")
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "//evil.example/api")
	assert.Error(t, err)
}

func TestClient_JarRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathAuthenticate:
			http.SetCookie(w, &http.Cookie{Name: "USER_SESSION", Value: "u-123", Path: "/"})
			_, _ = io.WriteString(w, `{"name":"bob"}`)
		case PathUsers:
			ck, err := r.Cookie("USER_SESSION")
			if assert.NoError(t, err) {
				assert.Equal(t, "u-123", ck.Value)
			}
			_, _ = io.WriteString(w, `{"users":[],"page":{"page_index":1,"page_count":0}}`)
		}
	})

	jar := NewJar()
	ctx := WithJar(context.Background(), jar)

	_, err := c.Post(ctx, PathAuthenticate, map[string]string{"email": "a@b.c"})
	require.NoError(t, err)
	assert.True(t, jar.Changed())
	assert.Equal(t, 1, jar.Len())

	// Survives a session round trip
	restored := DecodeJar(jar.Encode())
	_, err = c.Get(WithJar(context.Background(), restored), PageOf(PathUsers, 1))
	require.NoError(t, err)
}

func TestJar_UpdateRemovesExpired(t *testing.T) {
	jar := DecodeJar(`{"USER_SESSION":"x"}`)
	assert.False(t, jar.Changed())

	jar.Update([]*http.Cookie{{Name: "USER_SESSION", Value: "", MaxAge: -1}})
	assert.True(t, jar.Changed())
	assert.Equal(t, 0, jar.Len())

	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(jar.Encode()), &m))
	assert.Empty(t, m)

	assert.Equal(t, 0, DecodeJar("not json").Len())
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/api/blogs")
	require.NoError(t, err)

	// Second call would wait ~1000s for a token
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "/api/blogs")
	var tErr *TransportError
	assert.True(t, errors.As(err, &tErr))
}
