// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/cache"
	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/middleware"
	"github.com/olegiv/blogconsole/internal/render"
	"github.com/olegiv/blogconsole/internal/session"
	"github.com/olegiv/blogconsole/internal/testutil"
	"github.com/olegiv/blogconsole/web"
)

// testApp is the console served over HTTP in front of a fake blog API.
type testApp struct {
	t      *testing.T
	fake   *testutil.FakeBlogAPI
	svc    *console.Service
	srv    *httptest.Server
	client *http.Client
}

type appOptions struct {
	guard  *middleware.SigninGuard
	github console.GitHubConfig
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	logger := testutil.TestLoggerSilent()
	fake := testutil.NewFakeBlogAPI(t)

	api, err := apiclient.New(apiclient.Options{BaseURL: fake.URL, Logger: logger})
	require.NoError(t, err)

	store := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = store.Close() })

	sm := session.New(store, session.Options{IsDev: true})
	svc := console.NewService(console.Options{
		API:    api,
		Cache:  store,
		GitHub: opts.github,
		Logger: logger,
	})
	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, SessionManager: sm, Logger: logger})
	require.NoError(t, err)

	h := New(Config{
		Service:        svc,
		SessionManager: sm,
		Renderer:       renderer,
		SigninGuard:    opts.guard,
		Logger:         logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.Language, sm.LoadAndSave, middleware.UpstreamJar(sm))
	h.Routes(r)
	NewHealthHandler(store, svc, testVersion).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:      t,
		fake:   fake,
		svc:    svc,
		srv:    srv,
		client: &http.Client{Jar: jar},
	}
}

// do sends req and parses the final response as HTML.
func (a *testApp) do(req *http.Request) (*http.Response, *goquery.Document) {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(a.t, err)
	return resp, doc
}

func (a *testApp) get(path string) (*http.Response, *goquery.Document) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, form url.Values) (*http.Response, *goquery.Document) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

// noFollow sends req without following redirects and returns the raw response.
func (a *testApp) noFollow(req *http.Request) *http.Response {
	a.t.Helper()
	client := *a.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	require.NoError(a.t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func (a *testApp) newRequest(method, path string, body io.Reader) *http.Request {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(a.t, err)
	return req
}

// signIn registers an account with the fake API and signs in through the console.
func (a *testApp) signIn(email, password string) *goquery.Document {
	a.t.Helper()
	a.fake.AddAccount(email, password)
	_, doc := a.post("/signin", url.Values{"email": {email}, "password": {password}, "next": {"/manage/blogs"}})
	return doc
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
