// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blogconsole/internal/cache"
	"github.com/olegiv/blogconsole/internal/logging"
	"github.com/olegiv/blogconsole/internal/version"
)

var testVersion = version.Info{Version: "v1.2.3", GitCommit: "abc1234"}

func TestHealth(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.get("/manage/blogs") // creates a console session

	resp, err := app.client.Get(app.srv.URL + "/health?verbose=true")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.Equal(t, 1, status.Sessions)
	assert.Equal(t, "healthy", status.Checks["session_store"].Status)
	require.NotNil(t, status.System)
	assert.NotEmpty(t, status.System.GoVersion)
}

func TestHealthDegraded(t *testing.T) {
	store := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	require.NoError(t, store.Close())
	h := NewHealthHandler(store, nil, version.Info{})

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "dev", status.Version)
	assert.Equal(t, "unhealthy", status.Checks["session_store"].Status)
	assert.Nil(t, status.System)
}

func TestHealthRecentEvents(t *testing.T) {
	events := logging.NewEventLog(5)
	logger := slog.New(logging.NewHandler(slog.NewTextHandler(io.Discard, nil), events))
	logger.Warn("delete failed", "resource", "blogs")

	store := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = store.Close() })
	h := NewHealthHandler(store, nil, testVersion).WithEvents(events)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Empty(t, status.Events, "events shown without verbose")

	rr = httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Len(t, status.Events, 1)
	assert.Equal(t, "delete failed", status.Events[0].Message)
	assert.Equal(t, "blogs", status.Events[0].Metadata["resource"])
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, version.Info{})

	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rr.Body.String())
}
