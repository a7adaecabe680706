// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/blogconsole/internal/cache"
	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/logging"
	"github.com/olegiv/blogconsole/internal/version"
)

// healthCheckTimeout bounds each dependency check.
const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	cache     cache.Cache
	svc       *console.Service
	version   version.Info
	events    *logging.EventLog
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(c cache.Cache, svc *console.Service, info version.Info) *HealthHandler {
	return &HealthHandler{
		cache:     c,
		svc:       svc,
		version:   info,
		startTime: time.Now(),
	}
}

// WithEvents makes verbose health reports include the recent warnings and
// errors of events.
func (h *HealthHandler) WithEvents(events *logging.EventLog) *HealthHandler {
	h.events = events
	return h
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Sessions  int              `json:"sessions"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
	Events    []logging.Event  `json:"recent_events,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
}

// Health handles GET /health. ?verbose=true adds runtime details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	cacheCheck := h.checkCache(r.Context())

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    map[string]Check{"session_store": cacheCheck},
	}
	if status.Version == "" {
		status.Version = "dev"
	}
	if h.svc != nil {
		status.Sessions = h.svc.Len()
	}
	if cacheCheck.Status != "healthy" {
		status.Status = "degraded"
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
		if h.events != nil {
			status.Events = h.events.Recent()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// checkCache pings the session store. Redis answers PING; the memory store
// only has to answer a lookup.
func (h *HealthHandler) checkCache(ctx context.Context) Check {
	if h.cache == nil {
		return Check{Status: "unhealthy", Message: "no session store"}
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	var err error
	if p, ok := h.cache.(interface{ Ping(context.Context) error }); ok {
		err = p.Ping(ctx)
	} else {
		_, err = h.cache.Has(ctx, "health:probe")
	}
	latency := time.Since(start)

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Latency: latency.String()}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     fmt.Sprintf("%.1f MB", float64(m.Alloc)/(1<<20)),
	}
}
