// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestLogger(t *testing.T) {
	const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "level=INFO"},
		{"client error", http.StatusNotFound, "level=WARN"},
		{"server error", http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/manage/blogs", nil)
			req.Header.Set("User-Agent", chromeUA)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			for _, want := range []string{
				tt.wantLevel,
				"msg=request",
				"method=GET",
				"path=/manage/blogs",
				"status=" + strconv.Itoa(tt.status),
				"bytes=5",
				"request_id=",
				"browser=Chrome",
				"os=Windows",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("log line missing %q: %s", want, out)
				}
			}
		})
	}
}

func TestRequestLoggerImplicitStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/signin", nil))

	out := buf.String()
	if !strings.Contains(out, "status=200") {
		t.Errorf("log line = %s, want status=200", out)
	}
	if strings.Contains(out, "browser=") {
		t.Errorf("log line has a browser without a User-Agent: %s", out)
	}
}
