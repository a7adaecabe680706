// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/blogconsole/internal/testutil"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

func TestDefaultCSRFConfigDevelopment(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, true, nil)

	if len(cfg.TrustedOrigins) != 2 {
		t.Fatalf("TrustedOrigins = %v, want 2 entries", cfg.TrustedOrigins)
	}
	if cfg.TrustedOrigins[0] != "localhost:8080" || cfg.TrustedOrigins[1] != "127.0.0.1:8080" {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

func TestDefaultCSRFConfigProduction(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, false, nil)

	if len(cfg.TrustedOrigins) != 0 {
		t.Errorf("TrustedOrigins = %v, want none", cfg.TrustedOrigins)
	}
	if string(cfg.AuthKey) != string(testCSRFKey) {
		t.Error("AuthKey not kept")
	}
}

func TestCSRF(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, false, testutil.TestLoggerSilent()))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"safe method", http.MethodGet, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusNoContent},
		{"same origin post", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusNoContent},
		{"no browser headers", http.MethodPost, nil, http.StatusNoContent},
		{"cross site post", http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"foreign origin", http.MethodPost, map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://console.example/manage/blogs/next", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("Status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestSkipCSRF(t *testing.T) {
	protect := CSRF(DefaultCSRFConfig(testCSRFKey, false, testutil.TestLoggerSilent()))
	handler := SkipCSRF("/auth/weibo")(protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for path, want := range map[string]int{
		"/auth/weibo": http.StatusNoContent,
		"/signin":     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "http://console.example"+path, nil)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != want {
			t.Errorf("POST %s status = %d, want %d", path, rr.Code, want)
		}
	}
}
