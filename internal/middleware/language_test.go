// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/blogconsole/internal/i18n"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		cookie     string
		accept     string
		want       string
		wantCookie bool
	}{
		{"default", "/", "", "", "en", false},
		{"accept-language", "/", "", "zh-CN,zh;q=0.9,en;q=0.8", "zh", false},
		{"cookie beats header", "/", "en", "zh-CN", "en", false},
		{"query beats cookie", "/?lang=zh", "en", "", "zh", true},
		{"query is case-insensitive", "/?lang=ZH", "", "", "zh", true},
		{"unsupported query ignored", "/?lang=fr", "zh", "", "zh", false},
		{"unsupported cookie ignored", "/", "de", "", "en", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Language(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = i18n.FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LanguageCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}

			var set *http.Cookie
			for _, c := range rr.Result().Cookies() {
				if c.Name == LanguageCookieName {
					set = c
				}
			}
			if tt.wantCookie {
				if set == nil || set.Value != tt.want {
					t.Errorf("language cookie = %v, want %q", set, tt.want)
				}
			} else if set != nil {
				t.Errorf("unexpected language cookie %v", set)
			}
		})
	}
}
