// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"github.com/olegiv/blogconsole/internal/i18n"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "blogconsole_lang"

const languageCookieMaxAge = 365 * 24 * 60 * 60

// Language puts the console language into the request context.
// Priority order:
// 1. Query parameter ?lang=xx (explicit switch, updates the cookie)
// 2. The language cookie
// 3. The Accept-Language header
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""

		if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     LanguageCookieName,
				Value:    lang,
				Path:     "/",
				MaxAge:   languageCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		if lang == "" {
			if c, err := r.Cookie(LanguageCookieName); err == nil && i18n.IsSupported(c.Value) {
				lang = strings.ToLower(c.Value)
			}
		}

		if lang == "" {
			lang = i18n.MatchLanguage(r.Header.Get("Accept-Language"))
		}

		next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), lang)))
	})
}
