// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mileusna/useragent"
)

// RequestLogger logs one line per request with the parsed browser and OS.
// Client errors log at warn, server errors at error.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", time.Since(start),
					"bytes", ww.BytesWritten(),
				}
				if id := chimw.GetReqID(r.Context()); id != "" {
					attrs = append(attrs, "request_id", id)
				}
				if ua := useragent.Parse(r.UserAgent()); ua.Name != "" {
					attrs = append(attrs, "browser", ua.Name, "os", ua.OS)
					if ua.Bot {
						attrs = append(attrs, "bot", true)
					}
				}

				level := slog.LevelInfo
				switch {
				case status >= 500:
					level = slog.LevelError
				case status >= 400:
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "request", attrs...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
