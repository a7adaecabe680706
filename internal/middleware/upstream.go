// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/session"
)

// UpstreamJar attaches the session's blog API cookie jar to the request
// context, where the API client reads and updates it. It must run inside
// sm.LoadAndSave.
//
// scs commits the session when the response header is written, so the jar is
// stored just before that, and once more after the handler for responses
// that never write.
func UpstreamJar(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			jar := session.Jar(ctx, sm)
			jw := &jarWriter{ResponseWriter: w, ctx: ctx, sm: sm, jar: jar}

			next.ServeHTTP(jw, r.WithContext(apiclient.WithJar(ctx, jar)))
			jw.save()
		})
	}
}

// jarWriter saves the jar into the session before the first byte goes out.
type jarWriter struct {
	http.ResponseWriter
	ctx  context.Context
	sm   *scs.SessionManager
	jar  *apiclient.Jar
	once sync.Once
}

func (jw *jarWriter) save() {
	jw.once.Do(func() {
		session.SaveJar(jw.ctx, jw.sm, jw.jar)
	})
}

func (jw *jarWriter) WriteHeader(code int) {
	jw.save()
	jw.ResponseWriter.WriteHeader(code)
}

func (jw *jarWriter) Write(b []byte) (int, error) {
	jw.save()
	return jw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (jw *jarWriter) Unwrap() http.ResponseWriter {
	return jw.ResponseWriter
}
