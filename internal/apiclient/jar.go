// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// Jar holds the blog API cookies (user session, verify-image session) of one
// console session. It is serialized into the console session between requests.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]string
	changed bool
}

// NewJar returns an empty jar.
func NewJar() *Jar {
	return &Jar{cookies: make(map[string]string)}
}

// DecodeJar restores a jar from Encode output. Invalid input yields an empty jar.
func DecodeJar(data string) *Jar {
	j := NewJar()
	if data == "" {
		return j
	}
	_ = json.Unmarshal([]byte(data), &j.cookies)
	if j.cookies == nil {
		j.cookies = make(map[string]string)
	}
	return j
}

// Encode serializes the jar.
func (j *Jar) Encode() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	b, _ := json.Marshal(j.cookies)
	return string(b)
}

// Changed reports whether Update modified the jar since it was created or decoded.
func (j *Jar) Changed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.changed
}

// Apply adds the stored cookies to an outgoing request.
func (j *Jar) Apply(req *http.Request) {
	j.mu.Lock()
	defer j.mu.Unlock()

	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: j.cookies[name]})
	}
}

// Update stores cookies set by a response. Expired or emptied cookies are removed.
func (j *Jar) Update(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" {
			if _, ok := j.cookies[c.Name]; ok {
				delete(j.cookies, c.Name)
				j.changed = true
			}
			continue
		}
		if j.cookies[c.Name] != c.Value {
			j.cookies[c.Name] = c.Value
			j.changed = true
		}
	}
}

// Clear removes all cookies.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.cookies) > 0 {
		j.cookies = make(map[string]string)
		j.changed = true
	}
}

// Len returns the number of stored cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

type jarKey struct{}

// WithJar attaches a jar to ctx; the client sends and updates its cookies.
func WithJar(ctx context.Context, j *Jar) context.Context {
	return context.WithValue(ctx, jarKey{}, j)
}

// JarFromContext returns the jar attached to ctx, or nil.
func JarFromContext(ctx context.Context) *Jar {
	j, _ := ctx.Value(jarKey{}).(*Jar)
	return j
}
