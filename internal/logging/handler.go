// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides the console's slog handler. It tags records with
// the chi request ID and keeps the most recent warnings and errors in memory
// so the health endpoint can show them.
package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// DefaultEventLogSize is the number of events an EventLog keeps.
const DefaultEventLogSize = 50

// Event is one recorded warning or error.
type Event struct {
	Time     time.Time         `json:"time"`
	Level    string            `json:"level"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EventLog is a fixed-size ring of recent events. It is safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewEventLog creates an EventLog holding up to size events.
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{events: make([]Event, size)}
}

func (l *EventLog) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[l.next] = e
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the recorded events, newest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.events)
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.events[(l.next-i+len(l.events))%len(l.events)])
	}
	return out
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.events)
	}
	return l.next
}

// Handler is a slog.Handler that wraps another handler. It adds the request
// ID of the context to every record and copies records at or above its level
// into an EventLog.
type Handler struct {
	inner  slog.Handler
	events *EventLog
	level  slog.Level
	attrs  []slog.Attr
}

// NewHandler creates a Handler recording WARN and above into events. events
// may be nil.
func NewHandler(inner slog.Handler, events *EventLog) *Handler {
	return &Handler{inner: inner, events: events, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if reqID := chimw.GetReqID(ctx); reqID != "" && !hasAttr(r, "request_id") {
		r = r.Clone()
		r.AddAttrs(slog.String("request_id", reqID))
	}

	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if h.events != nil && r.Level >= h.level {
		h.events.add(Event{
			Time:     r.Time,
			Level:    r.Level.String(),
			Message:  r.Message,
			Metadata: h.metadata(r),
		})
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:  h.inner.WithAttrs(attrs),
		events: h.events,
		level:  h.level,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:  h.inner.WithGroup(name),
		events: h.events,
		level:  h.level,
		attrs:  h.attrs,
	}
}

// metadata collects the handler and record attributes as strings.
func (h *Handler) metadata(r slog.Record) map[string]string {
	if len(h.attrs) == 0 && r.NumAttrs() == 0 {
		return nil
	}
	m := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		m[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.String()
		return true
	})
	return m
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
