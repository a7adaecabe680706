// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	logger := testLogger()
	s := New(logger)
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_Add(t *testing.T) {
	s := New(testLogger())

	if err := s.Add(Job{Name: "sweep", Spec: "@every 1m", Run: func() error { return nil }}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(Job{Name: "sweep", Spec: "@every 1m", Run: func() error { return nil }}); err == nil {
		t.Error("Add() duplicate name should fail")
	}
	if err := s.Add(Job{Name: "bad", Spec: "not a spec", Run: func() error { return nil }}); err == nil {
		t.Error("Add() invalid spec should fail")
	}
	if jobs := s.Jobs(); len(jobs) != 1 || jobs[0] != "sweep" {
		t.Errorf("Jobs() = %v", jobs)
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(testLogger())

	var runs atomic.Int32
	err := s.Add(Job{Name: "tick", Spec: "@every 1s", Run: func() error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if runs.Load() == 0 {
		t.Error("job never ran")
	}
}
