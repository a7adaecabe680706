// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import (
	"context"
	"encoding/json"
	"testing"
)

func TestInit(t *testing.T) {
	if err := Init(nil); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if TranslationCount("en") == 0 {
		t.Error("Expected English translations to be loaded")
	}
	if TranslationCount("zh") == 0 {
		t.Error("Expected Chinese translations to be loaded")
	}
}

func TestT(t *testing.T) {
	tests := []struct {
		lang     string
		key      string
		args     []any
		expected string
	}{
		{"en", "btn.delete", nil, "Delete"},
		{"zh", "btn.delete", nil, "删除"},
		{"en", "error.network", []any{502}, "Network problem (HTTP 502)"},
		{"zh", "error.network", []any{0}, "网络出了问题 (HTTP 0)"},
		{"zh", "confirm.delete", []any{"Hello"}, "确认要删除\"Hello\"?删除后不可恢复!"},
		// Fallback to English for unknown language
		{"de", "btn.cancel", nil, "Cancel"},
		// Return key if not found
		{"en", "nonexistent.key", nil, "nonexistent.key"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"_"+tt.key, func(t *testing.T) {
			result := T(tt.lang, tt.key, tt.args...)
			if result != tt.expected {
				t.Errorf("T(%q, %q, %v) = %q, want %q", tt.lang, tt.key, tt.args, result, tt.expected)
			}
		})
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"zh-CN,zh;q=0.9,en;q=0.8", "zh"},
		{"en-US,en;q=0.9", "en"},
		{"zh", "zh"},
		{"fr-FR", "en"},
		{"", "en"},
		{"!!invalid", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MatchLanguage(tt.input); got != tt.expected {
				t.Errorf("MatchLanguage(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContextLanguage(t *testing.T) {
	ctx := context.Background()
	if got := FromContext(ctx); got != "en" {
		t.Errorf("FromContext(empty) = %q, want en", got)
	}

	ctx = WithLanguage(ctx, "zh")
	if got := Tc(ctx, "label.admin"); got != "管理员" {
		t.Errorf("Tc(label.admin) = %q, want 管理员", got)
	}
}

func TestLocaleFilesHaveSameKeys(t *testing.T) {
	keys := make(map[string]map[string]bool)
	for _, lang := range SupportedLanguages {
		data, err := localesFS.ReadFile("locales/" + lang + "/messages.json")
		if err != nil {
			t.Fatalf("reading %s: %v", lang, err)
		}
		var f MessageFile
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("parsing %s: %v", lang, err)
		}
		keys[lang] = make(map[string]bool)
		for _, m := range f.Messages {
			keys[lang][m.ID] = true
		}
	}

	for key := range keys["en"] {
		if !keys["zh"][key] {
			t.Errorf("key %q missing from zh", key)
		}
	}
	for key := range keys["zh"] {
		if !keys["en"][key] {
			t.Errorf("key %q missing from en", key)
		}
	}
}
