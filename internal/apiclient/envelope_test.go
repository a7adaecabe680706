// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/blogconsole/internal/i18n"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantAPIErr  bool
		wantMessage string
		wantCode    string
		wantTransp  bool
	}{
		{name: "plain object", body: `{"blogs":[],"page":{"page_index":1}}`},
		{name: "error false", body: `{"error":false,"id":"1"}`},
		{name: "error null", body: `{"error":null}`},
		{name: "error zero", body: `{"error":0}`},
		{name: "error empty string", body: `{"error":""}`},
		{name: "array body", body: `[1,2,3]`},
		{name: "error true", body: `{"error":true,"message":"X"}`, wantAPIErr: true, wantMessage: "X", wantCode: "true"},
		{name: "error string", body: `{"error":"value:invalid","data":"name","message":"名字不能为空"}`, wantAPIErr: true, wantMessage: "名字不能为空", wantCode: "value:invalid"},
		{name: "error number", body: `{"error":1,"message":"bad"}`, wantAPIErr: true, wantMessage: "bad", wantCode: "1"},
		{name: "error object", body: `{"error":{},"message":"obj"}`, wantAPIErr: true, wantMessage: "obj", wantCode: "{}"},
		{name: "not json", body: `<html>oops</html>`, wantTransp: true},
		{name: "empty body", body: ``, wantTransp: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParseEnvelope(200, []byte(tt.body))

			var apiErr *APIError
			var tErr *TransportError
			switch {
			case tt.wantAPIErr:
				if !errors.As(err, &apiErr) {
					t.Fatalf("ParseEnvelope() error = %v, want *APIError", err)
				}
				if apiErr.Message != tt.wantMessage {
					t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
				}
				if apiErr.Code != tt.wantCode {
					t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
				}
			case tt.wantTransp:
				if !errors.As(err, &tErr) {
					t.Fatalf("ParseEnvelope() error = %v, want *TransportError", err)
				}
				if tErr.StatusCode != 200 {
					t.Errorf("StatusCode = %d, want 200", tErr.StatusCode)
				}
			default:
				if err != nil {
					t.Fatalf("ParseEnvelope() unexpected error: %v", err)
				}
				if string(payload) != tt.body {
					t.Errorf("payload = %s, want %s", payload, tt.body)
				}
			}
		})
	}
}

func TestMessage(t *testing.T) {
	ctx := i18n.WithLanguage(context.Background(), "en")

	if got := Message(ctx, nil); got != "" {
		t.Errorf("Message(nil) = %q, want empty", got)
	}
	if got := Message(ctx, &APIError{Message: "X"}); got != "X" {
		t.Errorf("Message(APIError) = %q, want X", got)
	}
	if got := Message(ctx, &TransportError{StatusCode: 503}); got != "Network problem (HTTP 503)" {
		t.Errorf("Message(TransportError) = %q", got)
	}
	if got := Message(ctx, errors.New("boom")); got != "Network problem (HTTP 0)" {
		t.Errorf("Message(other) = %q", got)
	}

	zh := i18n.WithLanguage(context.Background(), "zh")
	if got := Message(zh, &TransportError{StatusCode: 404}); got != "网络出了问题 (HTTP 404)" {
		t.Errorf("Message(zh TransportError) = %q", got)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{StatusCode: 0, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TransportError should unwrap to its cause")
	}
}

func TestEndpoints(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{PageOf(PathBlogs, 2), "/api/blogs?page=2"},
		{Item(PathBlogs, "abc"), "/api/blogs/abc"},
		{DeleteOf(PathComments, "c1"), "/api/comments/c1/delete"},
		{DeleteOf(PathBlogTypes, "a/b"), "/api/blogtype/a%2Fb/delete"},
		{BlogComments("b1"), "/api/blogs/b1/comments"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
