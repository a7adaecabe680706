// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/olegiv/blogconsole/internal/apiclient"
)

// GitHubAuthorizeEndpoint is the GitHub OAuth authorization page.
const GitHubAuthorizeEndpoint = "https://github.com/login/oauth/authorize"

// GitHubConfig holds the OAuth application settings.
type GitHubConfig struct {
	ClientID    string
	RedirectURI string
}

// Enabled reports whether GitHub sign-in is configured.
func (c GitHubConfig) Enabled() bool {
	return c.ClientID != "" && c.RedirectURI != ""
}

// GitHubAuthorizeURL builds the authorization URL. state is the console path
// and query the provider should send the user back to.
func GitHubAuthorizeURL(cfg GitHubConfig, state string) string {
	q := url.Values{}
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("state", state)
	return GitHubAuthorizeEndpoint + "?" + q.Encode()
}

// GitHubURL returns the authorization URL for state, or false when GitHub
// sign-in is not configured.
func (s *Service) GitHubURL(state string) (string, bool) {
	if !s.github.Enabled() {
		return "", false
	}
	return GitHubAuthorizeURL(s.github, SafeRedirect(state)), true
}

// WeiboLogin hands a Weibo uid and access token to the blog API.
func (s *Service) WeiboLogin(ctx context.Context, uid, accessToken string) error {
	if uid == "" || accessToken == "" {
		return errors.New("weibo uid and access token are required")
	}
	_, err := s.api.Post(ctx, apiclient.PathWeiboLogin, map[string]string{
		"uid":          uid,
		"access_token": accessToken,
	})
	return err
}

// ErrBadVerifyImage is returned when the verify image is not an image data URL.
var ErrBadVerifyImage = errors.New("verify image is not an image data URL")

// VerifyImage fetches a registration captcha as a data URL. The API sets the
// cookie that ties the code to the session, so ctx must carry the jar.
func (s *Service) VerifyImage(ctx context.Context) (string, error) {
	payload, err := s.api.Get(ctx, apiclient.PathVerifyImage)
	if err != nil {
		return "", err
	}
	var resp struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", &apiclient.TransportError{StatusCode: 200, Err: err}
	}
	if !strings.HasPrefix(resp.Image, "data:image/") {
		return "", ErrBadVerifyImage
	}
	return resp.Image, nil
}

// SafeRedirect returns target when it is a local absolute path and "/"
// otherwise, so user-supplied return addresses cannot leave the console.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}

// RefererPath reduces a Referer header to a local path+query for the same
// host, or "" when it points elsewhere.
func RefererPath(referer, host string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || (u.Host != "" && u.Host != host) {
		return ""
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return SafeRedirect(p)
}
