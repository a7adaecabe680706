// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient talks to the blog REST API. Every response is parsed at
// the boundary into either a raw success payload, an *APIError (truthy
// "error" field) or a *TransportError (status, timeout, network, bad JSON).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client configuration constants
const (
	DefaultTimeout  = 30 * time.Second
	MaxResponseSize = 16 << 20 // 16 MB, image pages may embed data URLs
	UserAgent       = "blogconsole/1.0"
	RequestIDHeader = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the blog API origin, e.g. http://127.0.0.1:9000
	BaseURL string

	// Timeout bounds each request (0 = DefaultTimeout)
	Timeout time.Duration

	// RateLimit is the maximum number of requests per second (0 = unlimited)
	RateLimit float64

	// Burst is the limiter burst size (0 = 1)
	Burst int

	// HTTPClient overrides the underlying client (its Timeout is left as is)
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client issues requests against the blog API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must start with http:// or https://, got %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With("component", "apiclient"),
	}, nil
}

// Get issues a GET request for path (which may carry a query string).
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	if body == nil {
		body = struct{}{}
	}
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do issues one request. There are no retries: a failed request is reported
// and the caller decides whether the user should try again.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	jar := JarFromContext(ctx)
	if jar != nil {
		jar.Apply(req)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("blog API request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if jar != nil {
		jar.Update(resp.Cookies())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("blog API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	return ParseEnvelope(resp.StatusCode, data)
}

// resolve joins path onto the base URL. Absolute URLs are rejected so page
// bindings cannot be pointed at other hosts.
func (c *Client) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path must start with /: %q", path)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("absolute URL not allowed: %q", path)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// BaseURL returns the configured blog API origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
