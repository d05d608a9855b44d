// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/evo-tui/internal/session"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the hosted Evo Associate backend.
	DefaultBaseURL = "https://orga-copilot-system-java.onrender.com"

	// DefaultTimeout bounds a single request. Replies from /chat/ask can take
	// a while because the backend waits for the model.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerSecond and DefaultBurst shape outgoing traffic.
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "evo-tui"
)

// sharedHTTPClient pools connections for every Client that is not given its
// own http.Client.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Client talks to the Evo Associate backend. The bearer token is read from
// the injected session on every request, so a login or logout elsewhere is
// picked up without rebuilding the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sess       *session.Session
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, sess *session.Session) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: sharedHTTPClient,
		sess:       sess,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		timeout:    DefaultTimeout,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithRateLimit sets the request rate. A non-positive rps disables limiting.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.sess
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs a request and decodes a JSON response into out (which may be
// nil). Authenticated requests carry the session token; a 401 ends the
// session before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if c.sess == nil {
			return session.ErrNoSession
		}
		token, err := c.sess.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return errors.Wrapf(err, "read %s %s", method, path)
	}

	entry := log.WithFields(log.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newStatusError(resp.StatusCode, data)
		entry.WithError(apiErr).Warn("request failed")
		if resp.StatusCode == http.StatusUnauthorized && authenticated && c.sess != nil {
			c.sess.End(session.ReasonUnauthorized)
		}
		return apiErr
	}
	entry.Debug("request completed")

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out, true)
}
