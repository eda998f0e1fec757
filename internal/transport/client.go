// Package transport issues HTTP requests to the authorization server. It
// carries the session credential implicitly through an injected cookie jar
// and centrally intercepts authentication-required responses.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/UniPro-tech/UniQUE-Auth/internal/core"
)

const defaultTimeout = 15 * time.Second

// APIError is the structured failure body of the wire contract:
// { "error": ..., "error_description": ... } plus the HTTP status.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Options configures a Client. Session is the explicit opaque session handle:
// callers own the jar, the client only carries it. OnUnauthorized is the one
// cross-cutting policy: it fires for any 401 in place of normal error
// propagation, so no call site has to check for a stale session itself.
type Options struct {
	BaseURL        string
	Session        http.CookieJar
	Timeout        time.Duration
	Hub            *core.EventHub
	Logger         zerolog.Logger
	OnUnauthorized func()
}

type Client struct {
	base           *url.URL
	hc             *http.Client
	hub            *core.EventHub
	log            zerolog.Logger
	onUnauthorized func()
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	jar := opts.Session
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("new cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base: base,
		hc: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		hub:            opts.Hub,
		log:            opts.Logger,
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into out (out may be nil).
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes a 2xx response into out.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.record(method, u.RequestURI(), 0, time.Since(start), err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.record(method, u.RequestURI(), resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return core.ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Code and Description stay empty when the body carries neither;
		// display falls through to the caller's generic fallback.
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

func (c *Client) record(method, path string, status int, dur time.Duration, err error) {
	e := core.Event{
		Time:     time.Now(),
		Kind:     "http",
		Method:   method,
		Path:     path,
		Status:   status,
		Duration: dur,
	}
	if err != nil {
		e.Error = err.Error()
	}
	c.hub.Append(e)

	evt := c.log.Debug().Str("method", method).Str("path", path).Int("status", status).Dur("duration", dur)
	if err != nil {
		evt = c.log.Warn().Str("method", method).Str("path", path).Err(err)
	}
	evt.Msg("request")
}
