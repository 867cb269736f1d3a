// Package api is the typed gateway to the task backend. All endpoints live
// under /api/v1; the client attaches the session's bearer credential and
// normalizes wire quirks so the rest of the program sees canonical shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskdeck/internal/session"
)

const basePath = "/api/v1"

// Client talks to the task backend.
type Client struct {
	baseURL   string
	http      *http.Client
	sess      *session.Session
	timeout   time.Duration
	aiTimeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the per-request timeout for task, user and comment calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAITimeout sets the per-request timeout for assistant calls, which can
// be slow while the remote model generates.
func WithAITimeout(d time.Duration) Option {
	return func(c *Client) { c.aiTimeout = d }
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a gateway client bound to the given session.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		sess:      sess,
		timeout:   10 * time.Second,
		aiTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorDetail is the backend's error body shape.
type errorDetail struct {
	Detail string `json:"detail"`
}

// do performs one request. When authed is set, a missing or expired
// credential fails before the network with an AuthError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	op := method + " " + path

	var bearer string
	if authed {
		token, err := c.sess.Token()
		if err != nil {
			return &AuthError{Reason: err.Error()}
		}
		bearer = token
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &FetchError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := newJSONRequest(ctx, method, c.baseURL+basePath+path, reader)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.send(req, op, out)
}

// newJSONRequest builds a request with the JSON content type set.
func newJSONRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// send performs the request, maps non-2xx responses to StatusError and
// decodes the body into out when given.
func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(raw))
		var d errorDetail
		if json.Unmarshal(raw, &d) == nil && d.Detail != "" {
			detail = d.Detail
		}
		return &StatusError{Op: op, Code: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &FetchError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) withAITimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.aiTimeout)
}
