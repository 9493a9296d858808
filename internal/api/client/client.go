// Package client wraps the judge backend's HTTP API.
//
// It knows nothing about sessions or routing: credentials come from an
// injected TokenSource on every request, and a 401 is reported to the
// registered observers and returned as an error wrapping
// common.ErrUnauthenticated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"njoj_client/internal/common"
)

// TokenSource returns the current credential, or "" when logged out.
type TokenSource func() string

// UnauthenticatedFunc observes every 401 response.
type UnauthenticatedFunc func(ctx context.Context, err *common.APIError)

type Client struct {
	baseURL string
	http    *http.Client
	timeout *time.Duration
	log     *slog.Logger

	mu       sync.RWMutex
	token    TokenSource
	onUnauth []UnauthenticatedFunc
}

type Option func(*Client)

// WithHTTPClient sends requests through hc. hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero leaves requests unbounded. It
// applies whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil && c.http.Timeout != *c.timeout {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetTokenSource installs the accessor used to sign every request.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ts
}

// OnUnauthenticated registers fn to run for every 401 response, before the
// error is returned to the caller.
func (c *Client) OnUnauthenticated(fn UnauthenticatedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauth = append(c.onUnauth, fn)
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithBearer signs the request with token instead of the TokenSource.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out, opts)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", out, opts)
}

// PostForm sends fields as multipart/form-data.
func (c *Client) PostForm(ctx context.Context, path string, fields url.Values, out any, opts ...RequestOption) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range fields[name] {
			if err := mw.WriteField(name, v); err != nil {
				return fmt.Errorf("encode form field %s: %w", name, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), out, opts)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, nil, reader, "", out, opts)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any, opts []RequestOption) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	c.sign(req)
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.log.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := common.NewAPIError(resp.StatusCode, common.ParseErrorDetail(raw))
		if resp.StatusCode == http.StatusUnauthorized {
			c.notifyUnauthenticated(ctx, apiErr)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %v", common.ErrUnexpected, method, path, err)
	}
	return nil
}

func (c *Client) sign(req *http.Request) {
	c.mu.RLock()
	ts := c.token
	c.mu.RUnlock()
	if ts == nil {
		return
	}
	if token := ts(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) notifyUnauthenticated(ctx context.Context, err *common.APIError) {
	c.mu.RLock()
	observers := append([]UnauthenticatedFunc(nil), c.onUnauth...)
	c.mu.RUnlock()
	for _, fn := range observers {
		fn(ctx, err)
	}
}
