// Package apiclient is the shared authenticated HTTP+JSON client used by
// every feature service to talk to the payment backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Observer is notified after every backend call.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Config for the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	logger    *slog.Logger
	observer  Observer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

// New creates a client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "apiclient")
	return c, nil
}

type tokenKey struct{}

// WithToken stores a bearer token in ctx. It takes precedence over the
// client's TokenSource, which lets the BFF forward the caller's token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok && t != ""
}

// RequestOption adjusts a single request.
type RequestOption func(*http.Request)

// Header sets a request header.
func Header(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// IdempotencyKey sets the Idempotency-Key header.
func IdempotencyKey(key string) RequestOption { return Header("Idempotency-Key", key) }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out, opts...)
}

// Do sends a JSON request and decodes the response into out (which may be
// nil). A top-level {"data": ...} envelope is unwrapped.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any, opts ...RequestOption) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	raw, _, err := c.send(req)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	token, ok := TokenFromContext(ctx)
	if !ok && c.tokens != nil {
		if token, err = c.tokens.Token(ctx); err != nil {
			return nil, fmt.Errorf("apiclient: token: %w", err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send executes req and returns the body of a 2xx response.
func (c *Client) send(req *http.Request) ([]byte, http.Header, error) {
	start := time.Now()
	route := normalizeRoute(req.URL.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(req.Method, route, 0, start)
		c.logger.Warn("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close() //nolint: errcheck

	raw, err := io.ReadAll(resp.Body)
	c.observe(req.Method, route, resp.StatusCode, start)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.Info("backend returned error",
			"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, nil, apiErr
	}
	c.logger.Debug("backend request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))
	return raw, resp.Header, nil
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, route, status, time.Since(start))
	}
}

var envelopeKeys = map[string]struct{}{
	"data": {}, "success": {}, "status": {}, "statusCode": {}, "message": {},
	"meta": {}, "timestamp": {}, "pagination": {},
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// unwrap returns the "data" member when raw is an envelope object, that is
// an object with a data key and no keys beyond the envelope's own.
func unwrap(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return raw
	}
	data, ok := obj["data"]
	if !ok {
		return raw
	}
	for k := range obj {
		if _, known := envelopeKeys[k]; !known {
			return raw
		}
	}
	return data
}

var idSegment = regexp.MustCompile(`^([0-9a-fA-F-]{16,}|[0-9]+|[A-Za-z]+_[A-Za-z0-9]+)$`)

// normalizeRoute replaces identifier segments with ":id" to keep metric
// labels bounded.
func normalizeRoute(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if idSegment.MatchString(p) && !isVersion(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isVersion(s string) bool {
	return len(s) >= 2 && s[0] == 'v' && strings.Trim(s[1:], "0123456789") == ""
}
