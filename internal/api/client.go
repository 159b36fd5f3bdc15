// Package api is the HTTP client for the PG management REST API.
//
// Every call issues exactly one request. Nothing is cached and nothing is
// retried; failures come back as one of the tagged error types in
// errors.go.
package api

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
	"golang.org/x/oauth2"
)

const maxResponseBytes = 8 << 20

// Config holds the connection settings for a Client.
type Config struct {
	BaseURL   string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
	PageSize  int           `validate:"min=1,max=100"`
	UserAgent string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: "hostelctl",
		Timeout:   30 * time.Second,
		PageSize:  20,
	}
}

// Client talks to the PG API.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	tokenSource  oauth2.TokenSource
	scope        ScopeProvider
	newRequestID func() string
	userAgent    string
	pageSize     int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTokenSource authenticates every request with a bearer token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// WithToken authenticates every request with a fixed bearer token.
func WithToken(token string) Option {
	return WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// WithScope sets the provider for scope headers.
func WithScope(p ScopeProvider) Option {
	return func(c *Client) {
		c.scope = p
	}
}

// WithRequestIDs overrides how X-Request-Id values are generated.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		c.newRequestID = fn
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:      base,
		pageSize:     cfg.PageSize,
		userAgent:    cfg.UserAgent,
		scope:        StaticScope{},
		newRequestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if c.tokenSource != nil {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *c.httpClient
		authed.Transport = &oauth2.Transport{Source: c.tokenSource, Base: base}
		c.httpClient = &authed
	}

	return c, nil
}

// PageSize is the default number of items requested per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// do performs one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx response.
func (c *Client) do(ctx context.Context, method, resource string, query url.Values, body, out any) error {
	endpoint := c.baseURL.JoinPath(resource)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	path := "/" + strings.TrimLeft(resource, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	scope, err := c.scope.Scope(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve request scope: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set(HeaderRequestID, c.newRequestID())
	scope.Apply(req.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return &ServerError{Status: http.StatusUnauthorized, Message: "unable to obtain access token", Path: path}
		}
		if isSessionError(err) {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		return transportError(ctx, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(ctx, method, path, err)
	}

	slog.Debug("API request completed",
		"method", method,
		"path", path,
		"query", endpoint.RawQuery,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", req.Header.Get(HeaderRequestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data, path)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && failed(probe.Success) {
		return decodeError(resp.StatusCode, data, path)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &UnknownError{Err: fmt.Errorf("failed to decode %s %s response: %w", method, path, err)}
	}
	return nil
}
