// Package capability provides the contract to the external services tools
// are backed by. Adapters are consumed as black boxes: a generic JSON over
// HTTP client with a connection test and a service info probe.
package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config is one capability block from the server configuration.
type Config struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Enabled        bool   `yaml:"enabled"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Options describe how a specific service expects to be spoken to.
type Options struct {
	// APIKeyHeader carries the key as a request header (e.g. "X-Api-Key").
	APIKeyHeader string

	// APIKeyQuery carries the key as a query parameter instead.
	APIKeyQuery string

	// StatusPath is probed by TestConnection and ServiceInfo.
	StatusPath string
}

const defaultTimeout = 15 * time.Second

// Client is a JSON-over-HTTP client for one capability. Each request
// carries its own deadline; retry policy belongs to the caller.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	opts    Options
	http    *http.Client
}

// NewClient creates a Client for the named capability.
func NewClient(name string, cfg Config, opts Options) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		opts:    opts,
		http:    &http.Client{Timeout: timeout},
	}
}

// Name returns the capability name the client was built for.
func (c *Client) Name() string {
	return c.name
}

// Do performs one JSON request against the service. A non-2xx status is an
// error carrying the response body head for diagnostics. out may be nil
// when the response body is irrelevant.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.opts.APIKeyQuery != "" && c.apiKey != "" {
		query.Set(c.opts.APIKeyQuery, c.apiKey)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIKeyHeader != "" && c.apiKey != "" {
		req.Header.Set(c.opts.APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w", c.name, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s %s: status %d: %s", c.name, method, path, resp.StatusCode, strings.TrimSpace(string(head)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// TestConnection probes the service's status endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, c.opts.StatusPath, nil, nil, nil)
}

// ServiceInfo returns the raw status payload of the service.
func (c *Client) ServiceInfo(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if err := c.Do(ctx, http.MethodGet, c.opts.StatusPath, nil, nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}
