// Package client is the request/response transport of the Fleetdeck data
// layer. It hides envelope handling, bearer-token injection and the timeout
// policy from callers, and raises a single normalized error type for every
// failure mode. It never retries; retry policy belongs to callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds each request unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response body is read. 4 MB covers every
// documented endpoint.
const maxBodySize = 4 << 20

// TokenSource supplies the bearer token for outgoing requests. It is read
// fresh per request so a logout or re-login during an in-flight call is
// observed on the next one. An empty string means unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken adapts a fixed token string to TokenSource.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// Query holds GET parameters. Nil values are omitted entirely; all others
// are stringified and URL-encoded.
type Query map[string]any

func (q Query) encode() string {
	if len(q) == 0 {
		return ""
	}
	vals := url.Values{}
	for k, v := range q {
		if v == nil {
			continue
		}
		vals.Set(k, fmt.Sprint(v))
	}
	if len(vals) == 0 {
		return ""
	}
	return "?" + vals.Encode()
}

// Client is the Fleetdeck API transport.
type Client struct {
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource sets the credential source consulted per request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New creates an API transport rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource rebinds the credential source. The session manager is
// constructed after the transport it calls through, so the binding happens
// in a second step.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// Get issues a GET for path with optional query parameters, decoding the
// unwrapped payload into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, q Query, out any) error {
	return c.do(ctx, http.MethodGet, path+q.encode(), nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE, with an optional JSON body.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, body, out)
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("encode request body: %v", err), Kind: KindProtocol}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Message: fmt.Sprintf("create request: %v", err), Kind: KindProtocol}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Message: "Request timeout", Kind: KindTimeout}
		}
		return &Error{Message: err.Error(), Kind: KindNetwork}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr != nil {
		if errors.Is(readErr, context.DeadlineExceeded) {
			return &Error{Message: "Request timeout", Kind: KindTimeout}
		}
		return &Error{Message: readErr.Error(), Kind: KindNetwork}
	}

	// 204 carries nothing decodable; out keeps its zero value.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	pl, perr := decodeBody(resp.StatusCode, respBody)
	if perr != nil {
		return perr
	}
	if out == nil || pl.variant == payloadEmpty || len(pl.data) == 0 {
		return nil
	}
	// Decode failures on a success response are swallowed: a non-JSON 200
	// passes through as an absent body rather than an error.
	_ = json.Unmarshal(pl.data, out) //nolint:errcheck
	return nil
}
