// Package api is a typed client for the board's public HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/samvad-hq/samvad-board-client/pkg/httpclient"
)

const defaultTimeout = 15 * time.Second

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// HTTPError is returned for non-2xx responses. Error returns Message verbatim.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// RequestOptions overrides the defaults of a single request.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Client talks to one board. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	env  Environment
	http httpclient.Client
	log  Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(h httpclient.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger used for startup and failure logs.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a Client for env and logs the environment summary.
func NewClient(env Environment, opts ...Option) (*Client, error) {
	if env == nil {
		return nil, errors.New("api: environment is required")
	}
	c := &Client{env: env, log: noopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(httpclient.Options{Timeout: defaultTimeout})
	}
	c.log.DebugObj("api client configured", "api_environment", env.Describe())
	return c, nil
}

// Request performs a request against endpoint and decodes the JSON response into T.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (T, error) {
	var out T
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()
	err := c.do(ctx, method, endpoint, opts, &out)
	observeRequest(method, err, time.Since(start))
	if err != nil {
		c.log.ErrorObj("api request failed", "api_error", map[string]any{
			"method":   method,
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts RequestOptions, out any) error {
	req := httpclient.Request{
		Method:  method,
		URL:     c.env.Endpoint(endpoint),
		Headers: c.headers(opts.Headers),
	}
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		req.Body = payload
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Header().Get(httpcache.XFromCache) != "" {
		c.log.DebugObj("api response served from cache", "api_cache", map[string]any{
			"method":   method,
			"endpoint": endpoint,
		})
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return newHTTPError(status, resp.Body())
	}
	return decodeJSON(resp.Body(), out)
}

// headers layers the JSON default, the environment's auth headers and the
// caller's headers, later layers winning.
func (c *Client) headers(override map[string]string) map[string]string {
	auth := c.env.AuthHeaders()
	merged := make(map[string]string, 1+len(auth)+len(override))
	// Keys within a layer are applied in sorted order so names that differ
	// only in case resolve the same way on every call.
	layer := func(h map[string]string) {
		for _, k := range slices.Sorted(maps.Keys(h)) {
			merged[http.CanonicalHeaderKey(k)] = h[k]
		}
	}
	merged["Content-Type"] = "application/json"
	layer(auth)
	layer(override)
	return merged
}

func newHTTPError(status int, body []byte) *HTTPError {
	var payload struct {
		Error string `json:"error"`
	}
	msg := ""
	if err := decodeStrict(body, &payload); err == nil {
		msg = payload.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &HTTPError{StatusCode: status, Message: msg}
}

func decodeJSON(body []byte, out any) error {
	if err := decodeStrict(body, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// decodeStrict decodes exactly one JSON value from body. Trailing data other
// than whitespace is an error.
func decodeStrict(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected data after JSON value")
		}
		return fmt.Errorf("unexpected data after JSON value: %w", err)
	}
	return nil
}

// decodeError marks a 2xx response whose body is not the expected JSON.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }
