// Package httpclient provides the authenticated, retrying HTTP client base
// shared by every collector service. Auth material (headers and body fields)
// is resolved once and merged into each outgoing request, and failed attempts
// are classified and retried per the retry policy.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/collectorkit/collectorkit/internal/metrics"
	"github.com/collectorkit/collectorkit/pkg/errors"
	"github.com/collectorkit/collectorkit/pkg/retry"
)

// DefaultTimeout applies to each attempt unless overridden per call.
const DefaultTimeout = 60 * time.Second

// Options carries per-call overrides. Header entries win over persistent auth
// headers on key collisions; body fields win over persistent auth body
// fields.
type Options struct {
	Query   url.Values
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// Response is the raw outcome of a successful request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Config configures a Client.
type Config struct {
	// BaseURL is the scheme://host[:port] prefix of every request. A trailing
	// slash is trimmed.
	BaseURL string

	// Auth supplies the persistent auth material. Defaults to NoAuth.
	Auth AuthProvider

	// Policy controls retry classification and backoff. Zero value applies
	// the package defaults (10 attempts, 500ms base delay).
	Policy retry.Policy

	// Timeout applies per attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying transport, mainly for tests.
	HTTPClient *http.Client

	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// Client is the authenticated HTTP client base. Safe for concurrent use.
type Client struct {
	baseURL    string
	auth       AuthProvider
	httpClient *http.Client
	retryer    *retry.Retryer
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Registry

	mu       sync.Mutex
	material *AuthMaterial
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = NoAuth()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		auth:       cfg.Auth,
		httpClient: cfg.HTTPClient,
		retryer:    retry.New(cfg.Policy),
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request executes one authenticated request through the retry loop and
// returns the raw response.
//
// The final URL is baseURL + "/" + endpoint; an endpoint that itself starts
// with a slash therefore produces a double slash, which is preserved rather
// than normalized. A terminal response outside the 2xx range yields an
// INVALID_RESPONSE error carrying the endpoint and status; a retry loop
// exhausted by network failures returns the last transport error unchanged.
func (c *Client) Request(ctx context.Context, method, endpoint string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	method = strings.ToUpper(method)

	material, err := c.resolveAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve auth material: %w", err)
	}

	reqURL := c.baseURL + "/" + endpoint
	if len(opts.Query) > 0 {
		reqURL += "?" + opts.Query.Encode()
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range material.Headers {
		headers[k] = v
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	var payload []byte
	if body := mergeBody(material.Body, opts.Body); body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	retryer := c.retryer.WithOnRetry(func(attempt int, attemptErr error, delay time.Duration) {
		c.metrics.RecordRetry(method)
		c.logger.Warn("request attempt failed, retrying",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(attemptErr))
	})

	start := time.Now()
	attempts := 0
	var resp *Response
	err = retryer.Do(ctx, func(ctx context.Context) error {
		attempts++
		c.metrics.RecordAttempt(method)
		c.logger.Debug("sending request",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempts))

		r, attemptErr := c.do(ctx, method, reqURL, headers, payload, timeout)
		if attemptErr != nil {
			return attemptErr
		}
		if r.Status < 200 || r.Status >= 300 {
			return errors.NewInvalidResponse(endpoint, r.Status)
		}
		resp = r
		return nil
	})

	c.metrics.RecordOutcome(method, err == nil, time.Since(start))
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("request completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.Status),
		zap.Int("attempts", attempts))
	return resp, nil
}

// do performs a single attempt with its own timeout.
func (c *Client) do(ctx context.Context, method, reqURL string, headers map[string]string, payload []byte, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: data}, nil
}

// resolveAuth resolves the persistent auth material on first use and caches
// it. A failed resolution is not cached, so the next request retries it.
func (c *Client) resolveAuth(ctx context.Context) (AuthMaterial, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.material != nil {
		return *c.material, nil
	}
	material, err := c.auth.Resolve(ctx)
	if err != nil {
		return AuthMaterial{}, err
	}
	c.material = &material
	return material, nil
}

// mergeBody overlays the per-call body onto the persistent auth body. When
// both are maps the auth fields go first and per-call fields win; any other
// per-call body replaces the auth body wholesale.
func mergeBody(authBody map[string]any, callBody any) any {
	if callBody == nil {
		if len(authBody) == 0 {
			return nil
		}
		return authBody
	}
	callMap, ok := callBody.(map[string]any)
	if !ok || len(authBody) == 0 {
		return callBody
	}

	merged := make(map[string]any, len(authBody)+len(callMap))
	for k, v := range authBody {
		merged[k] = v
	}
	for k, v := range callMap {
		merged[k] = v
	}
	return merged
}
