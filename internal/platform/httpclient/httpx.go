// Package httpclient is the HTTP primitive exposed to plugins: proxy-aware,
// per-host rate limited, with optional retries owned by the calling plugin.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reconflow/internal/platform/errors"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/rate"
)

// maxBodySize bounds how much of a response body is buffered.
const maxBodySize = 10 << 20

// Client is an HTTP client with retry, per-host rate limiting and proxy support.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Group
	logger     logx.Logger
	config     Config
}

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the request timeout duration.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 0 (plugins opt in)
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Default: 500ms
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the exponential backoff.
	// Default: 10 seconds
	MaxRetryBackoff time.Duration

	// UserAgent is the User-Agent header value.
	UserAgent string

	// ProxyURL routes every request through an HTTP(S) proxy when set.
	ProxyURL string

	// VerifyTLS enables certificate verification. Recon targets often run
	// self-signed certificates, so it is off by default.
	VerifyTLS bool

	// NoRedirects returns 3xx responses as-is.
	NoRedirects bool

	// RateLimit is the maximum requests per second per host. 0 = no limit.
	RateLimit      float64
	RateLimitBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 10 * time.Second,
		UserAgent:       "Mozilla/5.0 (compatible; reconflow/1.0)",
		RateLimitBurst:  1,
	}
}

// Request describes one HTTP call.
type Request struct {
	Method  string
	URL     string
	Params  map[string]string
	Headers map[string]string
	Body    string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// New creates a new HTTP client with the given configuration.
func New(config Config, logger logx.Logger) (*Client, error) {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = def.RetryBackoff
	}
	if config.MaxRetryBackoff <= 0 {
		config.MaxRetryBackoff = def.MaxRetryBackoff
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 1
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !config.VerifyTLS} //nolint:gosec
	if config.ProxyURL != "" {
		proxy, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "proxy url %q", config.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
	if config.NoRedirects {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewGroup(config.RateLimit, config.RateLimitBurst),
		logger:     logger.With("component", "http"),
		config:     config,
	}, nil
}

// Do performs req with rate limiting and retries, and buffers the body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := buildURL(req.URL, req.Params)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx, target.Host); err != nil {
			return nil, errors.Wrap(err, "rate limit wait failed")
		}

		resp, err := c.once(ctx, method, target.String(), req)
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.Errorf("HTTP %d", resp.StatusCode)
			if attempt == c.config.MaxRetries {
				return resp, nil
			}
		}

		if attempt < c.config.MaxRetries {
			c.logger.Debug("retrying request", "url", target.Redacted(), "attempt", attempt+1, "error", lastErr)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, errors.Wrap(err, "backoff interrupted")
			}
		}
	}
	return nil, errors.Wrapf(lastErr, "%s %s failed after %d attempts", method, target.Redacted(), c.config.MaxRetries+1)
}

func (c *Client) once(ctx context.Context, method, target string, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s %s", method, target)
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return nil, errors.Wrap(errors.ErrTimeout, err.Error())
		}
		return nil, errors.Wrap(errors.ErrConnectionFailed, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	c.logger.Debug("HTTP response",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		URL:        resp.Request.URL.String(),
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params})
}

// Post performs a POST request with a form or raw body.
func (c *Client) Post(ctx context.Context, rawURL, body string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Body: body, Headers: headers})
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// backoff implements exponential backoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	d := c.config.RetryBackoff * time.Duration(math.Pow(2, float64(attempt)))
	if d > c.config.MaxRetryBackoff {
		d = c.config.MaxRetryBackoff
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildURL(raw string, params map[string]string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "url %q", raw)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// CheckStatus maps an unsuccessful status to a sentinel error.
func CheckStatus(resp *Response) error {
	if resp == nil {
		return errors.ErrInvalidResponse
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return errors.ErrRateLimit
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.ErrUnauthorized
	default:
		return errors.Errorf("HTTP %d", resp.StatusCode)
	}
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{timeout=%s, max_retries=%d, rate_limit=%.1f/s, proxy=%t}",
		c.config.Timeout,
		c.config.MaxRetries,
		c.config.RateLimit,
		c.config.ProxyURL != "",
	)
}
