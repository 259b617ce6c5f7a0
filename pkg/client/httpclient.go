package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultUserAgent     = "roomsync"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// HttpClient talks JSON to roomsync itself (roomctl) and to the external
// billing service. Only requests that are safe to repeat are retried: GETs
// and POSTs carrying an Idempotency-Key.
type HttpClient struct {
	baseURL      string
	http         *http.Client
	headers      map[string]string
	userAgent    string
	maxRetries   int
	retryBackoff time.Duration
}

type Option func(*HttpClient)

func WithHeader(key, value string) Option {
	return func(c *HttpClient) { c.headers[key] = value }
}

func WithUserAgent(userAgent string) Option {
	return func(c *HttpClient) { c.userAgent = userAgent }
}

// WithRetries retries transport errors and 502/503/504 up to n extra times,
// waiting backoff, 2*backoff, ... between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *HttpClient) {
		c.maxRetries = n
		c.retryBackoff = backoff
	}
}

func NewHttpClient(baseURL string, timeout time.Duration, opts ...Option) *HttpClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &HttpClient{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
		headers:   make(map[string]string),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage extracts the message from an error envelope, falling back to
// the error code and then the raw status.
func (r *Response) ErrorMessage() string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := r.DecodeJSON(&envelope); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}

	switch {
	case envelope.Message != "":
		return envelope.Message
	case envelope.Error != "":
		return envelope.Error
	case envelope.Code != "":
		return envelope.Code
	}
	if r.Response != nil {
		return r.Status
	}
	return ""
}

func (c *HttpClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.send(ctx, http.MethodGet, path, nil, nil)
}

// Post is never retried.
func (c *HttpClient) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, path, body, nil)
}

// PostIdempotent sends key as the Idempotency-Key header, which makes the
// request eligible for retries.
func (c *HttpClient) PostIdempotent(ctx context.Context, path string, body any, key string) (*Response, error) {
	return c.send(ctx, http.MethodPost, path, body, map[string]string{IdempotencyKeyHeader: key})
}

func (c *HttpClient) send(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	retries := 0
	if method == http.MethodGet || headers[IdempotencyKeyHeader] != "" {
		retries = c.maxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, method, path, payload, body != nil, headers)
		if attempt >= retries || !retryable(resp, err) {
			return resp, err
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return nil, err
			}
			return resp, nil
		case <-time.After(c.retryBackoff * time.Duration(attempt+1)):
		}
	}
}

func retryable(resp *Response, err error) bool {
	if err != nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *HttpClient) do(ctx context.Context, method, path string, payload []byte, hasBody bool, headers map[string]string) (*Response, error) {
	var reqBody io.Reader
	if hasBody {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: respBody}, nil
}
