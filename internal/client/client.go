package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized matches any *APIError with status 401
var ErrUnauthorized = errors.New("unauthorized")

// TokenProvider supplies the bearer token for each request. It is asked on
// every call, so a provider may refresh tokens as they expire.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a TokenProvider that always returns itself
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int    `json:"-"`
	Kind       string `json:"error"`
	Message    string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Kind)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	rc     *resty.Client
	tokens TokenProvider
}

type Option func(*resty.Client)

func WithTimeout(d time.Duration) Option {
	return func(rc *resty.Client) { rc.SetTimeout(d) }
}

// WithRetries retries idempotent requests that failed at the transport level.
// POST is never resent: the server may already have created the record.
func WithRetries(n int) Option {
	return func(rc *resty.Client) {
		rc.SetRetryCount(n).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(retryIdempotent)
	}
}

func retryIdempotent(resp *resty.Response, err error) bool {
	if err == nil || resp == nil || resp.Request == nil {
		return false
	}
	switch resp.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// New creates a client for the API at baseURL. tokens may be nil when the
// server runs without authentication.
func New(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(rc)
	}

	c := &Client{rc: rc, tokens: tokens}
	rc.OnBeforeRequest(c.authorize)
	return c
}

func (c *Client) authorize(_ *resty.Client, req *resty.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx).SetError(&APIError{})
}

func (c *Client) send(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr, _ := resp.Error().(*APIError)
	if apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Kind == "" {
		apiErr.Kind = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.send(c.request(ctx).SetResult(&out), http.MethodGet, "/health")
	return out, err
}
