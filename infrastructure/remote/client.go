// Package remote provides HTTP clients for the backend documentation services.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 60 * time.Second

type authorizationKey struct{}

// WithAuthorization stores the Authorization header value to forward to
// backend services.
func WithAuthorization(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, authorizationKey{}, value)
}

// Authorization returns the forwarded Authorization header value, if any.
func Authorization(ctx context.Context) string {
	if v, ok := ctx.Value(authorizationKey{}).(string); ok {
		return v
	}
	return ""
}

// ServiceError is a non-success answer from a backend service.
type ServiceError struct {
	Service    string
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation string, statusCode int, message string, err error) *ServiceError {
	return &ServiceError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Service, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Config configures a backend client.
type Config struct {
	BaseURL     string
	SecureToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// client is the shared plumbing of every backend client.
type client struct {
	service     string
	baseURL     string
	secureToken string
	httpClient  *http.Client
}

func newClient(service string, cfg Config) client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return client{
		service:     service,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secureToken: cfg.SecureToken,
		httpClient:  httpClient,
	}
}

// endpoint joins the base URL with escaped path segments.
func (c client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c client) authorize(ctx context.Context, req *http.Request) {
	if v := Authorization(ctx); v != "" {
		req.Header.Set("Authorization", v)
		return
	}
	if c.secureToken != "" {
		req.Header.Set("Authorization", "SecureToken "+c.secureToken)
	}
}

// do sends a request and returns the status code and full body.
// Transport failures are returned as *ServiceError without a status code.
func (c client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, NewServiceError(c.service, op, 0, "failed to create request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, NewServiceError(c.service, op, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, NewServiceError(c.service, op, resp.StatusCode, "failed to read response", err)
	}
	return resp.StatusCode, respBody, nil
}

// doJSON sends a request and decodes a JSON answer into out when out is
// non-nil. Any non-2xx status is returned as *ServiceError.
func (c client) doJSON(ctx context.Context, op, method, target string, body io.Reader, contentType string, out any) error {
	status, respBody, err := c.do(ctx, op, method, target, body, contentType)
	if err != nil {
		return err
	}
	if !successful(status) {
		return NewServiceError(c.service, op, status, strings.TrimSpace(string(respBody)), nil)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return NewServiceError(c.service, op, status, "failed to unmarshal response", err)
	}
	return nil
}

func successful(status int) bool {
	return status >= 200 && status < 300
}

// statusOf returns the status code carried by a *ServiceError, or 0.
func statusOf(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}
	return 0
}
