// Package hmis is the REST client for the hospital management system that
// owns invoices, payment modes and receipts.
package hmis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is read for its message
const maxErrorBody = 64 << 10

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// UpstreamError is a non-2xx response from the HMIS.
type UpstreamError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("hmis: %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// HTTPStatus returns the upstream status code
func (e *UpstreamError) HTTPStatus() int { return e.Status }

// UserMessage returns the message the HMIS gave for the failure
func (e *UpstreamError) UserMessage() string { return e.Message }

// ErrorCode implements shared.Coded
func (e *UpstreamError) ErrorCode() string {
	if e.Status == http.StatusNotFound {
		return shared.ErrNotFound.Code
	}
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return shared.ErrUnauthorized.Code
	}
	return shared.ErrUpstream.Code
}

// Is lets errors.Is match the shared sentinels by code
func (e *UpstreamError) Is(target error) bool {
	var de *shared.DomainError
	if errors.As(target, &de) {
		return de.Code == e.ErrorCode()
	}
	return false
}

type authKey struct{}

// WithAuthorization stores the caller's Authorization header so every HMIS
// call made with ctx is authenticated as the caller.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authKey{}, header)
}

// AuthorizationFrom returns the header stored by WithAuthorization
func AuthorizationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(authKey{}).(string); ok {
		return v
	}
	return ""
}

// Client talks to the HMIS REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.PaymentMetrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithMetrics records request latency
func WithMetrics(m *telemetry.PaymentMetrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("hmis: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("hmis: base url %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, accept string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("hmis: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reqBody)
	if err != nil {
		return nil, fmt.Errorf("hmis: failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	if auth := AuthorizationFrom(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(ctx, path, 0, time.Since(start))
		c.logger.Warn("HMIS request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("hmis: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstream(ctx, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upErr := &UpstreamError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw, resp.Status),
		}
		c.logger.Warn("HMIS returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", upErr.Message),
		)
		return nil, upErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hmis: failed to read response: %w", err)
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, query, nil, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("hmis: failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := c.do(ctx, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("hmis: failed to decode %s: %w", path, err)
	}
	return nil
}

// getList decodes either a bare JSON array or a paginated {"results": [...]}
// envelope into out.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("hmis: failed to decode %s: %w", path, err)
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("hmis: failed to decode %s: %w", path, err)
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

// errorMessage pulls a human message out of an error body. It prefers the
// detail, message and error fields, then the first field error, then the raw
// body, then the HTTP status text.
func errorMessage(body []byte, status string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if msg := flatten(fields[key]); msg != "" {
				return msg
			}
		}
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if msg := flatten(fields[key]); msg != "" {
				return key + ": " + msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 300 && !strings.HasPrefix(text, "<") {
		return text
	}
	return status
}

func flatten(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	return ""
}
