package apiclient

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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/metrics"
)

const maxResponseBytes = 4 << 20

// TokenSource yields the bearer token for outgoing calls. An empty token means anonymous.
type TokenSource interface {
	Token() string
}

type tokenCtxKey struct{}

// WithToken pins the bearer token for calls made with ctx, overriding the TokenSource.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
		logger:     logger,
		metrics:    m,
	}, nil
}

// UseTokenSource sets where the bearer token comes from, normally the session store.
func (c *Client) UseTokenSource(src TokenSource) {
	c.tokens = src
}

func (c *Client) token(ctx context.Context) string {
	if t, ok := ctx.Value(tokenCtxKey{}).(string); ok {
		return t
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do performs one call. endpoint is a low-cardinality label such as "GET privilege/user".
func (c *Client) do(ctx context.Context, method, path, endpoint string, body, out interface{}) error {
	target := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := internal.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(endpoint, 0, time.Since(start))
		c.logger.Warn("backend request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveBackend(endpoint, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend returned error status",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"request_id", requestID)
		return &internal.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       json.RawMessage(raw),
		}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &internal.DecodeError{Endpoint: endpoint, Cause: errors.New("empty response body")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &internal.DecodeError{Endpoint: endpoint, Cause: err}
	}
	return nil
}

func (c *Client) check(endpoint string, v interface{}) error {
	if err := c.validate.Struct(v); err != nil {
		return &internal.DecodeError{Endpoint: endpoint, Cause: err}
	}
	return nil
}

func getList[T any](ctx context.Context, c *Client, path, endpoint string) ([]T, error) {
	var items []T
	if err := c.do(ctx, http.MethodGet, path, endpoint, nil, &items); err != nil {
		return nil, err
	}
	for i := range items {
		if err := c.check(endpoint, &items[i]); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Ping reports whether the backend answers at all. Any HTTP status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "", "GET /", nil, nil)
	var apiErr *internal.APIError
	if err == nil || errors.As(err, &apiErr) {
		return nil
	}
	return err
}
