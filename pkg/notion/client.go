// Package notion is a thin client for the page-creation endpoint.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/notion-clipper/models"
)

const DefaultBaseURL = "https://api.notion.com/v1"

var ErrMissingToken = errors.New("notion: integration token is not set")

// APIError is a non-2xx reply decoded from the API's error object.
type APIError struct {
	Status     int           `json:"status"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports rate limiting and server-side failures.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsImageRejection reports a validation failure caused by an image block,
// typically an external URL the API refuses to fetch.
func (e *APIError) IsImageRejection() bool {
	if e.Status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "image")
}

// transportError marks a failure before any response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// PageResponse is the subset of the created page object we keep.
type PageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client struct {
	Token   string
	BaseURL string
	Version string
	HTTP    *http.Client
	Logger  *slog.Logger
	Policy  Policy
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") }
}

func WithVersion(v string) Option {
	return func(c *Client) { c.Version = v }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

func WithPolicy(p Policy) Option {
	return func(c *Client) { c.Policy = p }
}

// New returns a client with a 30s timeout and the default retry policy.
func New(token string, opts ...Option) *Client {
	c := &Client{
		Token:   token,
		BaseURL: DefaultBaseURL,
		Version: models.DefaultNotionVersion,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  slog.Default(),
		Policy:  DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePage submits req, retrying per c.Policy.
func (c *Client) CreatePage(ctx context.Context, req *CreatePageRequest) (*PageResponse, error) {
	if c.Token == "" {
		return nil, ErrMissingToken
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page request: %w", err)
	}

	var page *PageResponse
	err = c.Policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			c.logger().Warn("retrying page creation", "attempt", attempt)
		}
		created, postErr := c.post(ctx, "/pages", body)
		if postErr != nil {
			return postErr
		}
		page = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*PageResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	httpReq.Header.Set("Notion-Version", c.Version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.Status = resp.StatusCode
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return nil, apiErr
	}

	var page PageResponse
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page response: %w", err)
	}
	return &page, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
