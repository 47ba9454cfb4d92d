package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/notion-clipper/pkg/caching"
)

// MaxBodyBytes caps how much of a page is read.
const MaxBodyBytes = 10 << 20

const userAgent = "notion-clipper/1.0 (+https://github.com/dtnitsch/notion-clipper)"

type Fetcher struct {
	client *http.Client
	cache  *caching.Cache
	logger *slog.Logger
}

// NewFetcher returns a fetcher; cache may be nil.
func NewFetcher(cache *caching.Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache,
		logger: logger,
	}
}

// GetHtml fetches url and returns its body as a string.
func (f *Fetcher) GetHtml(ctx context.Context, url string) (string, error) {
	body, err := f.GetHtmlBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetHtmlBytes fetches url, consulting the cache first.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.cache.Get(url); ok {
		f.logger.Debug("cache hit", "url", url)
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := f.cache.Set(url, bodyBytes); err != nil {
		f.logger.Warn("failed to cache page", "url", url, "error", err)
	}
	return bodyBytes, nil
}
