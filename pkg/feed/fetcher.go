// Package feed fetches configured news sources and normalizes their items
// into article drafts. RSS and Atom feeds are parsed with gofeed; sources
// declared as html fall back to scraping headline anchors.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaitech/newspulse/pkg/domain"
)

// DefaultUserAgent identifies the crawler to upstream feeds
const DefaultUserAgent = "NewsPulse-Crawler/1.0"

// Fetcher retrieves and parses news sources
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with a bounded per-request timeout
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves a single source and returns its article drafts. Drafts
// carry the raw feed category; normalization and scoring happen at the
// call site. A network error, non-2xx status or unparsable payload fails
// this source only.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Article, error) {
	body, err := f.get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", src.Name, err)
	}
	defer body.Close()

	if src.Type == "html" {
		articles, err := parseHTML(body, src, time.Now())
		if err != nil {
			return nil, fmt.Errorf("parse html source %s: %w", src.Name, err)
		}
		return articles, nil
	}

	articles, err := parseRSS(body, src, time.Now())
	if err != nil {
		return nil, fmt.Errorf("parse feed source %s: %w", src.Name, err)
	}
	return articles, nil
}

// get performs the HTTP GET with the crawler user agent
func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
