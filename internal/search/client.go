// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/newsclust/internal/config"
)

// RawPost is a single post as returned by the upstream post search,
// before conversion to a store.Post row.
type RawPost struct {
	ExternalID    string         `json:"external_id"`
	AuthorHandle  string         `json:"author_handle"`
	Text          string         `json:"text"`
	QuotedText    *string        `json:"quoted_text,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Impressions   int64          `json:"impressions"`
	Likes         int64          `json:"likes"`
	Retweets      int64          `json:"retweets"`
	Quotes        int64          `json:"quotes"`
	Bookmarks     int64          `json:"bookmarks"`
	Replies       int64          `json:"replies"`
	IsRetweet     bool           `json:"is_retweet"`
	IsReply       bool           `json:"is_reply"`
	IsQuote       bool           `json:"is_quote"`
	ImageURLs     []string       `json:"image_urls,omitempty"`
	URLs          []string       `json:"urls,omitempty"`
	VideoVariants []VideoVariant `json:"video_variants,omitempty"`
}

// VideoVariant is one resolution variant of a post's attached video.
type VideoVariant struct {
	Resolution string `json:"resolution"`
	URL        string `json:"url"`
}

// SearchPage is one page of search results plus pagination state.
type SearchPage struct {
	Posts      []RawPost `json:"posts"`
	NextCursor string    `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

// Client calls the upstream post search endpoint: author-timeline union
// queries for the author-batch worker, and keyword queries for the keyword
// worker. It retries HTTP 429 with capped exponential backoff, honoring a
// Retry-After header when present.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
}

// NewClient builds a Client from post-source configuration.
func NewClient(cfg config.PostSourceConfig) *Client {
	qps := cfg.RequestsPerSecond
	if qps <= 0 {
		qps = 2
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries:     5,
		retryBaseDelay: 750 * time.Millisecond,
		limiter:        rate.NewLimiter(rate.Limit(qps), 1),
	}
}

// SearchByQuery issues one page of a search query, resuming from cursor
// (empty for the first page).
func (c *Client) SearchByQuery(ctx context.Context, query, cursor string) (SearchPage, error) {
	reqURL := fmt.Sprintf("%s/2/search?query=%s", c.baseURL, url.QueryEscape(query))
	if cursor != "" {
		reqURL += "&cursor=" + url.QueryEscape(cursor)
	}

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return SearchPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SearchPage{}, fmt.Errorf("search: upstream status %d: %s", resp.StatusCode, string(body))
	}

	var page SearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return SearchPage{}, fmt.Errorf("search: decode response: %w", err)
	}
	return page, nil
}

// doRequestWithRateLimit performs an HTTP request with automatic 429
// handling, exponential backoff starting at retryBaseDelay and doubling
// each attempt, up to maxRetries.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("search: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search: request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("search: rate limited after %d retries", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, parseErr := time.ParseDuration(retryAfter + "s"); parseErr == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}
