// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package urlfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/tomtom215/newsclust/internal/config"
)

// NotExtractable is stored in place of article text when readability
// cannot find a main-content block, so the row is not retried forever.
const NotExtractable = "Could not extract readable content"

// maxBodyBytes caps how much of a response body we read, guarding against
// a misbehaving host streaming an unbounded response.
const maxBodyBytes = 4 << 20

// Fetcher fetches and extracts readable article text for post URLs,
// falling back through a configured proxy chain (final entry treated as
// the premium-proxy tier) when the direct fetch fails.
type Fetcher struct {
	direct      *http.Client
	proxyChain  []*http.Client
	userAgent   string
}

// New builds a Fetcher from scraping-proxy configuration. Direct requests
// always use cfg.UserAgent; each entry in cfg.ProxyURLs becomes one
// fallback tier, tried in order.
func New(cfg config.ScrapingProxyConfig) (*Fetcher, error) {
	f := &Fetcher{
		userAgent: cfg.UserAgent,
		direct: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("urlfetch: stopped after 10 redirects")
				}
				return nil
			},
		},
	}

	if !cfg.Enabled {
		return f, nil
	}

	for _, proxyURL := range cfg.ProxyURLs {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("urlfetch: parse proxy url %q: %w", proxyURL, err)
		}
		f.proxyChain = append(f.proxyChain, &http.Client{
			Timeout: cfg.FetchTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(parsed),
			},
		})
	}

	return f, nil
}

// Result is the outcome of fetching and extracting one URL.
type Result struct {
	Content string
	RawHTML string
}

// Fetch retrieves pageURL (direct, then each proxy tier in order on
// failure), extracts readable text via go-readability, and collapses
// paragraphs into single-spaced lines joined by blank lines. The returned
// error is non-nil only once every tier has failed; callers store the
// sentinel "Error fetching content: <message>" in that case.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Result, error) {
	clients := append([]*http.Client{f.direct}, f.proxyChain...)

	var lastErr error
	for _, client := range clients {
		rawHTML, err := f.doFetch(ctx, client, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		content := f.extract(rawHTML, pageURL)
		return Result{Content: content, RawHTML: rawHTML}, nil
	}

	return Result{}, fmt.Errorf("urlfetch: all fetch tiers failed for %s: %w", pageURL, lastErr)
}

func (f *Fetcher) doFetch(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (f *Fetcher) extract(rawHTML, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return NotExtractable
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return NotExtractable
	}

	return collapseParagraphs(article.TextContent)
}

// collapseParagraphs joins paragraphs as single-spaced lines separated by
// one blank line, trimming intra-paragraph whitespace runs.
func collapseParagraphs(text string) string {
	rawParagraphs := strings.Split(text, "\n")
	var paragraphs []string
	for _, p := range rawParagraphs {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// ErrorSentinel formats the failure sentinel stored when every fetch tier
// fails, so the row is not retried forever.
func ErrorSentinel(err error) string {
	return fmt.Sprintf("Error fetching content: %s", err.Error())
}
