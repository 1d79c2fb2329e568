// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package llm is a minimal client for OpenAI-compatible chat-completion
// endpoints (OpenRouter, Portkey), used for the normalize and vision
// enrichment stages. No response parsing beyond JSON envelope decoding
// lives here; extraction of the model's JSON payload is the caller's job.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// Client issues chat-completion requests against a single OpenAI-compatible
// base URL. Every call site (normalize, vision, curate, review) shares the
// same breaker per Client instance, since they share the same upstream and
// the same failure mode: a flaky provider should trip once rather than let
// four independent retry loops hammer it in parallel.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// New builds a Client for the given base URL, API key, and per-request
// timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		breaker:    newBreaker(baseURL),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// ImageContent is an image part of a user message, referenced by URL.
type ImageContent struct {
	URL string
}

// ChatRequest is a single chat-completion call. Text is always sent;
// ImageURL, when set, is attached as an image_url content part alongside
// Text in the same user message.
type ChatRequest struct {
	Model          string
	SystemPrompt   string
	Text           string
	ImageURL       string
	Temperature    float64
	MaxTokens      int
	JSONResponse   bool
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string      `json:"type"`
	ImageURL imageURLRef `json:"image_url"`
}

type imageURLRef struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues req and returns the first choice's raw message content.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := []chatMessage{}
	if req.SystemPrompt != "" {
		sysContent, err := json.Marshal(req.SystemPrompt)
		if err != nil {
			return "", fmt.Errorf("llm: marshal system prompt: %w", err)
		}
		messages = append(messages, chatMessage{Role: "system", Content: sysContent})
	}

	userContent, err := buildUserContent(req.Text, req.ImageURL)
	if err != nil {
		return "", err
	}
	messages = append(messages, chatMessage{Role: "user", Content: userContent})

	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONResponse {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequestWithRetry(ctx, payload)
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: response had no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildUserContent(text, imageURL string) (json.RawMessage, error) {
	if imageURL == "" {
		return json.Marshal(text)
	}
	parts := []any{
		textPart{Type: "text", Text: text},
		imagePart{Type: "image_url", ImageURL: imageURLRef{URL: imageURL}},
	}
	return json.Marshal(parts)
}

// doRequestWithRetry retries on 429, on transport errors and on body-read
// errors, sleeping 1s, 2s, 4s, ... plus up to 250ms of jitter before each
// retry; any other non-200 status fails at once. Waits are cancellable via
// ctx.
func (c *Client) doRequestWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			delay += time.Duration(rand.Int63n(int64(250 * time.Millisecond))) //nolint:gosec
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("llm: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("llm: rate limited (attempt %d)", attempt+1)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("llm: upstream status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("llm: exhausted retries: %w", lastErr)
}
