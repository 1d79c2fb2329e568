// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package embed requests a clustering-task embedding for a post's
// normalized headline and stores the resulting
// vector, skipping posts that already have one unless backfill is
// requested.
package embed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Client calls an OpenAI-compatible embeddings endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	maxRetries int
}

// New builds a Client from embedding-provider connection settings.
func New(baseURL, apiKey, model string, dimensions int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

type embeddingRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Dimensions     int    `json:"dimensions,omitempty"`
	EncodingFormat string `json:"encoding_format,omitempty"`
	TaskType       string `json:"task_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed requests a clustering-task embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:      c.model,
		Input:      text,
		Dimensions: c.dimensions,
		TaskType:   "clustering",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	respBody, err := c.doRequestWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embed: response had no embeddings")
	}
	return parsed.Data[0].Embedding, nil
}

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

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("embed: build request: %w", err)
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
			lastErr = fmt.Errorf("embed: rate limited (attempt %d)", attempt+1)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embed: upstream status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("embed: exhausted retries: %w", lastErr)
}
