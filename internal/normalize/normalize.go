// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package normalize extracts a short neutral headline and a capped list of
// atomic facts from a post plus its URL and
// image context, via a JSON-only LLM prompt.
package normalize

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/newsclust/internal/llm"
)

// FallbackHeadline is used when the model returns no headline and the post
// has no facts to fall back to either.
const FallbackHeadline = "No significant development reported."

const systemPrompt = `You extract factual content from a social post and its linked article/image context. Respond with a JSON object only, no other text, matching exactly:
{"headline": string, "facts": [string, ...]}
Rules: use only claims present in the input. Facts must be atomic (one claim each) and independently meaningful out of context. Preserve tickers and numbers exactly as written. Do not speculate or infer beyond the given text. If no factual development is present, return an empty facts array and a short neutral headline.`

type extractionResponse struct {
	Headline string   `json:"headline"`
	Facts    []string `json:"facts"`
}

// Input is the context assembled for one post's normalization prompt.
type Input struct {
	PostText     string
	URLContents  []string
	ImageSummaries []string
}

// Result is the normalized headline and deduped, capped fact list.
type Result struct {
	Headline string
	Facts    []string
}

// Options bounds headline length and fact count, mirroring the closed
// normalize-LLM configuration.
type Options struct {
	Model          string
	MaxFacts       int
	HeadlineMaxLen int
}

// Normalize calls the normalize LLM with input's assembled context and
// returns the parsed, bounded result. Returns an error only when the
// model call itself fails, every JSON extraction strategy fails, or the
// extracted JSON does not decode into the expected shape; callers
// should treat that as a retryable failure for the post.
func Normalize(ctx context.Context, client *llm.Client, opts Options, input Input) (Result, error) {
	if strings.TrimSpace(input.PostText) == "" && len(input.ImageSummaries) == 0 {
		return Result{Headline: FallbackHeadline}, nil
	}

	prompt := buildPrompt(input)

	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model:        opts.Model,
		SystemPrompt: systemPrompt,
		Text:         prompt,
		Temperature:  0,
		MaxTokens:    700,
		JSONResponse: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("normalize: llm call: %w", err)
	}

	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return Result{}, fmt.Errorf("normalize: extract json: %w", err)
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return Result{}, fmt.Errorf("normalize: decode json: %w", err)
	}

	maxFacts := opts.MaxFacts
	if maxFacts <= 0 {
		maxFacts = 12
	}
	maxLen := opts.HeadlineMaxLen
	if maxLen <= 0 {
		maxLen = 240
	}

	facts := dedupeFacts(parsed.Facts, maxFacts)
	headline := resolveHeadline(parsed.Headline, facts, maxLen)

	return Result{Headline: headline, Facts: facts}, nil
}

func buildPrompt(input Input) string {
	var b strings.Builder
	b.WriteString("Post text:\n")
	b.WriteString(input.PostText)
	for i, content := range input.URLContents {
		fmt.Fprintf(&b, "\n\nLinked article %d:\n%s", i+1, content)
	}
	for i, summary := range input.ImageSummaries {
		fmt.Fprintf(&b, "\n\nImage %d summary:\n%s", i+1, summary)
	}
	return b.String()
}

func dedupeFacts(facts []string, maxFacts int) []string {
	seen := make(map[string]struct{}, len(facts))
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		trimmed := strings.TrimSpace(f)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
		if len(out) >= maxFacts {
			break
		}
	}
	return out
}

func resolveHeadline(headline string, facts []string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(headline), " ")
	if collapsed == "" {
		if len(facts) > 0 {
			collapsed = facts[0]
		} else {
			collapsed = FallbackHeadline
		}
	}
	if len(collapsed) > maxLen {
		collapsed = collapsed[:maxLen]
	}
	return collapsed
}
