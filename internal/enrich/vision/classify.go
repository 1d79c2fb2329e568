// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package vision classifies post images into a closed category set via a
// vision LLM, flagging those that warrant a financial-analysis follow-up,
// then summarizes the warranted ones.
package vision

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

// ErrorCategory is persisted when classification fails outright, so the
// image is never retried and never blocks normalization.
const ErrorCategory = store.ImageCategoryError

// categories is the closed set a classification must fall into.
var categories = map[string]struct{}{
	store.ImageCategoryLogo:         {},
	store.ImageCategoryPerson:       {},
	store.ImageCategoryPlace:        {},
	store.ImageCategoryNewsHeadline: {},
	store.ImageCategoryChart:        {},
	store.ImageCategoryTable:        {},
	store.ImageCategoryTweet:        {},
	store.ImageCategoryDocument:     {},
	store.ImageCategoryArticle:      {},
	store.ImageCategoryOther:        {},
}

const classifySystemPrompt = `You classify a single image attached to a social post. Respond with a JSON object only, no other text, matching exactly:
{"image_category": string, "warrants_financial_analysis": boolean, "brief_description": string, "reason": string}
image_category must be exactly one of: logo, person, place, news_headline, chart, table, tweet, document, article, other.
warrants_financial_analysis is true only when the image is a chart, table, news headline, document, article, or tweet carrying financial content (prices, tickers, earnings, macro data).`

type classifyResponse struct {
	ImageCategory              string `json:"image_category"`
	WarrantsFinancialAnalysis bool   `json:"warrants_financial_analysis"`
	BriefDescription           string `json:"brief_description"`
	Reason                     string `json:"reason"`
}

// ClassifyResult is the outcome of classifying one image.
type ClassifyResult struct {
	Category          string
	WarrantsFinancial bool
	BriefDescription  string
}

// Classify calls the vision LLM with imageURL and the surrounding post text
// as context, returning a category from the closed set. A call or parse
// failure returns ErrorCategory rather than an error, so the caller can
// persist it and move on.
func Classify(ctx context.Context, client *llm.Client, model, postText, imageURL string) ClassifyResult {
	prompt := fmt.Sprintf("Post text for context:\n%s", postText)

	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model:        model,
		SystemPrompt: classifySystemPrompt,
		Text:         prompt,
		ImageURL:     imageURL,
		Temperature:  0,
		MaxTokens:    300,
		JSONResponse: true,
	})
	if err != nil {
		return ClassifyResult{Category: ErrorCategory}
	}

	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return ClassifyResult{Category: ErrorCategory}
	}

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return ClassifyResult{Category: ErrorCategory}
	}

	if _, ok := categories[parsed.ImageCategory]; !ok {
		return ClassifyResult{Category: ErrorCategory}
	}

	warrants := parsed.WarrantsFinancialAnalysis && store.FinancialAnalysisCategories[parsed.ImageCategory]

	return ClassifyResult{
		Category:          parsed.ImageCategory,
		WarrantsFinancial: warrants,
		BriefDescription:  parsed.BriefDescription,
	}
}

const summarySystemPrompt = `Summarize this image in 1-3 sentences for a financial news reader, using the post text only as context for what the image is about. Respond with plain text, no JSON, no preamble.`

// Summarize produces a 1-3 sentence summary of imageURL for images marked
// WarrantsFinancial. Returns an empty string on failure; callers skip
// storing a summary in that case rather than blocking normalization.
func Summarize(ctx context.Context, client *llm.Client, model, postText, imageURL string) string {
	prompt := fmt.Sprintf("Post text for context:\n%s", postText)

	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model:        model,
		SystemPrompt: summarySystemPrompt,
		Text:         prompt,
		ImageURL:     imageURL,
		Temperature:  0,
		MaxTokens:    200,
	})
	if err != nil {
		return ""
	}
	return raw
}
