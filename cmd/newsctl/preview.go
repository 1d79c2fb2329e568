// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/newsclust/internal/embed"
	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/normalize"
	"github.com/tomtom215/newsclust/internal/vector"
)

var previewCmd = &cobra.Command{
	Use:   "embedding-story-preview",
	Short: "Preview normalize+embed output for recent posts under a candidate model",
	Long: `Runs the normalize and embed stages against recently ingested posts
using a candidate --model (applied to both stages) and --provider (which
retargets only the embedding endpoint), without persisting anything, and
reports how far the resulting headline embedding sits (by cosine similarity)
from the post's currently stored embedding. A low similarity means the
candidate model would meaningfully reshuffle clustering if rolled out.`,
	RunE: runPreview,
}

// providerBaseURLs maps the closed provider enumeration to its default
// OpenAI-compatible endpoint, so --provider alone is enough to retarget the
// embedding client without also requiring --base-url.
var providerBaseURLs = map[string]string{
	"google":     "https://generativelanguage.googleapis.com/v1beta/openai",
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"portkey":    "https://api.portkey.ai/v1",
}

func init() {
	previewCmd.Flags().Float64("min-similarity", 0.85,
		"similarity below this flags a post as materially reshuffled by the candidate model")
}

type previewRow struct {
	PostID              int64   `json:"post_id"`
	CurrentHeadline     string  `json:"current_headline"`
	CandidateHeadline   string  `json:"candidate_headline"`
	CosineToCurrent     float64 `json:"cosine_to_current"`
	BelowMinSimilarity  bool    `json:"below_min_similarity"`
}

type previewSnapshot struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	Provider      string       `json:"provider"`
	EmbedModel    string       `json:"embed_model"`
	NormalizeModel string      `json:"normalize_model"`
	MinSimilarity float64      `json:"min_similarity"`
	Rows          []previewRow `json:"rows"`
}

func runPreview(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hours := flagInt(cmd, "hours")
	limit := flagInt(cmd, "limit")
	provider := flagString(cmd, "provider")
	model := flagString(cmd, "model")
	minSimilarity, _ := cmd.Flags().GetFloat64("min-similarity")
	out := flagString(cmd, "out")

	embedBaseURL := cfg.Embedding.BaseURL
	embedModel := cfg.Embedding.Model
	if provider != "" {
		if u, ok := providerBaseURLs[provider]; ok {
			embedBaseURL = u
		}
	}
	if model != "" {
		embedModel = model
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	candidates, err := st.EmbeddingCandidates(ctx, since)
	if err != nil {
		return fmt.Errorf("load embedding candidates: %w", err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	embedClient := embed.New(embedBaseURL, cfg.Embedding.APIKey, embedModel, cfg.Embedding.Dimensions, cfg.Embedding.Timeout)
	normalizeClient := llm.New(cfg.NormalizeLLM.BaseURL, cfg.NormalizeLLM.APIKey, cfg.NormalizeLLM.Timeout)
	normalizeModel := cfg.NormalizeLLM.Model
	if model != "" {
		normalizeModel = model
	}

	rows := make([]previewRow, 0, len(candidates))
	for _, candidate := range candidates {
		post, err := st.GetPost(ctx, candidate.PostID)
		if err != nil {
			continue
		}

		result, err := normalize.Normalize(ctx, normalizeClient, normalize.Options{
			Model:          normalizeModel,
			MaxFacts:       cfg.NormalizeLLM.MaxFacts,
			HeadlineMaxLen: cfg.NormalizeLLM.HeadlineMaxLen,
		}, normalize.Input{PostText: post.RawText})
		if err != nil {
			continue
		}

		candidateEmbedding, err := embedClient.Embed(ctx, result.Headline)
		if err != nil {
			continue
		}

		similarity := vector.Cosine(candidateEmbedding, candidate.Embedding)
		currentHeadline := ""
		if post.NormalizedHeadline != nil {
			currentHeadline = *post.NormalizedHeadline
		}

		rows = append(rows, previewRow{
			PostID:             candidate.PostID,
			CurrentHeadline:    currentHeadline,
			CandidateHeadline:  result.Headline,
			CosineToCurrent:    similarity,
			BelowMinSimilarity: similarity < minSimilarity,
		})
	}

	printPreviewTable(cmd, rows)

	snapshot := previewSnapshot{
		GeneratedAt:    time.Now(),
		Provider:       provider,
		EmbedModel:     embedModel,
		NormalizeModel: normalizeModel,
		MinSimilarity:  minSimilarity,
		Rows:           rows,
	}
	path, err := writeSnapshot(out, "embedding-story-preview", snapshot.GeneratedAt, snapshot)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "snapshot written to", path)
	return nil
}

func printPreviewTable(cmd *cobra.Command, rows []previewRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "POST ID\tCOSINE\tFLAG\tCANDIDATE HEADLINE")
	for _, r := range rows {
		flag := ""
		if r.BelowMinSimilarity {
			flag = "RESHUFFLED"
		}
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.PostID, r.CosineToCurrent, flag, truncate(r.CandidateHeadline, 80))
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
