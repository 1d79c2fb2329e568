// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package curate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

// batchCharBudget is the target content size per LLM call: headline plus up
// to three facts per cluster, summed across the batch.
const batchCharBudget = 12000

// maxFactsPerCluster caps how many facts are shown per cluster in a batch,
// keeping the per-call budget predictable regardless of how many facts
// normalize produced.
const maxFactsPerCluster = 3

const mergeSystemPrompt = `You review a list of news clusters, each with an id, headline, and a few supporting facts. Find clusters that describe the exact same specific event — not merely the same general topic, company, or person. Different jurisdictions, different time periods, or a follow-up development are NOT the same event and must not be merged. Respond with a JSON object only, no other text, matching exactly:
{"merge_groups": [{"cluster_ids": [int, ...], "reason": string}, ...]}
Only include groups of two or more cluster ids you are confident describe the same event. Return {"merge_groups": []} if none qualify.`

// MergeGroup is one LLM-proposed set of clusters describing the same event.
type MergeGroup struct {
	ClusterIDs []int64 `json:"cluster_ids"`
	Reason     string  `json:"reason"`
}

type mergeGroupsResponse struct {
	MergeGroups []MergeGroup `json:"merge_groups"`
}

// ProposeMerges batches groups into LLM calls targeting batchCharBudget
// characters of cluster content each, and returns every merge group the
// model proposes across all calls. A batch whose response fails all three
// JSON extraction strategies or schema validation is an invariant
// violation (design note: "LLM as an oracle with untrusted output") — it is
// logged and treated as a no-op rather than failing the whole pass.
func ProposeMerges(ctx context.Context, client *llm.Client, model string, groups [][]store.Cluster, logger zerolog.Logger) ([]MergeGroup, error) {
	var all []MergeGroup

	var batch []store.Cluster
	batchLen := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		proposed, err := proposeMergesForBatch(ctx, client, model, batch)
		if err != nil {
			if isUnparseableResponse(err) {
				logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("curate: merge proposal no-op after unparseable response")
				batch = nil
				batchLen = 0
				return nil
			}
			return err
		}
		all = append(all, proposed...)
		batch = nil
		batchLen = 0
		return nil
	}

	for _, group := range groups {
		for _, c := range group {
			block := clusterBlock(c)
			if batchLen > 0 && batchLen+len(block) > batchCharBudget {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			batch = append(batch, c)
			batchLen += len(block)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return all, nil
}

func clusterBlock(c store.Cluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%d headline=%q facts=[", c.ID, c.NormalizedHeadline)
	facts := c.NormalizedFacts
	if len(facts) > maxFactsPerCluster {
		facts = facts[:maxFactsPerCluster]
	}
	for i, f := range facts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", f)
	}
	b.WriteString("]\n")
	return b.String()
}

// unparseableResponseError marks a response that failed JSON extraction or
// schema validation — an invariant violation the caller treats as a no-op
// rather than a retryable failure.
type unparseableResponseError struct{ err error }

func (e *unparseableResponseError) Error() string { return e.err.Error() }
func (e *unparseableResponseError) Unwrap() error  { return e.err }

func isUnparseableResponse(err error) bool {
	var target *unparseableResponseError
	return errors.As(err, &target)
}

func proposeMergesForBatch(ctx context.Context, client *llm.Client, model string, batch []store.Cluster) ([]MergeGroup, error) {
	var b strings.Builder
	for _, c := range batch {
		b.WriteString(clusterBlock(c))
	}

	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model:        model,
		SystemPrompt: mergeSystemPrompt,
		Text:         b.String(),
		Temperature:  0,
		MaxTokens:    1500,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("curate: propose merges: %w", err)
	}

	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, &unparseableResponseError{fmt.Errorf("curate: extract merge response: %w", err)}
	}

	var parsed mergeGroupsResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return nil, &unparseableResponseError{fmt.Errorf("curate: parse merge response: %w", err)}
	}

	var valid []MergeGroup
	for _, g := range parsed.MergeGroups {
		if len(g.ClusterIDs) >= 2 {
			valid = append(valid, g)
		}
	}
	return valid, nil
}
