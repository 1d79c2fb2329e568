// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package review prunes outlier members from a single cluster, triggered
// per cluster-sync's review event: present the cluster headline and its
// member posts to an LLM, remove whatever it flags, recompute stats, and
// stamp the cluster reviewed.
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

// skipRecentWindow is the minimum time since a cluster's last review before
// it is eligible to be reviewed again.
const skipRecentWindow = 30 * time.Minute

// minMembersToReview is the smallest cluster size worth reviewing for
// outliers at all.
const minMembersToReview = 3

// maxMembersLoaded caps how many member posts are loaded and shown to the
// LLM per review.
const maxMembersLoaded = 30

const reviewSystemPrompt = `You review the member posts of one news cluster for outliers that do not actually belong: posts about a different event, off-topic replies, or spam. You are given the cluster headline and each member post's id and text. Respond with a JSON object only, no other text, matching exactly:
{"remove": [int, ...]}
Only list post ids that clearly do not belong. Return {"remove": []} if every post belongs.`

type removeResponse struct {
	Remove []int64 `json:"remove"`
}

// ProposeRemovals asks the LLM which of members' post ids do not belong in
// a cluster with the given headline, returning the ids to remove. Returns
// an empty slice, not an error, on any call or parse failure, so a review
// failure never blocks the reviewed_at stamp.
func ProposeRemovals(ctx context.Context, client *llm.Client, model, headline string, members []store.Post) []int64 {
	var b strings.Builder
	fmt.Fprintf(&b, "Cluster headline: %s\n\nMembers:\n", headline)
	for _, m := range members {
		fmt.Fprintf(&b, "id=%d text=%q\n", m.ID, m.RawText)
	}

	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model:        model,
		SystemPrompt: reviewSystemPrompt,
		Text:         b.String(),
		Temperature:  0,
		MaxTokens:    500,
		JSONResponse: true,
	})
	if err != nil {
		return nil
	}

	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil
	}

	var parsed removeResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return nil
	}
	return parsed.Remove
}
