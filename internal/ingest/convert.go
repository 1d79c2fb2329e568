// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package ingest

import (
	"github.com/tomtom215/newsclust/internal/search"
	"github.com/tomtom215/newsclust/internal/store"
)

// dedupeByExternalID keeps the first occurrence of each external id, the
// way a single provider page can repeat a post across overlapping queries
// in the same union batch.
func dedupeByExternalID(posts []search.RawPost) []search.RawPost {
	seen := make(map[string]struct{}, len(posts))
	out := make([]search.RawPost, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ExternalID]; ok {
			continue
		}
		seen[p.ExternalID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// toStoreRow converts a RawPost to its canonical post-row shape. Every
// ingested post is treated as the latest version of its own canonical id —
// edit-chain reconciliation is out of scope for the ingest stage.
func toStoreRow(p search.RawPost) store.Post {
	return store.Post{
		ExternalID:      p.ExternalID,
		CanonicalID:     p.ExternalID,
		IsLatestVersion: true,
		AuthorHandle:    p.AuthorHandle,
		CreatedAt:       p.CreatedAt,
		RawText:         p.Text,
		QuotedText:      p.QuotedText,
		Impressions:     p.Impressions,
		Likes:           p.Likes,
		Retweets:        p.Retweets,
		Quotes:          p.Quotes,
		Bookmarks:       p.Bookmarks,
		Replies:         p.Replies,
		IsRetweet:       p.IsRetweet,
		IsReply:         p.IsReply,
		IsQuote:         p.IsQuote,
	}
}

// externalIDToRaw indexes raw posts by external id, so enrichment rows for
// an inserted post (images/urls/videos) can be looked up after the store
// reports which external ids were actually new.
func externalIDToRaw(posts []search.RawPost) map[string]search.RawPost {
	m := make(map[string]search.RawPost, len(posts))
	for _, p := range posts {
		m[p.ExternalID] = p
	}
	return m
}
