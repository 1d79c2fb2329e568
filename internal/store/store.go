// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package store

import (
	"context"
	"time"
)

// Store is the persistence surface consumed by every pipeline stage. It is
// implemented by internal/store/pgstore against Postgres+pgvector; stage
// packages depend on this interface, not the concrete adapter.
type Store interface {
	PostStore
	ClusterStore
	RunStore
	Close()
}

// UpsertResult reports, for a batch upsert, which rows were newly inserted
// versus already present. Ingest uses this to decide which posts to emit
// preprocess events for, rather than re-deriving that set with a separate
// select against a table a concurrent ingest may already be writing to.
type UpsertResult struct {
	Inserted []Post
}

// PostStore covers posts and their enrichment rows.
type PostStore interface {
	// UpsertPosts inserts posts that are new by ExternalID and silently
	// ignores duplicates, returning only the rows actually inserted.
	UpsertPosts(ctx context.Context, posts []Post) (UpsertResult, error)
	UpsertPostURLs(ctx context.Context, urls []PostURL) error
	UpsertPostImages(ctx context.Context, images []PostImage) error
	UpsertPostVideos(ctx context.Context, videos []PostVideo) error

	GetPost(ctx context.Context, postID int64) (Post, error)
	GetPostsByExternalIDs(ctx context.Context, externalIDs []string) ([]Post, error)

	// GetPostsNeedingNormalize returns, from the given candidate post ids,
	// those whose normalized_headline is still null.
	GetPostsNeedingNormalize(ctx context.Context, postIDs []int64) ([]int64, error)

	// PendingPostURLs returns post-urls with null content, for the URL
	// enricher, up to limit rows.
	PendingPostURLs(ctx context.Context, limit int) ([]PostURL, error)
	SetPostURLContent(ctx context.Context, id int64, content, rawHTML string) error

	// PendingPostImages returns post-images with a null category, for the
	// vision enricher, up to limit rows.
	PendingPostImages(ctx context.Context, limit int) ([]PostImage, error)
	SetPostImageClassification(ctx context.Context, id int64, category string, warrantsFinancial bool) error
	SetPostImageSummary(ctx context.Context, id int64, summary string) error

	// PostNormalizeContext loads a post plus up to three earliest non-error
	// URL contents and all image summaries, for the normalizer prompt.
	PostNormalizeContext(ctx context.Context, postID int64) (Post, []string, []string, error)
	SetPostNormalized(ctx context.Context, postID int64, headline string, facts []string) error

	// PostsNeedingEmbedding returns post ids with a non-null headline and a
	// null embedding (or, when backfill is true, all normalized posts).
	PostsNeedingEmbedding(ctx context.Context, limit int, backfill bool) ([]int64, error)
	SetPostEmbedding(ctx context.Context, postID int64, embedding []float32) error
}

// ClusterStore covers clusters, membership, merges, and feedback.
type ClusterStore interface {
	// EmbeddingCandidates returns posts eligible for the on-the-fly
	// clustering pass: non-null embedding, latest version, not
	// retweet/reply/quote, created at or after since.
	EmbeddingCandidates(ctx context.Context, since time.Time) ([]EmbeddingCandidate, error)

	GetCluster(ctx context.Context, clusterID int64) (Cluster, error)
	// ClusterOwnerCounts returns, for the given post ids, the persistent
	// cluster each currently belongs to (if any) — used for the plurality
	// vote in cluster-sync Step B.
	ClusterOwnerCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	// WindowMembers returns the post ids currently assigned to clusterID
	// that fall within the sync window (created at or after since).
	WindowMembers(ctx context.Context, clusterID int64, since time.Time) ([]int64, error)

	CreateCluster(ctx context.Context, firstSeen, lastSeen time.Time, memberPostIDs []int64) (int64, error)
	RemoveClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error
	AddClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error
	// AssignedClusterIDs returns the subset of postIDs already assigned to
	// any cluster.
	AssignedClusterIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error)

	RecomputeClusterStats(ctx context.Context, clusterID int64, minTweets, minUsers int) error
	DeactivateStaleClusters(ctx context.Context, idleSince time.Time) ([]int64, error)

	ListActiveClusters(ctx context.Context, lastSeenSince time.Time, limit int) ([]Cluster, error)
	// ReloadUnmerged re-reads clusters guarding against a concurrent merge;
	// clusters already merged away are omitted from the result.
	ReloadUnmerged(ctx context.Context, clusterIDs []int64) ([]Cluster, error)
	MergeCluster(ctx context.Context, sourceID, targetID int64, reason string) error

	ClusterMemberPosts(ctx context.Context, clusterID int64, limit int) ([]Post, error)
	SetClusterReviewed(ctx context.Context, clusterID int64, reviewedAt time.Time) error

	AddClusterFeedback(ctx context.Context, clusterID int64, label string) error
	ClusterFeedbackCounts(ctx context.Context, clusterID int64) (FeedbackCounts, error)
}

// RunStore covers the operator health view.
type RunStore interface {
	RecordFunctionRun(ctx context.Context, functionID string, state string, details string) error
	LatestRuns(ctx context.Context, limit int) ([]IngestionRun, error)
}
