// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package store defines the persistence surface for posts, clusters, and
// their supporting rows. The Store interface decouples the pipeline stages
// from the concrete database; internal/store/pgstore is the pgx/v5-backed
// adapter used in production.
package store

import "time"

// Post is a social-media item ingested from the post source.
//
// CanonicalID is the id of the first version of an edited post; it equals
// ExternalID for never-edited posts. At most one row per CanonicalID has
// IsLatestVersion set.
type Post struct {
	ID                int64
	ExternalID        string
	CanonicalID       string
	IsLatestVersion   bool
	AuthorHandle      string
	CreatedAt         time.Time
	RawText           string
	QuotedText        *string
	Impressions       int64
	Likes             int64
	Retweets          int64
	Quotes            int64
	Bookmarks         int64
	Replies           int64
	IsRetweet         bool
	IsReply           bool
	IsQuote           bool
	NormalizedHeadline *string
	NormalizedFacts    []string
	HeadlineEmbedding  []float32
}

// Engagement is the weighted engagement score used by the story read model
// and by cluster headline/fact selection ("strongest engagement" member).
func (p Post) Engagement() float64 {
	return float64(p.Likes) + 2*float64(p.Retweets) + 1.5*float64(p.Quotes) + float64(p.Replies) + 0.2*float64(p.Bookmarks)
}

// PostURL is a URL referenced by a post, with optionally extracted content.
type PostURL struct {
	ID      int64
	PostID  int64
	URL     string
	Content *string
	RawHTML *string
}

// Post-image enrichment sentinels and categories.
const (
	ImageCategoryError        = "error"
	ImageCategoryLogo         = "logo"
	ImageCategoryPerson       = "person"
	ImageCategoryPlace        = "place"
	ImageCategoryNewsHeadline = "news_headline"
	ImageCategoryChart        = "chart"
	ImageCategoryTable        = "table"
	ImageCategoryTweet        = "tweet"
	ImageCategoryDocument     = "document"
	ImageCategoryArticle      = "article"
	ImageCategoryOther        = "other"
)

// FinancialAnalysisCategories holds the image categories for which a
// financial-analysis summary is warranted when warrants_financial_analysis
// is also reported true by the vision classifier.
var FinancialAnalysisCategories = map[string]bool{
	ImageCategoryChart:        true,
	ImageCategoryTable:        true,
	ImageCategoryNewsHeadline: true,
	ImageCategoryDocument:     true,
	ImageCategoryArticle:      true,
	ImageCategoryTweet:        true,
}

// PostImage is an image attached to a post.
type PostImage struct {
	ID                        int64
	PostID                    int64
	ImageURL                  string
	Category                  *string
	WarrantsFinancialAnalysis bool
	Summary                   *string
}

// PostVideo is a diagnostic projection of media variants, not consumed by
// the clustering core.
type PostVideo struct {
	ID         int64
	PostID     int64
	Resolution string
	VariantURL string
}

// Cluster is a long-lived story grouping.
type Cluster struct {
	ID                 int64
	FirstSeenAt        time.Time
	LastSeenAt         time.Time
	NormalizedHeadline string
	NormalizedFacts    []string
	TweetCount         int
	UniqueUserCount    int
	IsStoryCandidate   bool
	IsActive           bool
	MergedIntoClusterID *int64
	LastSyncedAt       time.Time
	ReviewedAt         *time.Time
}

// ClusterMember maps a post to the cluster it belongs to. A post belongs to
// at most one cluster at a time.
type ClusterMember struct {
	ClusterID int64
	PostID    int64
}

// ClusterMerge is an append-only record of a directional merge.
type ClusterMerge struct {
	ID              int64
	SourceClusterID int64
	TargetClusterID int64
	Reason          string
	CreatedAt       time.Time
}

// Feedback labels accepted on a cluster.
const (
	FeedbackUseful     = "useful"
	FeedbackNoise      = "noise"
	FeedbackBadCluster = "bad_cluster"
)

// ClusterFeedback is a user-supplied label on a cluster.
type ClusterFeedback struct {
	ID        int64
	ClusterID int64
	Label     string
	CreatedAt time.Time
}

// FeedbackCounts aggregates feedback rows for one cluster.
type FeedbackCounts struct {
	Useful     int
	Noise      int
	BadCluster int
}

// Penalty computes feedback_penalty = max(0, noise + bad_cluster - useful).
func (f FeedbackCounts) Penalty() float64 {
	p := float64(f.Noise+f.BadCluster) - float64(f.Useful)
	if p < 0 {
		return 0
	}
	return p
}

// IngestionRun records a terminal outcome for an ingest batch, keyed by the
// scheduled function that produced it, backing the operator health view.
type IngestionRun struct {
	ID         int64
	FunctionID string
	State      string
	Details    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// EmbeddingCandidate is the minimal projection of a post needed for the
// cluster-sync stored-procedure equivalent (internal/store/pgvector).
type EmbeddingCandidate struct {
	PostID       int64
	AuthorHandle string
	CreatedAt    time.Time
	Embedding    []float32
}
