// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/tomtom215/newsclust/internal/store"
	"github.com/tomtom215/newsclust/internal/vector"
)

// EmbeddingCandidates selects posts with a non-null headline embedding,
// latest version, not retweet/reply/quote, created at or after since. The
// pairwise cosine-similarity transitive closure itself runs in Go
// (internal/store/pgvector) rather than procedural SQL.
func (s *Store) EmbeddingCandidates(ctx context.Context, since time.Time) ([]store.EmbeddingCandidate, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, author_handle, created_at, headline_embedding
		FROM posts
		WHERE headline_embedding IS NOT NULL
			AND is_latest_version
			AND NOT is_retweet AND NOT is_reply AND NOT is_quote
			AND created_at >= $1
	`, since)
	recordQuery("select", "posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: embedding candidates: %w", err)
	}
	defer rows.Close()

	var out []store.EmbeddingCandidate
	for rows.Next() {
		var c store.EmbeddingCandidate
		var vec pgvector.Vector
		if err := rows.Scan(&c.PostID, &c.AuthorHandle, &c.CreatedAt, &vec); err != nil {
			return nil, fmt.Errorf("pgstore: scan embedding candidate: %w", err)
		}
		c.Embedding = vec.Slice()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCluster(ctx context.Context, clusterID int64) (store.Cluster, error) {
	start := time.Now()
	var c store.Cluster
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_seen_at, last_seen_at, normalized_headline, normalized_facts,
			tweet_count, unique_user_count, is_story_candidate, is_active,
			merged_into_cluster_id, last_synced_at, reviewed_at
		FROM clusters WHERE id = $1
	`, clusterID).Scan(&c.ID, &c.FirstSeenAt, &c.LastSeenAt, &c.NormalizedHeadline,
		&c.NormalizedFacts, &c.TweetCount, &c.UniqueUserCount, &c.IsStoryCandidate,
		&c.IsActive, &c.MergedIntoClusterID, &c.LastSyncedAt, &c.ReviewedAt)
	if err == pgx.ErrNoRows {
		recordQuery("select", "clusters", start, nil)
		return c, store.ErrNotFound
	}
	recordQuery("select", "clusters", start, err)
	if err != nil {
		return c, fmt.Errorf("pgstore: get cluster: %w", err)
	}
	return c, nil
}

// ClusterOwnerCounts reports, for each post already assigned to a
// persistent cluster, which cluster owns it — the plurality-vote input.
func (s *Store) ClusterOwnerCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT post_id, cluster_id FROM cluster_members WHERE post_id = ANY($1)
	`, postIDs)
	recordQuery("select", "cluster_members", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: cluster owner counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var postID, clusterID int64
		if err := rows.Scan(&postID, &clusterID); err != nil {
			return nil, err
		}
		out[postID] = clusterID
	}
	return out, rows.Err()
}

func (s *Store) WindowMembers(ctx context.Context, clusterID int64, since time.Time) ([]int64, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT cm.post_id FROM cluster_members cm
		JOIN posts p ON p.id = cm.post_id
		WHERE cm.cluster_id = $1 AND p.created_at >= $2
	`, clusterID, since)
	recordQuery("select", "cluster_members", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: window members: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) CreateCluster(ctx context.Context, firstSeen, lastSeen time.Time, memberPostIDs []int64) (int64, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("pgstore: create cluster begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var clusterID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO clusters (first_seen_at, last_seen_at, last_synced_at)
		VALUES ($1, $2, now()) RETURNING id
	`, firstSeen, lastSeen).Scan(&clusterID)
	if err != nil {
		recordQuery("insert", "clusters", start, err)
		return 0, fmt.Errorf("pgstore: create cluster: %w", err)
	}

	batch := &pgx.Batch{}
	for _, postID := range memberPostIDs {
		batch.Queue(`
			INSERT INTO cluster_members (cluster_id, post_id) VALUES ($1, $2)
			ON CONFLICT (post_id) DO NOTHING
		`, clusterID, postID)
	}
	br := tx.SendBatch(ctx, batch)
	for range memberPostIDs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("pgstore: create cluster members: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("pgstore: create cluster members close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("pgstore: create cluster commit: %w", err)
	}
	recordQuery("insert", "clusters", start, nil)
	return clusterID, nil
}

func (s *Store) RemoveClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		DELETE FROM cluster_members WHERE cluster_id = $1 AND post_id = ANY($2)
	`, clusterID, postIDs)
	recordQuery("delete", "cluster_members", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: remove cluster members: %w", err)
	}
	return nil
}

func (s *Store) AddClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	start := time.Now()
	batch := &pgx.Batch{}
	for _, postID := range postIDs {
		batch.Queue(`
			INSERT INTO cluster_members (cluster_id, post_id) VALUES ($1, $2)
			ON CONFLICT (post_id) DO NOTHING
		`, clusterID, postID)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range postIDs {
		if _, err := br.Exec(); err != nil {
			recordQuery("insert", "cluster_members", start, err)
			return fmt.Errorf("pgstore: add cluster members: %w", err)
		}
	}
	recordQuery("insert", "cluster_members", start, nil)
	return nil
}

func (s *Store) AssignedClusterIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	return s.ClusterOwnerCounts(ctx, postIDs)
}

// RecomputeClusterStats recomputes tweet_count, unique_user_count,
// is_story_candidate, headline/facts from the strongest engagement member,
// last_seen_at, last_synced_at. Every member counts toward these stats,
// whatever its author: no blocked-account filter is applied. A cluster with
// zero members becomes inactive.
func (s *Store) RecomputeClusterStats(ctx context.Context, clusterID int64, minTweets, minUsers int) error {
	start := time.Now()

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.author_handle, p.created_at, p.normalized_headline,
			p.normalized_facts, p.likes, p.retweets, p.quotes, p.replies, p.bookmarks,
			p.headline_embedding
		FROM cluster_members cm
		JOIN posts p ON p.id = cm.post_id
		WHERE cm.cluster_id = $1
	`, clusterID)
	if err != nil {
		recordQuery("select", "cluster_members", start, err)
		return fmt.Errorf("pgstore: recompute stats load members: %w", err)
	}

	type member struct {
		authorHandle string
		createdAt    time.Time
		headline     *string
		facts        []string
		engagement   float64
		embedding    []float32
	}
	var members []member
	users := make(map[string]bool)
	var lastSeen time.Time
	for rows.Next() {
		var m member
		var postID int64
		var likes, retweets, quotes, replies, bookmarks int64
		var emb *pgvector.Vector
		if err := rows.Scan(&postID, &m.authorHandle, &m.createdAt, &m.headline, &m.facts,
			&likes, &retweets, &quotes, &replies, &bookmarks, &emb); err != nil {
			rows.Close()
			return fmt.Errorf("pgstore: recompute stats scan: %w", err)
		}
		m.engagement = float64(likes) + 2*float64(retweets) + 1.5*float64(quotes) + float64(replies) + 0.2*float64(bookmarks)
		if emb != nil {
			m.embedding = emb.Slice()
		}
		members = append(members, m)
		users[m.authorHandle] = true
		if m.createdAt.After(lastSeen) {
			lastSeen = m.createdAt
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tweetCount := len(members)
	uniqueUsers := len(users)

	var headline string
	var facts []string
	var bestEngagement = -1.0
	for _, m := range members {
		if m.headline == nil {
			continue
		}
		if m.engagement > bestEngagement {
			bestEngagement = m.engagement
			headline = *m.headline
			facts = m.facts
		}
	}

	isActive := tweetCount > 0
	isStoryCandidate := isActive && tweetCount >= minTweets && uniqueUsers >= minUsers

	// centroid weights each member's embedding by engagement, the same
	// signal used to pick the representative headline above, so a cluster's
	// vector position tracks its most-engaged members rather than drifting
	// toward low-signal noise.
	var embeddings [][]float32
	var weights []float64
	for _, m := range members {
		if m.embedding == nil {
			continue
		}
		embeddings = append(embeddings, m.embedding)
		weights = append(weights, m.engagement)
	}
	var centroid *pgvector.Vector
	if mean := vector.WeightedMean(embeddings, weights); mean != nil {
		v := pgvector.NewVector(mean)
		centroid = &v
	}

	start = time.Now()
	_, err = s.pool.Exec(ctx, `
		UPDATE clusters SET
			tweet_count = $2, unique_user_count = $3, normalized_headline = $4,
			normalized_facts = $5, is_story_candidate = $6, is_active = $7,
			last_seen_at = CASE WHEN $8 THEN $9 ELSE last_seen_at END,
			centroid = $10, last_synced_at = now()
		WHERE id = $1
	`, clusterID, tweetCount, uniqueUsers, headline, facts, isStoryCandidate, isActive,
		!lastSeen.IsZero(), lastSeen, centroid)
	recordQuery("update", "clusters", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: recompute stats update: %w", err)
	}
	return nil
}

func (s *Store) DeactivateStaleClusters(ctx context.Context, idleSince time.Time) ([]int64, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		UPDATE clusters SET is_active = FALSE
		WHERE is_active AND merged_into_cluster_id IS NULL AND last_synced_at < $1
		RETURNING id
	`, idleSince)
	recordQuery("update", "clusters", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: deactivate stale clusters: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveClusters(ctx context.Context, lastSeenSince time.Time, limit int) ([]store.Cluster, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, first_seen_at, last_seen_at, normalized_headline, normalized_facts,
			tweet_count, unique_user_count, is_story_candidate, is_active,
			merged_into_cluster_id, last_synced_at, reviewed_at
		FROM clusters
		WHERE is_active AND merged_into_cluster_id IS NULL AND last_seen_at >= $1
		ORDER BY tweet_count DESC
		LIMIT $2
	`, lastSeenSince, limit)
	recordQuery("select", "clusters", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list active clusters: %w", err)
	}
	defer rows.Close()

	var out []store.Cluster
	for rows.Next() {
		var c store.Cluster
		if err := rows.Scan(&c.ID, &c.FirstSeenAt, &c.LastSeenAt, &c.NormalizedHeadline,
			&c.NormalizedFacts, &c.TweetCount, &c.UniqueUserCount, &c.IsStoryCandidate,
			&c.IsActive, &c.MergedIntoClusterID, &c.LastSyncedAt, &c.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReloadUnmerged re-reads clusters, omitting any already merged away. This
// is the guard re-read required before computing a directional-merge
// target from a fresh snapshot.
func (s *Store) ReloadUnmerged(ctx context.Context, clusterIDs []int64) ([]store.Cluster, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, first_seen_at, last_seen_at, normalized_headline, normalized_facts,
			tweet_count, unique_user_count, is_story_candidate, is_active,
			merged_into_cluster_id, last_synced_at, reviewed_at
		FROM clusters WHERE id = ANY($1) AND merged_into_cluster_id IS NULL
	`, clusterIDs)
	recordQuery("select", "clusters", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: reload unmerged: %w", err)
	}
	defer rows.Close()

	var out []store.Cluster
	for rows.Next() {
		var c store.Cluster
		if err := rows.Scan(&c.ID, &c.FirstSeenAt, &c.LastSeenAt, &c.NormalizedHeadline,
			&c.NormalizedFacts, &c.TweetCount, &c.UniqueUserCount, &c.IsStoryCandidate,
			&c.IsActive, &c.MergedIntoClusterID, &c.LastSyncedAt, &c.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MergeCluster moves members, marks the source merged, and appends a
// merge record, all inside one transaction; target stats are recomputed
// by the caller afterward.
func (s *Store) MergeCluster(ctx context.Context, sourceID, targetID int64, reason string) error {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: merge cluster begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE cluster_members SET cluster_id = $2 WHERE cluster_id = $1
	`, sourceID, targetID); err != nil {
		return fmt.Errorf("pgstore: merge cluster move members: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE clusters SET merged_into_cluster_id = $2, is_active = FALSE
		WHERE id = $1 AND merged_into_cluster_id IS NULL
	`, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("pgstore: merge cluster mark source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyMerged
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cluster_merges (source_cluster_id, target_cluster_id, reason) VALUES ($1, $2, $3)
	`, sourceID, targetID, reason); err != nil {
		return fmt.Errorf("pgstore: merge cluster append record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgstore: merge cluster commit: %w", err)
	}
	recordQuery("update", "clusters", start, nil)
	return nil
}

func (s *Store) ClusterMemberPosts(ctx context.Context, clusterID int64, limit int) ([]store.Post, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.external_id, p.author_handle, p.created_at, p.raw_text,
			p.normalized_headline, p.normalized_facts, p.likes, p.retweets, p.quotes, p.replies, p.bookmarks
		FROM cluster_members cm
		JOIN posts p ON p.id = cm.post_id
		WHERE cm.cluster_id = $1
		ORDER BY p.created_at ASC
		LIMIT $2
	`, clusterID, limit)
	recordQuery("select", "cluster_members", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: cluster member posts: %w", err)
	}
	defer rows.Close()

	var out []store.Post
	for rows.Next() {
		var p store.Post
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.AuthorHandle, &p.CreatedAt, &p.RawText,
			&p.NormalizedHeadline, &p.NormalizedFacts, &p.Likes, &p.Retweets, &p.Quotes,
			&p.Replies, &p.Bookmarks); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SetClusterReviewed(ctx context.Context, clusterID int64, reviewedAt time.Time) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE clusters SET reviewed_at = $2 WHERE id = $1
	`, clusterID, reviewedAt)
	recordQuery("update", "clusters", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set cluster reviewed: %w", err)
	}
	return nil
}

func (s *Store) AddClusterFeedback(ctx context.Context, clusterID int64, label string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cluster_feedback (cluster_id, label) VALUES ($1, $2)
	`, clusterID, label)
	recordQuery("insert", "cluster_feedback", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: add cluster feedback: %w", err)
	}
	return nil
}

func (s *Store) ClusterFeedbackCounts(ctx context.Context, clusterID int64) (store.FeedbackCounts, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT label, count(*) FROM cluster_feedback WHERE cluster_id = $1 GROUP BY label
	`, clusterID)
	recordQuery("select", "cluster_feedback", start, err)
	var fc store.FeedbackCounts
	if err != nil {
		return fc, fmt.Errorf("pgstore: cluster feedback counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return fc, err
		}
		switch label {
		case store.FeedbackUseful:
			fc.Useful = count
		case store.FeedbackNoise:
			fc.Noise = count
		case store.FeedbackBadCluster:
			fc.BadCluster = count
		}
	}
	return fc, rows.Err()
}
