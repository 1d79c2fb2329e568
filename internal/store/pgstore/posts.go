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
)

// UpsertPosts inserts posts that are new by external_id, relying on the
// unique constraint plus ON CONFLICT DO NOTHING so that a retried batch
// never double-inserts and the RETURNING rows are exactly the
// first-inserts.
func (s *Store) UpsertPosts(ctx context.Context, posts []store.Post) (store.UpsertResult, error) {
	start := time.Now()
	var result store.UpsertResult

	batch := &pgx.Batch{}
	for _, p := range posts {
		batch.Queue(`
			INSERT INTO posts (
				external_id, canonical_tweet_id, is_latest_version, author_handle,
				created_at, raw_text, quoted_text, impressions, likes, retweets,
				quotes, bookmarks, replies, is_retweet, is_reply, is_quote
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (external_id) DO NOTHING
			RETURNING id, external_id, canonical_tweet_id, is_latest_version,
				author_handle, created_at, raw_text, quoted_text, impressions,
				likes, retweets, quotes, bookmarks, replies, is_retweet, is_reply, is_quote
		`, p.ExternalID, p.CanonicalID, p.IsLatestVersion, p.AuthorHandle, p.CreatedAt,
			p.RawText, p.QuotedText, p.Impressions, p.Likes, p.Retweets, p.Quotes,
			p.Bookmarks, p.Replies, p.IsRetweet, p.IsReply, p.IsQuote)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range posts {
		row := br.QueryRow()
		var inserted store.Post
		err := row.Scan(&inserted.ID, &inserted.ExternalID, &inserted.CanonicalID,
			&inserted.IsLatestVersion, &inserted.AuthorHandle, &inserted.CreatedAt,
			&inserted.RawText, &inserted.QuotedText, &inserted.Impressions,
			&inserted.Likes, &inserted.Retweets, &inserted.Quotes, &inserted.Bookmarks,
			&inserted.Replies, &inserted.IsRetweet, &inserted.IsReply, &inserted.IsQuote)
		if err == pgx.ErrNoRows {
			continue
		}
		if err != nil {
			recordQuery("insert", "posts", start, err)
			return result, fmt.Errorf("pgstore: upsert posts: %w", err)
		}
		result.Inserted = append(result.Inserted, inserted)
	}

	recordQuery("insert", "posts", start, nil)
	return result, nil
}

func (s *Store) UpsertPostURLs(ctx context.Context, urls []store.PostURL) error {
	start := time.Now()
	batch := &pgx.Batch{}
	for _, u := range urls {
		batch.Queue(`
			INSERT INTO post_urls (post_id, url) VALUES ($1, $2)
			ON CONFLICT (post_id, url) DO NOTHING
		`, u.PostID, u.URL)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range urls {
		if _, err := br.Exec(); err != nil {
			recordQuery("insert", "post_urls", start, err)
			return fmt.Errorf("pgstore: upsert post urls: %w", err)
		}
	}
	recordQuery("insert", "post_urls", start, nil)
	return nil
}

func (s *Store) UpsertPostImages(ctx context.Context, images []store.PostImage) error {
	start := time.Now()
	batch := &pgx.Batch{}
	for _, img := range images {
		batch.Queue(`
			INSERT INTO post_images (post_id, image_url) VALUES ($1, $2)
			ON CONFLICT (post_id, image_url) DO NOTHING
		`, img.PostID, img.ImageURL)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range images {
		if _, err := br.Exec(); err != nil {
			recordQuery("insert", "post_images", start, err)
			return fmt.Errorf("pgstore: upsert post images: %w", err)
		}
	}
	recordQuery("insert", "post_images", start, nil)
	return nil
}

func (s *Store) UpsertPostVideos(ctx context.Context, videos []store.PostVideo) error {
	start := time.Now()
	batch := &pgx.Batch{}
	for _, v := range videos {
		batch.Queue(`
			INSERT INTO post_videos (post_id, resolution, variant_url) VALUES ($1, $2, $3)
		`, v.PostID, v.Resolution, v.VariantURL)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range videos {
		if _, err := br.Exec(); err != nil {
			recordQuery("insert", "post_videos", start, err)
			return fmt.Errorf("pgstore: upsert post videos: %w", err)
		}
	}
	recordQuery("insert", "post_videos", start, nil)
	return nil
}

func (s *Store) GetPost(ctx context.Context, postID int64) (store.Post, error) {
	start := time.Now()
	var p store.Post
	var embedding *pgvector.Vector
	err := s.pool.QueryRow(ctx, `
		SELECT id, external_id, canonical_tweet_id, is_latest_version, author_handle,
			created_at, raw_text, quoted_text, impressions, likes, retweets, quotes,
			bookmarks, replies, is_retweet, is_reply, is_quote, normalized_headline,
			normalized_facts, headline_embedding
		FROM posts WHERE id = $1
	`, postID).Scan(&p.ID, &p.ExternalID, &p.CanonicalID, &p.IsLatestVersion, &p.AuthorHandle,
		&p.CreatedAt, &p.RawText, &p.QuotedText, &p.Impressions, &p.Likes, &p.Retweets,
		&p.Quotes, &p.Bookmarks, &p.Replies, &p.IsRetweet, &p.IsReply, &p.IsQuote,
		&p.NormalizedHeadline, &p.NormalizedFacts, &embedding)
	if err == pgx.ErrNoRows {
		recordQuery("select", "posts", start, nil)
		return p, store.ErrNotFound
	}
	recordQuery("select", "posts", start, err)
	if err != nil {
		return p, fmt.Errorf("pgstore: get post: %w", err)
	}
	if embedding != nil {
		p.HeadlineEmbedding = embedding.Slice()
	}
	return p, nil
}

func (s *Store) GetPostsByExternalIDs(ctx context.Context, externalIDs []string) ([]store.Post, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, canonical_tweet_id, is_latest_version, author_handle, created_at, raw_text
		FROM posts WHERE external_id = ANY($1)
	`, externalIDs)
	recordQuery("select", "posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: get posts by external id: %w", err)
	}
	defer rows.Close()

	var out []store.Post
	for rows.Next() {
		var p store.Post
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.CanonicalID, &p.IsLatestVersion, &p.AuthorHandle, &p.CreatedAt, &p.RawText); err != nil {
			return nil, fmt.Errorf("pgstore: scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPostsNeedingNormalize(ctx context.Context, postIDs []int64) ([]int64, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM posts WHERE id = ANY($1) AND normalized_headline IS NULL
	`, postIDs)
	recordQuery("select", "posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: get posts needing normalize: %w", err)
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

func (s *Store) PendingPostURLs(ctx context.Context, limit int) ([]store.PostURL, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, post_id, url FROM post_urls WHERE content IS NULL LIMIT $1
	`, limit)
	recordQuery("select", "post_urls", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pending post urls: %w", err)
	}
	defer rows.Close()

	var out []store.PostURL
	for rows.Next() {
		var u store.PostURL
		if err := rows.Scan(&u.ID, &u.PostID, &u.URL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetPostURLContent(ctx context.Context, id int64, content, rawHTML string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE post_urls SET content = $2, raw_html = $3 WHERE id = $1 AND content IS NULL
	`, id, content, rawHTML)
	recordQuery("update", "post_urls", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set post url content: %w", err)
	}
	return nil
}

func (s *Store) PendingPostImages(ctx context.Context, limit int) ([]store.PostImage, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, post_id, image_url FROM post_images WHERE category IS NULL LIMIT $1
	`, limit)
	recordQuery("select", "post_images", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pending post images: %w", err)
	}
	defer rows.Close()

	var out []store.PostImage
	for rows.Next() {
		var img store.PostImage
		if err := rows.Scan(&img.ID, &img.PostID, &img.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (s *Store) SetPostImageClassification(ctx context.Context, id int64, category string, warrantsFinancial bool) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE post_images SET category = $2, warrants_financial_analysis = $3
		WHERE id = $1 AND category IS NULL
	`, id, category, warrantsFinancial)
	recordQuery("update", "post_images", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set post image classification: %w", err)
	}
	return nil
}

func (s *Store) SetPostImageSummary(ctx context.Context, id int64, summary string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE post_images SET summary = $2 WHERE id = $1 AND summary IS NULL
	`, id, summary)
	recordQuery("update", "post_images", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set post image summary: %w", err)
	}
	return nil
}

func (s *Store) PostNormalizeContext(ctx context.Context, postID int64) (store.Post, []string, []string, error) {
	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return p, nil, nil, err
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT content FROM post_urls
		WHERE post_id = $1 AND content IS NOT NULL
			AND content NOT LIKE 'Error fetching content:%'
			AND content <> 'Could not extract readable content'
		ORDER BY id ASC LIMIT 3
	`, postID)
	recordQuery("select", "post_urls", start, err)
	if err != nil {
		return p, nil, nil, fmt.Errorf("pgstore: normalize url context: %w", err)
	}
	var urlContexts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return p, nil, nil, err
		}
		urlContexts = append(urlContexts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return p, nil, nil, err
	}

	start = time.Now()
	rows, err = s.pool.Query(ctx, `
		SELECT summary FROM post_images WHERE post_id = $1 AND summary IS NOT NULL
	`, postID)
	recordQuery("select", "post_images", start, err)
	if err != nil {
		return p, urlContexts, nil, fmt.Errorf("pgstore: normalize image context: %w", err)
	}
	defer rows.Close()
	var imageSummaries []string
	for rows.Next() {
		var s2 string
		if err := rows.Scan(&s2); err != nil {
			return p, urlContexts, nil, err
		}
		imageSummaries = append(imageSummaries, s2)
	}
	return p, urlContexts, imageSummaries, rows.Err()
}

func (s *Store) SetPostNormalized(ctx context.Context, postID int64, headline string, facts []string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE posts SET normalized_headline = $2, normalized_facts = $3 WHERE id = $1
	`, postID, headline, facts)
	recordQuery("update", "posts", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set post normalized: %w", err)
	}
	return nil
}

func (s *Store) PostsNeedingEmbedding(ctx context.Context, limit int, backfill bool) ([]int64, error) {
	start := time.Now()
	query := `SELECT id FROM posts WHERE normalized_headline IS NOT NULL AND headline_embedding IS NULL LIMIT $1`
	if backfill {
		query = `SELECT id FROM posts WHERE normalized_headline IS NOT NULL LIMIT $1`
	}
	rows, err := s.pool.Query(ctx, query, limit)
	recordQuery("select", "posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: posts needing embedding: %w", err)
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

func (s *Store) SetPostEmbedding(ctx context.Context, postID int64, embedding []float32) error {
	start := time.Now()
	vec := pgvector.NewVector(embedding)
	_, err := s.pool.Exec(ctx, `
		UPDATE posts SET headline_embedding = $2 WHERE id = $1
	`, postID, vec)
	recordQuery("update", "posts", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: set post embedding: %w", err)
	}
	return nil
}
