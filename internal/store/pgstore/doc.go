// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package pgstore implements store.Store against Postgres with the pgvector
// extension. It uses pgx/v5 directly rather than a code generator or ORM:
// query shapes here are few enough and irregular enough (batch upserts with
// ON CONFLICT DO NOTHING RETURNING, ANY($1) array predicates, CASE-guarded
// partial updates) that hand-written SQL stays more readable than generated
// code would.
//
// Schema migrations are embedded (go:embed migrations) and applied with
// golang-migrate/v4 against a database/sql handle opened through the pgx
// stdlib driver; the pgxpool.Pool used for normal queries is separate from
// the migration connection and is never closed by the migration run.
//
// Embeddings are stored as the pgvector "vector" column type and marshaled
// through github.com/pgvector/pgvector-go. The migration creates
// vector_cosine_ops HNSW indexes on posts.headline_embedding and
// clusters.centroid, but no query in this package uses a vector distance
// operator: cosine similarity is computed in Go (internal/vector) for the
// union-find transitive closure pass that internal/store/pgvector performs
// over an in-memory candidate set.
package pgstore
