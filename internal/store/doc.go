// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package store defines the persistence surface consumed by every pipeline
// stage: ingest, enrichment, normalization, embedding, cluster sync, curation,
// review, and the story read model. Nothing outside internal/store/pgstore
// imports a database driver directly; everything else depends on the Store
// interface, so pipeline code and its tests can swap in a fake without a
// running Postgres instance.
//
// errors.go defines the sentinels (ErrNotFound, ErrAlreadyMerged,
// ErrAlreadyAssigned, ErrConnectionUnavailable) and a retry-class taxonomy
// (Classify, ClassOf). pgstore returns ErrNotFound and ErrAlreadyMerged where
// they apply and otherwise returns driver errors wrapped without a class, so
// ClassOf reports false for them; no store code calls Classify.
//
// # See Also
//
//   - internal/store/pgstore for the Postgres + pgvector implementation
//   - internal/cluster/sync for the principal consumer of ClusterStore
//   - internal/metrics for the query-duration/error instrumentation every
//     pgstore method reports through
package store
