// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/concurrency"
	"github.com/tomtom215/newsclust/internal/embed"
	"github.com/tomtom215/newsclust/internal/normalize"
	"github.com/tomtom215/newsclust/internal/preprocess"
)

// semaphoredEmbedder gates concurrent EmbedOne calls behind the embed
// concurrency limit: preprocess.Worker.Handle may run several events at
// once (one per in-flight post.preprocess delivery), but the embedding
// provider call itself should never exceed the configured concurrency cap.
type semaphoredEmbedder struct {
	worker *embed.Worker
	sem    *concurrency.Semaphore
}

func (e *semaphoredEmbedder) EmbedOne(ctx context.Context, postID int64) error {
	if err := e.sem.Acquire(ctx); err != nil {
		return err
	}
	defer e.sem.Release()
	return e.worker.EmbedOne(ctx, postID)
}

// preprocessWorkerFor builds the preprocess.Worker that backs both
// post.ingested and post.preprocess, wrapping embed in the shared
// concurrency limit.
func preprocessWorkerFor(normalizeWorker *normalize.Worker, embedWorker *embed.Worker, embedLimit *concurrency.Semaphore, logger zerolog.Logger) *preprocess.Worker {
	return preprocess.NewWorker(normalizeWorker, &semaphoredEmbedder{worker: embedWorker, sem: embedLimit}, logger)
}
