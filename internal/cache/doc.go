// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package cache provides thread-safe in-memory data structures used across the
pipeline for deduplication and approximate matching: a generic TTL-keyed
Cache/LRUCache, an LFU variant, a sliding-window counter, a bloom filter, a
trie, a binary heap, and an Aho-Corasick multi-pattern matcher.

Each of these backs a concrete pipeline component:

  - internal/cluster/filter builds an Aho-Corasick matcher over the
    promotional/spam phrase list once at package init and reuses it for every
    headline scanned, instead of a substring-scan loop per phrase.
  - internal/ingest keeps an ExactLRU (an LRUCache behind the
    DeduplicationCache interface) keyed by external post id with a
    multi-hour TTL, so overlapping author/keyword polling windows don't
    re-upsert a post the process already saw this cycle. A post the store
    hasn't recorded is never skipped by this: the cache only saves a
    redundant round trip, it never gates correctness.
  - internal/ingest also tracks per-worker fetch attempts and failures over a
    rolling hour in SlidingWindowStores.
  - internal/cluster/curate builds a Trie over normalized-headline tokens per
    curation pass, using it as an inverted index to find which clusters share
    enough tokens to be worth grouping for LLM duplicate review.
  - internal/api keeps an LFUCache of recent story-list responses.
  - internal/enrich/urlfetch keeps a BloomLRU of URLs that recently failed to
    fetch.
  - internal/eventbus orders its dead-letter entries in a MinHeap.
  - internal/embed keeps a TTL Cache of headline embeddings.
*/
package cache
