// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Compression: Gzip compression for every response when the client accepts gzip
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

internal/api/router.go layers these ahead of CORS, per-IP rate limiting
(go-chi/cors, go-chi/httprate), and the bearer authenticator on operator
routes:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Usage Example - Compression:

	import "github.com/tomtom215/newsclust/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Every response is compressed, whatever its size
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 1000 most recent samples
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Wrap handler (Middleware takes and returns http.Handler)
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get per-endpoint performance statistics (durations in ms)
	for _, s := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %d, p95: %d, p99: %d\n",
	        s.Path, s.P50Duration, s.P95Duration, s.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: bounded slice of latency samples under sync.RWMutex

Compression Details:

The compression middleware:
  - Compresses every response, with no size threshold and no content-type filter
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Passes WebSocket upgrade requests through uncompressed
  - Sets Content-Encoding: gzip and removes Content-Length
  - Does not implement http.Flusher; compressed data is flushed when the handler returns

Performance Monitor:

The performance monitor tracks:
  - Request count per endpoint (status codes are stored; no error rate is computed)
  - Latency percentiles (p50, p95, p99), minimum, maximum and mean
  - Rolling window of the maxMetrics most recent requests
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/auth: Authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
