// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/newsclust/internal/auth"
	"github.com/tomtom215/newsclust/internal/authz"
	appmw "github.com/tomtom215/newsclust/internal/middleware"
)

// chiMiddleware adapts a func(http.HandlerFunc) http.HandlerFunc style
// middleware (the shape of RequestID, Compression and PrometheusMetrics in
// internal/middleware and of internal/auth's authenticators) to chi's
// func(http.Handler) http.Handler, so both
// families can sit on the same r.Use chain.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// RouterConfig controls route-level concerns that vary by deployment:
// allowed CORS origins and the operator bearer tokens gating the trigger
// routes.
type RouterConfig struct {
	CORSAllowedOrigins []string
	// OperatorToken authenticates as the "admin" role: review, curate, and
	// backfill.
	OperatorToken string
	// ReviewerToken, if set, authenticates as the "reviewer" role: review
	// and curate, but not the costlier backfill.
	ReviewerToken     string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// DefaultRouterConfig returns sane defaults for a single-operator
// deployment: no cross-origin access and a conservative shared rate limit.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  120,
		RateLimitWindow:    time.Minute,
	}
}

// NewRouter builds the chi router serving the story read model, the
// feedback loop, health, and the operator trigger routes. Operator routes
// are gated by RoleAuthenticator, which maps a bearer token to an
// admin/reviewer role and authorizes the role for the route's action via
// an authz.Enforcer.
func NewRouter(h *Handler, cfg RouterConfig) (http.Handler, error) {
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("api: build authorization enforcer: %w", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(chiMiddleware(appmw.RequestID))
	r.Use(chiMiddleware(appmw.Compression))
	r.Use(chiMiddleware(appmw.PrometheusMetrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:           300,
	}))
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	r.Route("/internal/health", func(r chi.Router) {
		r.Get("/", h.Health)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/stories", func(r chi.Router) {
		r.Get("/", h.Stories)
	})

	r.Route("/api/v1/clusters/{id}/feedback", func(r chi.Router) {
		r.Get("/", h.ClusterFeedback)
		r.Post("/", h.Feedback)
	})

	roleAuth := auth.NewRoleAuthenticator(map[string]string{
		"admin":    cfg.OperatorToken,
		"reviewer": cfg.ReviewerToken,
	}, enforcer)

	r.Route("/api/v1/operator", func(r chi.Router) {
		r.With(chiMiddleware(roleAuth.Authenticate("review"))).Post("/clusters/{id}/review", h.TriggerReview)
		r.With(chiMiddleware(roleAuth.Authenticate("curate"))).Post("/curate", h.TriggerCurate)
		r.With(chiMiddleware(roleAuth.Authenticate("backfill"))).Post("/backfill", h.TriggerBackfill)
	})

	return r, nil
}
