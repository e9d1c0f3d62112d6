// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cavaks-kitchen/palate/internal/metrics"
	"github.com/cavaks-kitchen/palate/internal/middleware"
)

// buildRouter assembles the full route tree.
//
//	/health, /metrics            operational, unmetered
//	/api/v1/recommendations/*    public serving endpoints
//	/api/v1/catalog/*            public catalog read-through
//	/api/v1/auth/login           admin token issuance
//	/api/v1/admin/*              JWT bearer, role=admin
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.corsHandler())
	r.Use(middleware.Compression)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(s.rateLimiter())

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/home", s.handleHome)
			r.Get("/user/{userID}", s.handleForUser)
			r.Get("/for-you/{userID}", s.handleForYou)
			r.Get("/related/{itemID}", s.handleRelated)
			r.Get("/similar/{itemID}", s.handleSimilar)
			r.Post("/last-chance", s.handleLastChance)
			r.Get("/popular", s.handlePopular)
			r.Get("/new", s.handleNew)
			r.Get("/seasonal", s.handleSeasonal)
			r.Get("/price", s.handlePrice)
			r.Get("/abtest/{userID}", s.handleABTest)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", s.handleCatalogItems)
			r.Get("/items/{itemID}", s.handleCatalogItem)
		})

		r.Post("/auth/login", s.handleLogin)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMW.RequireAdmin)
			r.Post("/sync", s.handleTriggerSync)
			r.Get("/status", s.handleAdminStatus)
			r.Put("/catalog/items/{itemID}", s.handleUpsertItem)
			r.Delete("/catalog/items/{itemID}", s.handleDeleteItem)
		})
	})

	return r
}

// corsHandler builds the CORS middleware from the configured storefront
// origins. An empty origin list allows any origin, which only passes config
// validation in development.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// rateLimiter builds the per-IP request limiter for the public API group.
// Returns a pass-through when rate limiting is disabled.
func (s *Server) rateLimiter() func(http.Handler) http.Handler {
	sec := s.cfg.Security
	if sec.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		sec.RateLimitReqs,
		sec.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.Inc()
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests, slow down", nil)
		}),
	)
}
