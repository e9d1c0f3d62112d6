// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cavaks-kitchen/palate/internal/cache"
	"github.com/cavaks-kitchen/palate/internal/metrics"
	"github.com/cavaks-kitchen/palate/internal/models"
	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// parseOptions builds engine options from the query string. The include
// parameter is a comma list naming strategies; when present, only the named
// strategies run. Without it every strategy is enabled.
func parseOptions(r *http.Request) recommend.Options {
	opts := recommend.DefaultOptions()
	opts.Limit = getIntParam(r, "limit", 0)

	include := parseCommaSeparated(r.URL.Query().Get("include"))
	if len(include) == 0 {
		return opts
	}

	opts.IncludeCollaborative = false
	opts.IncludeContentBased = false
	opts.IncludeSeasonal = false
	opts.IncludePopular = false
	opts.IncludeNew = false
	for _, name := range include {
		switch name {
		case "collaborative":
			opts.IncludeCollaborative = true
		case "content":
			opts.IncludeContentBased = true
		case "seasonal":
			opts.IncludeSeasonal = true
		case "popular":
			opts.IncludePopular = true
		case "new":
			opts.IncludeNew = true
		}
	}
	return opts
}

// serveRecommendations runs the cache-wrapped serving path: on a hit the
// cached engine response is returned as-is with the cached flag set; on a
// miss the compute function runs and its result is cached.
func (s *Server) serveRecommendations(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (*recommend.Response, error)) {
	start := time.Now()

	if s.cache != nil && cacheKey != "" {
		if cached, ok := s.cache.Get(cacheKey); ok {
			respondSuccess(w, http.StatusOK, cached, time.Since(start), true)
			return
		}
	}

	resp, err := compute()
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	metrics.RecordRecommendation(resp.Metadata.Strategy, len(resp.Recommendations), time.Since(start))

	if s.cache != nil && cacheKey != "" {
		s.cache.Set(cacheKey, resp)
	}
	respondSuccess(w, http.StatusOK, resp, time.Since(start), false)
}

// respondEngineError maps engine sentinels onto HTTP statuses.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown user", nil)
	case errors.Is(err, recommend.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown item", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to generate recommendations", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	opts := parseOptions(r)
	key := cache.GenerateKey("recommendations/home", opts)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.Home(r.Context(), opts)
	})
}

func (s *Server) handleForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	opts := parseOptions(r)
	key := cache.GenerateKey("recommendations/user/"+userID, opts)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.ForUser(r.Context(), userID, opts)
	})
}

func (s *Server) handleForYou(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := getIntParam(r, "limit", 0)
	key := cache.GenerateKey("recommendations/for-you/"+userID, limit)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.ForYou(r.Context(), userID, limit)
	})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	key := cache.GenerateKey("recommendations/related/"+itemID, nil)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.RelatedTo(r.Context(), itemID)
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	limit := getIntParam(r, "limit", 0)
	key := cache.GenerateKey("recommendations/similar/"+itemID, limit)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.SimilarTo(r.Context(), itemID, limit)
	})
}

// handleLastChance is the checkout placement. Carts are caller-specific, so
// responses are never cached.
func (s *Server) handleLastChance(w http.ResponseWriter, r *http.Request) {
	var req models.LastChanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	s.serveRecommendations(w, r, "", func() (*recommend.Response, error) {
		return s.engine.LastChanceFor(r.Context(), req.ToCart())
	})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 0)
	key := cache.GenerateKey("recommendations/popular", limit)
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.PopularItems(r.Context(), limit)
	})
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 0)
	days := getIntParam(r, "days", 0)
	key := cache.GenerateKey("recommendations/new", [2]int{days, limit})
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.NewItems(r.Context(), days, limit)
	})
}

func (s *Server) handleSeasonal(w http.ResponseWriter, r *http.Request) {
	season, err := recommend.ParseSeason(r.URL.Query().Get("season"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"season must be one of spring, summer, autumn, winter", nil)
		return
	}
	limit := getIntParam(r, "limit", 0)

	key := cache.GenerateKey("recommendations/seasonal", struct {
		Season recommend.Season
		Limit  int
	}{season, limit})
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.SeasonalItems(r.Context(), season, limit)
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	budget := getFloatParam(r, "budget", 0)
	if budget <= 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"budget must be a positive number", nil)
		return
	}
	limit := getIntParam(r, "limit", 0)

	key := cache.GenerateKey("recommendations/price", struct {
		Budget float64
		Limit  int
	}{budget, limit})
	s.serveRecommendations(w, r, key, func() (*recommend.Response, error) {
		return s.engine.BudgetItems(r.Context(), budget, limit)
	})
}

// handleABTest serves one experiment arm. Responses are not cached so that
// assignment counters stay truthful per request.
func (s *Server) handleABTest(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	group := r.URL.Query().Get("group")

	assigned := group
	if assigned == "" {
		assigned = recommend.AssignGroup(userID)
	}
	metrics.ABGroupAssignments.WithLabelValues(assigned).Inc()

	s.serveRecommendations(w, r, "", func() (*recommend.Response, error) {
		return s.engine.Experiment(r.Context(), userID, group)
	})
}
