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

	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// handleCatalogItems lists the active catalog snapshot.
func (s *Server) handleCatalogItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	items, err := s.provider.Items(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to load catalog", err)
		return
	}
	if items == nil {
		items = []recommend.Item{}
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	}, time.Since(start), false)
}

// handleCatalogItem returns a single item, including inactive ones so the
// storefront can render historical order lines.
func (s *Server) handleCatalogItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID := chi.URLParam(r, "itemID")

	item, err := s.provider.ItemByID(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, recommend.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown item", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to load item", err)
		return
	}

	respondSuccess(w, http.StatusOK, item, time.Since(start), false)
}
