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

	"github.com/cavaks-kitchen/palate/internal/auth"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/models"
	"github.com/cavaks-kitchen/palate/internal/recommend"
	palatesync "github.com/cavaks-kitchen/palate/internal/sync"
)

// handleLogin exchanges admin credentials for a signed JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.credentials == nil || s.jwt == nil {
		respondError(w, http.StatusServiceUnavailable, "AUTHENTICATION_ERROR",
			"Authentication is not configured", nil)
		return
	}

	var req models.LoginRequest
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

	if !s.credentials.Check(req.Username, req.Password) {
		logging.Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Failed admin login")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR",
			"Invalid username or password", nil)
		return
	}

	token, err := s.jwt.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to issue token", err)
		return
	}

	logging.Info().Str("username", sanitizeLogValue(req.Username)).Msg("Admin login")
	respondSuccess(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.Security.SessionTimeout),
		Username:  req.Username,
		Role:      auth.RoleAdmin,
	}, 0, false)
}

// handleTriggerSync runs an immediate upstream sync. The run happens
// synchronously within the request, so 200 means the snapshot is already
// refreshed when the response arrives.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := s.syncCtl.TriggerSync(r.Context())
	switch {
	case err == nil:
		respondSuccess(w, http.StatusOK, map[string]string{
			"message": "sync completed",
		}, time.Since(start), false)
	case errors.Is(err, palatesync.ErrSyncDisabled):
		respondError(w, http.StatusConflict, "SYNC_DISABLED",
			"Upstream sync is disabled in configuration", nil)
	case errors.Is(err, palatesync.ErrSyncInProgress):
		respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS",
			"A sync run is already in progress", nil)
	default:
		respondError(w, http.StatusBadGateway, "SYNC_FAILED",
			"Sync run failed, see server logs", err)
	}
}

// handleAdminStatus reports sync state, store counts, and cache stats.
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	payload := map[string]interface{}{
		"sync":    s.syncCtl.Status(r.Context()),
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.cache != nil {
		payload["cache"] = s.cache.GetStats()
		payload["cache_hit_rate"] = s.cache.HitRate()
	}

	respondSuccess(w, http.StatusOK, payload, time.Since(start), false)
}

// handleUpsertItem creates or replaces one catalog item. This is the
// ingestion path for standalone deployments where upstream sync is disabled.
func (s *Server) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var item recommend.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if item.ID == "" {
		item.ID = itemID
	}
	if item.ID != itemID {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"Item ID in body does not match URL", nil)
		return
	}

	if err := s.catalog.PutItem(r.Context(), &item); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to store item", err)
		return
	}
	s.invalidateCache()

	logging.Info().Str("item_id", sanitizeLogValue(item.ID)).Msg("Catalog item upserted")
	respondSuccess(w, http.StatusOK, item, 0, false)
}

// handleDeleteItem removes one catalog item. Deleting an unknown ID is a
// no-op success, matching the store's semantics.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := s.catalog.DeleteItem(r.Context(), itemID); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to delete item", err)
		return
	}
	s.invalidateCache()

	logging.Info().Str("item_id", sanitizeLogValue(itemID)).Msg("Catalog item deleted")
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": itemID}, 0, false)
}

// invalidateCache drops every cached response after a catalog mutation.
func (s *Server) invalidateCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// handleHealth is the liveness endpoint, public and unmetered.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	syncStatus := s.syncCtl.Status(r.Context())

	status := "ok"
	if syncStatus.Enabled && syncStatus.BreakerOpen {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:  status,
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Sync:    syncStatus,
	}, 0, false)
}
