// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package models defines the wire types shared by the HTTP API.
package models

import (
	"time"

	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and caching.
type Metadata struct {
	// Timestamp is the server time the response was generated.
	Timestamp time.Time `json:"timestamp"`

	// QueryTimeMS is the serving time in milliseconds, 0 when cached.
	QueryTimeMS int64 `json:"query_time_ms,omitempty"`

	// Cached reports whether the response came from the response cache.
	Cached bool `json:"cached,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, AUTHENTICATION_ERROR,
// AUTHORIZATION_ERROR, INTERNAL_ERROR, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LoginRequest authenticates the service administrator.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries a signed admin JWT.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// CartEntry is one line of a checkout cart as sent by the storefront.
// Only the item ID is required; the engine resolves the rest from the
// catalog snapshot.
type CartEntry struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity,omitempty"`
}

// LastChanceRequest is the body of the checkout placement endpoint.
type LastChanceRequest struct {
	Cart []CartEntry `json:"cart" validate:"required,min=1,dive"`
}

// ToCart converts wire cart entries into engine cart items.
func (r *LastChanceRequest) ToCart() []recommend.CartItem {
	cart := make([]recommend.CartItem, 0, len(r.Cart))
	for _, entry := range r.Cart {
		qty := entry.Quantity
		if qty < 1 {
			qty = 1
		}
		cart = append(cart, recommend.CartItem{
			Item:     recommend.Item{ID: entry.ItemID},
			Quantity: qty,
		})
	}
	return cart
}

// SyncStatus summarizes the upstream sync state for the admin API and the
// health endpoint.
type SyncStatus struct {
	Enabled     bool      `json:"enabled"`
	Running     bool      `json:"running"`
	LastSync    time.Time `json:"last_sync,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	ItemCount   int       `json:"item_count"`
	UserCount   int       `json:"user_count"`
	OrderCount  int       `json:"order_count"`
	BreakerOpen bool      `json:"breaker_open"`
}

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status  string     `json:"status"`
	Version string     `json:"version,omitempty"`
	Uptime  string     `json:"uptime"`
	Sync    SyncStatus `json:"sync"`
}
