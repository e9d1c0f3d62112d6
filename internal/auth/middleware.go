// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cavaks-kitchen/palate/internal/logging"
)

type contextKey string

// ClaimsContextKey is the request context key holding the validated
// admin claims.
const ClaimsContextKey contextKey = "claims"

// Middleware guards admin routes. With auth mode "none" every request
// passes through; that mode is rejected in production by config
// validation.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
}

// NewMiddleware creates the admin auth middleware. jwtManager may be
// nil only when authMode is "none".
func NewMiddleware(jwtManager *JWTManager, authMode string) *Middleware {
	if authMode == "none" {
		logging.Warn().Msg("admin authentication is DISABLED (PALATE_AUTH_MODE=none)")
	}
	return &Middleware{
		jwtManager: jwtManager,
		authMode:   authMode,
	}
}

// RequireAdmin rejects requests without a valid admin bearer token.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("token validation failed")
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		if claims.Role != RoleAdmin {
			http.Error(w, "insufficient role", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the validated claims stored by
// RequireAdmin, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
