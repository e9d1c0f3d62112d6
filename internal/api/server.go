// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package api exposes the recommendation engine over HTTP: public serving
// endpoints, a catalog read-through, and an authenticated admin surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cavaks-kitchen/palate/internal/auth"
	"github.com/cavaks-kitchen/palate/internal/cache"
	"github.com/cavaks-kitchen/palate/internal/config"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/models"
	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// SyncController is the slice of the sync manager the API needs: manual
// trigger plus status for /health and the admin surface.
type SyncController interface {
	TriggerSync(ctx context.Context) error
	Status(ctx context.Context) models.SyncStatus
}

// CatalogWriter is the store's write side, used by the admin catalog
// endpoints. In standalone deployments (sync disabled) this is the only way
// catalog data enters the store.
type CatalogWriter interface {
	PutItem(ctx context.Context, item *recommend.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// Options collects everything the HTTP layer is wired with.
type Options struct {
	Config      *config.Config
	Engine      *recommend.Engine
	Provider    recommend.DataProvider
	Catalog     CatalogWriter
	Cache       *cache.Cache
	Sync        SyncController
	JWT         *auth.JWTManager
	Credentials *auth.CredentialChecker
	AuthMW      *auth.Middleware
	Version     string
}

// Server owns the HTTP listener and the handler tree.
type Server struct {
	cfg         *config.Config
	engine      *recommend.Engine
	provider    recommend.DataProvider
	catalog     CatalogWriter
	cache       *cache.Cache
	syncCtl     SyncController
	jwt         *auth.JWTManager
	credentials *auth.CredentialChecker
	authMW      *auth.Middleware
	version     string
	startTime   time.Time

	httpServer *http.Server
}

// NewServer wires the handler tree. It does not start listening; call Serve.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("api: engine is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("api: data provider is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("api: catalog writer is required")
	}
	if opts.Sync == nil {
		return nil, errors.New("api: sync controller is required")
	}
	if opts.AuthMW == nil {
		return nil, errors.New("api: auth middleware is required")
	}

	s := &Server{
		cfg:         opts.Config,
		engine:      opts.Engine,
		provider:    opts.Provider,
		catalog:     opts.Catalog,
		cache:       opts.Cache,
		syncCtl:     opts.Sync,
		jwt:         opts.JWT,
		credentials: opts.Credentials,
		authMW:      opts.AuthMW,
		version:     opts.Version,
		startTime:   time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:         opts.Config.ListenAddr(),
		Handler:      s.buildRouter(),
		ReadTimeout:  opts.Config.Server.ReadTimeout,
		WriteTimeout: opts.Config.Server.WriteTimeout,
		IdleTimeout:  opts.Config.Server.IdleTimeout,
	}

	return s, nil
}

// Handler returns the assembled handler tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve runs the listener until ctx is canceled, then drains connections
// within the configured shutdown timeout. The blocking shape lets a
// supervisor run it directly as a service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logging.Info().
			Str("addr", s.httpServer.Addr).
			Str("environment", s.cfg.Server.Environment).
			Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	logging.Info().Msg("HTTP server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
