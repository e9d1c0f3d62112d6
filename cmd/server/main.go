// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package main is the entry point for the Palate server.
//
// Palate serves menu recommendations for the Cavak's Kitchen storefront. It
// keeps a local catalog snapshot in an embedded Badger store, refreshed by a
// periodic sync from the storefront's hosted backend, and answers the
// storefront's recommendation placements over HTTP.
//
// Initialization order:
//
//  1. Configuration: koanf layering of defaults, config.yaml, PALATE_* env
//  2. Storage: embedded Badger store with background value-log GC
//  3. Sync: rate-limited, circuit-broken upstream client plus the periodic
//     sync manager
//  4. Engine: the pure recommendation engine over the storage snapshot
//  5. Cache: TTL response cache, invalidated after each completed sync
//  6. Auth: JWT manager and admin credentials (AUTH_MODE=jwt)
//  7. HTTP: chi router with public, catalog, and admin route groups
//
// The sync manager and HTTP server run under a suture supervisor tree; a
// crashing sync loop restarts with backoff while serving continues from the
// last synced snapshot. SIGINT and SIGTERM trigger a graceful drain.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/cavaks-kitchen/palate/internal/api"
	"github.com/cavaks-kitchen/palate/internal/auth"
	"github.com/cavaks-kitchen/palate/internal/cache"
	"github.com/cavaks-kitchen/palate/internal/config"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/recommend"
	"github.com/cavaks-kitchen/palate/internal/storage"
	"github.com/cavaks-kitchen/palate/internal/supervisor"
	palatesync "github.com/cavaks-kitchen/palate/internal/sync"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Palate")

	store, err := storage.Open(storage.Options{
		Path:       cfg.Store.Path,
		InMemory:   cfg.Store.InMemory,
		GCInterval: cfg.Store.GCInterval,
		Logger:     logging.Logger(),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog store")
		}
	}()

	upstream := palatesync.NewClient(cfg.Sync)
	syncManager := palatesync.NewManager(store, upstream, cfg.Sync)

	engine, err := recommend.NewEngine(store, engineConfig(cfg), logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval,
			cache.WithMaxEntries(cfg.Cache.MaxEntries))
		defer respCache.Stop()

		// A completed sync can change every ranking; drop the whole cache.
		syncManager.SetOnSyncCompleted(respCache.Clear)
	}

	var jwtManager *auth.JWTManager
	var credentials *auth.CredentialChecker
	if cfg.Security.AuthMode == "jwt" {
		jwtManager, err = auth.NewJWTManager(cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		credentials, err = auth.NewCredentialChecker(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize admin credentials")
		}
	}
	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)

	server, err := api.NewServer(api.Options{
		Config:      cfg,
		Engine:      engine,
		Provider:    store,
		Catalog:     store,
		Cache:       respCache,
		Sync:        syncManager,
		JWT:         jwtManager,
		Credentials: credentials,
		AuthMW:      authMW,
		Version:     version,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build HTTP server")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(supervisor.NewService("sync-manager", supervisor.RunnerFunc(syncManager.Start)))
	tree.AddAPIService(supervisor.NewService("http-server", server))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("Palate stopped")
}

// engineConfig maps the service configuration onto the engine's.
func engineConfig(cfg *config.Config) recommend.Config {
	engineCfg := recommend.DefaultEngineConfig()
	if cfg.Recommend.DefaultLimit > 0 {
		engineCfg.DefaultLimit = cfg.Recommend.DefaultLimit
	}
	if cfg.Recommend.MaxLimit > 0 {
		engineCfg.MaxLimit = cfg.Recommend.MaxLimit
	}
	if cfg.Recommend.NewProductDays > 0 {
		engineCfg.NewProductDays = cfg.Recommend.NewProductDays
	}
	if overrides := cfg.SeasonKeywordOverrides(); len(overrides) > 0 {
		keywords := recommend.DefaultSeasonKeywords()
		for season, words := range overrides {
			keywords[recommend.Season(season)] = words
		}
		engineCfg.SeasonKeywords = keywords
	}
	return engineCfg
}
