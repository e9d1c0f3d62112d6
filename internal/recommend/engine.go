// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package recommend implements the recommendation and ranking subsystem of
// the Cavak's Kitchen storefront.
//
// The scoring primitives (UserSimilarity, ItemSimilarity, the strategy
// functions, and the Generate aggregator) are pure functions over immutable
// snapshots: no I/O, no shared state, no panics on malformed input. The
// Engine type wraps them behind a DataProvider so HTTP handlers never touch
// the storage layer directly.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel errors mapped by DataProvider implementations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("recommend: user not found")

	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("recommend: item not found")
)

// DataProvider supplies the catalog, user, and order snapshots the engine
// scores over. Implementations must return defensive copies; the engine
// treats every slice as immutable.
type DataProvider interface {
	// Items returns the full catalog snapshot.
	Items(ctx context.Context) ([]Item, error)

	// ItemByID returns one catalog item, or ErrItemNotFound.
	ItemByID(ctx context.Context, id string) (*Item, error)

	// Profile returns a user's profile, or ErrUserNotFound.
	Profile(ctx context.Context, userID string) (*UserProfile, error)

	// History returns a user's purchase and view history. Unknown users
	// yield an empty history, not an error.
	History(ctx context.Context, userID string) (*UserHistory, error)

	// Peers returns every other user as a collaborative-filtering peer.
	Peers(ctx context.Context, excludeUserID string) ([]PeerUser, error)

	// Orders returns the order history used for co-occurrence scoring.
	Orders(ctx context.Context) ([]Order, error)
}

// Engine is the serving facade over the pure scoring functions.
// Safe for concurrent use; it holds no mutable state beyond its
// configuration.
type Engine struct {
	provider DataProvider
	cfg      Config
	logger   zerolog.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewEngine creates an Engine with the given provider and configuration.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(provider DataProvider, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("recommend: provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommend: invalid config: %w", err)
	}
	return &Engine{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SetClock overrides the engine's time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

// Response is the engine's answer to one serving request.
type Response struct {
	// Recommendations is the ranked result list, highest relevance first.
	Recommendations []Recommendation `json:"recommendations"`

	// Metadata carries tracing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries tracing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id"`

	// UserID is the requesting user, when known.
	UserID string `json:"user_id,omitempty"`

	// Strategy names the serving path (aggregate, popular, related, ...).
	Strategy string `json:"strategy"`

	// Season is set for seasonal results.
	Season Season `json:"season,omitempty"`

	// Group is set for A/B experiment results.
	Group string `json:"group,omitempty"`

	// CatalogSize is the number of catalog items considered.
	CatalogSize int `json:"catalog_size"`

	// LatencyMS is the serving latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Home serves the anonymous storefront aggregate. Collaborative filtering
// is disabled because there is no user to compare peers against.
func (e *Engine) Home(ctx context.Context, opts Options) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	recs := Generate(nil, items, nil, e.clampLimit(opts), e.cfg.SeasonKeywords, start)
	return e.respond("aggregate", "", recs, len(items), start), nil
}

// ForUser serves the personalized aggregate for a known user.
// Returns ErrUserNotFound when the user does not exist.
func (e *Engine) ForUser(ctx context.Context, userID string, opts Options) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	target, err := e.buildPeer(ctx, userID)
	if err != nil {
		return nil, err
	}
	peers, err := e.provider.Peers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading peers: %w", err)
	}

	recs := Generate(target, items, peers, e.clampLimit(opts), e.cfg.SeasonKeywords, start)
	resp := e.respond("aggregate", userID, recs, len(items), start)
	return resp, nil
}

// ForYou ranks the whole catalog by the per-user profile score, highest
// first. Returns ErrUserNotFound when the user does not exist.
func (e *Engine) ForYou(ctx context.Context, userID string, limit int) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	profile, err := e.provider.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := e.provider.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	recs := make([]Recommendation, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Item:  items[i],
			Score: ProfileScore(&items[i], profile, history, start),
		})
	}
	sortByScore(recs)

	recs = take(recs, e.limitOrDefault(limit))
	return e.respond("for_you", userID, recs, len(items), start), nil
}

// RelatedTo serves the product-detail placement for one item.
// Returns ErrItemNotFound when the anchor does not exist.
func (e *Engine) RelatedTo(ctx context.Context, itemID string) (*Response, error) {
	start := e.now()

	anchor, err := e.provider.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	recs := Related(anchor, items)
	return e.respond("related", "", recs, len(items), start), nil
}

// SimilarTo serves content-based neighbors of one item, tagged as
// same-category for display. Returns ErrItemNotFound for unknown anchors.
func (e *Engine) SimilarTo(ctx context.Context, itemID string, limit int) (*Response, error) {
	start := e.now()

	anchor, err := e.provider.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	recs := take(ContentBased(anchor, items), e.limitOrDefault(limit))
	return e.respond("similar", "", recs, len(items), start), nil
}

// LastChanceFor serves the checkout placement. Cart entries may carry only
// an ID and quantity; missing item fields are resolved from the catalog,
// and unknown IDs are kept as bare references so cart exclusion still
// applies to them.
func (e *Engine) LastChanceFor(ctx context.Context, cart []CartItem) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	orders, err := e.provider.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading orders: %w", err)
	}

	resolved := e.resolveCart(cart, items)
	recs := LastChance(resolved, orders, items)
	return e.respond("last_chance", "", recs, len(items), start), nil
}

// PopularItems serves the popularity ranking for the storefront tab.
func (e *Engine) PopularItems(ctx context.Context, limit int) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	recs := Popular(items, e.limitOrDefault(limit))
	return e.respond("popular", "", recs, len(items), start), nil
}

// NewItems serves recently added items. days <= 0 uses the configured
// window.
func (e *Engine) NewItems(ctx context.Context, days, limit int) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if days <= 0 {
		days = e.cfg.NewProductDays
	}
	window := time.Duration(days) * 24 * time.Hour
	recs := take(NewProducts(items, window, start), e.limitOrDefault(limit))
	return e.respond("new", "", recs, len(items), start), nil
}

// SeasonalItems serves the seasonal placement. An empty season derives the
// current one from the clock.
func (e *Engine) SeasonalItems(ctx context.Context, season Season, limit int) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if season == "" {
		season = SeasonAt(start)
	}
	recs := take(SeasonalTrends(season, e.cfg.SeasonKeywords, items), e.limitOrDefault(limit))

	resp := e.respond("seasonal", "", recs, len(items), start)
	resp.Metadata.Season = season
	return resp, nil
}

// BudgetItems serves items close to the given budget.
func (e *Engine) BudgetItems(ctx context.Context, budget float64, limit int) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	recs := take(PriceBased(budget, items), e.limitOrDefault(limit))
	return e.respond("price_range", "", recs, len(items), start), nil
}

// Experiment serves one arm of the ranking experiment for a user. An empty
// group is assigned deterministically from the user ID. Returns
// ErrUserNotFound when the user does not exist.
func (e *Engine) Experiment(ctx context.Context, userID, group string) (*Response, error) {
	start := e.now()

	items, err := e.provider.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	target, err := e.buildPeer(ctx, userID)
	if err != nil {
		return nil, err
	}
	peers, err := e.provider.Peers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading peers: %w", err)
	}

	if group == "" {
		group = AssignGroup(userID)
	}
	recs := ABTest(target, items, peers, group, e.cfg.SeasonKeywords, start)

	resp := e.respond("abtest", userID, recs, len(items), start)
	resp.Metadata.Group = group
	return resp, nil
}

// buildPeer assembles the target user's profile and purchases into the
// shape collaborative filtering scores against.
func (e *Engine) buildPeer(ctx context.Context, userID string) (*PeerUser, error) {
	profile, err := e.provider.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := e.provider.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	peer := &PeerUser{UserProfile: *profile}
	if history != nil {
		peer.PurchasedItems = history.PurchasedItems
	}
	return peer, nil
}

// resolveCart fills in catalog fields for cart entries that arrive as bare
// ID references.
func (e *Engine) resolveCart(cart []CartItem, items []Item) []CartItem {
	byID := make(map[string]*Item, len(items))
	for i := range items {
		if items[i].ID != "" {
			byID[items[i].ID] = &items[i]
		}
	}

	resolved := make([]CartItem, 0, len(cart))
	for _, ci := range cart {
		if ci.ID == "" {
			continue
		}
		if ci.Name == "" {
			if it, ok := byID[ci.ID]; ok {
				ci.Item = *it
			}
		}
		if ci.Quantity < 1 {
			ci.Quantity = 1
		}
		resolved = append(resolved, ci)
	}
	return resolved
}

// clampLimit applies the engine's limit bounds to request options.
func (e *Engine) clampLimit(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	if opts.Limit > e.cfg.MaxLimit {
		opts.Limit = e.cfg.MaxLimit
	}
	return opts
}

// limitOrDefault bounds a bare limit parameter.
func (e *Engine) limitOrDefault(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// respond assembles a Response and logs the serving event.
func (e *Engine) respond(strategy, userID string, recs []Recommendation, catalogSize int, start time.Time) *Response {
	if recs == nil {
		recs = []Recommendation{}
	}
	latency := e.now().Sub(start).Milliseconds()

	e.logger.Debug().
		Str("strategy", strategy).
		Str("user_id", userID).
		Int("results", len(recs)).
		Int("catalog_size", catalogSize).
		Int64("latency_ms", latency).
		Msg("Recommendations served")

	return &Response{
		Recommendations: recs,
		Metadata: ResponseMetadata{
			RequestID:   uuid.New().String(),
			UserID:      userID,
			Strategy:    strategy,
			CatalogSize: catalogSize,
			LatencyMS:   latency,
			Timestamp:   start,
		},
	}
}

// sortByScore sorts recommendations by score descending, ties keeping
// input order.
func sortByScore(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
}
