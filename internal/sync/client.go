// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

// Package sync keeps the local catalog store in step with the upstream
// storefront. A Manager pulls items, users, and orders from the
// storefront export API on a fixed interval; the HTTP client is
// protected by a circuit breaker and a rate limiter so a slow or
// failing storefront never cascades into the recommendation service.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cavaks-kitchen/palate/internal/config"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/metrics"
	"github.com/cavaks-kitchen/palate/internal/recommend"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// apiKeyHeader carries the storefront export API key.
const apiKeyHeader = "X-Palate-Key"

// wireItem is a menu item as the storefront exports it. The storefront
// uses "title" and a string status; the engine uses Name and Active.
type wireItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Sales       int       `json:"sales"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

// toItem normalizes a storefront item to the engine's representation.
func (w *wireItem) toItem() recommend.Item {
	return recommend.Item{
		ID:          w.ID,
		Name:        w.Title,
		Category:    w.Category,
		Price:       w.Price,
		Rating:      w.Rating,
		Sales:       w.Sales,
		Tags:        w.Tags,
		CreatedAt:   w.CreatedAt,
		Description: w.Description,
		Active:      w.Status == "active",
	}
}

// wireUser is a user as the storefront exports it: profile plus
// purchase and view history in one record.
type wireUser struct {
	ID                  string           `json:"id"`
	PreferredCategories []string         `json:"preferredCategories"`
	AverageSpending     float64          `json:"averageSpending"`
	PurchasedItems      []wireItem       `json:"purchasedItems"`
	ViewedItems         []wireViewedItem `json:"viewedItems"`
}

type wireViewedItem struct {
	Category string    `json:"category"`
	ViewedAt time.Time `json:"viewedAt"`
}

// wireOrder is an order as the storefront exports it.
type wireOrder struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Items    []wireItem `json:"items"`
	PlacedAt time.Time  `json:"placedAt"`
}

// Client fetches catalog exports from the upstream storefront. All
// requests pass through a rate limiter and a circuit breaker.
//
// The circuit breaker uses real time for its interval and timeout
// calculations; tests should stub the upstream, not the breaker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
	name       string
}

// NewClient creates a storefront export client.
//
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewClient(cfg config.SyncConfig) *Client {
	name := "storefront-export"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening storefront circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("storefront circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			if to == gobreaker.StateOpen {
				metrics.CircuitBreakerTrips.WithLabelValues(name).Inc()
			}
		},
	})

	return &Client{
		baseURL: cfg.UpstreamURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cb:      cb,
		name:    name,
	}
}

// BreakerOpen reports whether the circuit breaker is currently open.
func (c *Client) BreakerOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}

// FetchItems retrieves the full menu export.
func (c *Client) FetchItems(ctx context.Context) ([]recommend.Item, error) {
	var wire []wireItem
	if err := c.fetch(ctx, "/export/items", &wire); err != nil {
		return nil, err
	}

	items := make([]recommend.Item, 0, len(wire))
	for i := range wire {
		items = append(items, wire[i].toItem())
	}
	return items, nil
}

// FetchUsers retrieves user profiles with their histories.
func (c *Client) FetchUsers(ctx context.Context) ([]recommend.UserProfile, map[string]*recommend.UserHistory, error) {
	var wire []wireUser
	if err := c.fetch(ctx, "/export/users", &wire); err != nil {
		return nil, nil, err
	}

	profiles := make([]recommend.UserProfile, 0, len(wire))
	histories := make(map[string]*recommend.UserHistory, len(wire))
	for i := range wire {
		u := &wire[i]
		profiles = append(profiles, recommend.UserProfile{
			ID:                  u.ID,
			PreferredCategories: u.PreferredCategories,
			AverageSpending:     u.AverageSpending,
		})

		history := &recommend.UserHistory{}
		for j := range u.PurchasedItems {
			history.PurchasedItems = append(history.PurchasedItems, u.PurchasedItems[j].toItem())
		}
		for _, v := range u.ViewedItems {
			history.ViewedItems = append(history.ViewedItems, recommend.ViewedItem{
				Category: v.Category,
				ViewedAt: v.ViewedAt,
			})
		}
		histories[u.ID] = history
	}
	return profiles, histories, nil
}

// FetchOrders retrieves the order export.
func (c *Client) FetchOrders(ctx context.Context) ([]recommend.Order, error) {
	var wire []wireOrder
	if err := c.fetch(ctx, "/export/orders", &wire); err != nil {
		return nil, err
	}

	orders := make([]recommend.Order, 0, len(wire))
	for i := range wire {
		o := &wire[i]
		order := recommend.Order{
			ID:       o.ID,
			UserID:   o.UserID,
			PlacedAt: o.PlacedAt,
		}
		for j := range o.Items {
			order.Items = append(order.Items, o.Items[j].toItem())
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// fetch performs a rate-limited, breaker-protected GET and decodes the
// JSON response into out.
func (c *Client) fetch(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Str("path", path).Msg("storefront request rejected by circuit breaker")
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("storefront request %s: status %d: %s", path, resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}

// readBodyForError reads a bounded portion of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
