// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cavaks-kitchen/palate/internal/logging"
)

// mockProvider is a hand-rolled DataProvider for engine tests.
type mockProvider struct {
	items    []Item
	profiles map[string]*UserProfile
	history  map[string]*UserHistory
	peers    []PeerUser
	orders   []Order

	itemsErr error
}

func (m *mockProvider) Items(_ context.Context) ([]Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items, nil
}

func (m *mockProvider) ItemByID(_ context.Context, id string) (*Item, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			it := m.items[i]
			return &it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (m *mockProvider) Profile(_ context.Context, userID string) (*UserProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return p, nil
}

func (m *mockProvider) History(_ context.Context, userID string) (*UserHistory, error) {
	if h, ok := m.history[userID]; ok {
		return h, nil
	}
	return &UserHistory{}, nil
}

func (m *mockProvider) Peers(_ context.Context, excludeUserID string) ([]PeerUser, error) {
	var out []PeerUser
	for _, p := range m.peers {
		if p.ID != excludeUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProvider) Orders(_ context.Context) ([]Order, error) {
	return m.orders, nil
}

func newTestEngine(t *testing.T, provider *mockProvider) *Engine {
	t.Helper()
	eng, err := NewEngine(provider, DefaultEngineConfig(), logging.NewTestLogger(nil))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.SetClock(func() time.Time { return testNow })
	return eng
}

func testProvider() *mockProvider {
	items, target, peers := aggregateFixture()
	return &mockProvider{
		items: items,
		profiles: map[string]*UserProfile{
			"me": &target.UserProfile,
		},
		history: map[string]*UserHistory{
			"me": {PurchasedItems: target.PurchasedItems},
		},
		peers: append(peers, *target),
		orders: []Order{
			{ID: "o1", Items: []Item{{ID: "1"}, {ID: "4", Name: "Olive oil", Price: 1500, Rating: 4.6, Sales: 500}}},
		},
	}
}

func TestEngineForUser(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	resp, err := eng.ForUser(context.Background(), "me", DefaultOptions())
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("expected recommendations for a known user")
	}
	if resp.Metadata.Strategy != "aggregate" || resp.Metadata.UserID != "me" {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("metadata must carry a request id")
	}

	seen := make(map[string]bool)
	for _, rec := range resp.Recommendations {
		if seen[rec.ID] {
			t.Errorf("duplicate id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestEngineForUserUnknown(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	_, err := eng.ForUser(context.Background(), "ghost", DefaultOptions())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestEngineHomeHasNoCollaborative(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	resp, err := eng.Home(context.Background(), DefaultOptions())
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	for _, rec := range resp.Recommendations {
		if rec.Reason == ReasonSimilarUsers {
			t.Error("anonymous home feed must not contain collaborative results")
		}
	}
}

func TestEngineLimitClamped(t *testing.T) {
	provider := testProvider()
	eng := newTestEngine(t, provider)

	opts := DefaultOptions()
	opts.Limit = 10000
	resp, err := eng.ForUser(context.Background(), "me", opts)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(resp.Recommendations) > eng.Config().MaxLimit {
		t.Errorf("limit not clamped: %d results", len(resp.Recommendations))
	}
}

func TestEngineRelatedToUnknownItem(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	_, err := eng.RelatedTo(context.Background(), "nope")
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestEngineLastChanceResolvesBareCartRefs(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	resp, err := eng.LastChanceFor(context.Background(), []CartItem{{Item: Item{ID: "1"}}})
	if err != nil {
		t.Fatalf("LastChanceFor: %v", err)
	}
	for _, rec := range resp.Recommendations {
		if rec.ID == "1" {
			t.Error("cart item leaked into last-chance results")
		}
	}
	// Order o1 pairs item 1 with item 4.
	var foundComplementary bool
	for _, rec := range resp.Recommendations {
		if rec.ID == "4" && rec.Reason == ReasonBoughtTogether {
			foundComplementary = true
		}
	}
	if !foundComplementary {
		t.Error("expected item 4 as a bought-together recommendation")
	}
}

func TestEngineSeasonalDefaultsToClock(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	resp, err := eng.SeasonalItems(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("SeasonalItems: %v", err)
	}
	if resp.Metadata.Season != SeasonWinter {
		t.Errorf("season = %s, want winter for january clock", resp.Metadata.Season)
	}
}

func TestEngineExperimentAssignsGroup(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	resp, err := eng.Experiment(context.Background(), "me", "")
	if err != nil {
		t.Fatalf("Experiment: %v", err)
	}
	if resp.Metadata.Group != GroupA && resp.Metadata.Group != GroupB {
		t.Errorf("group = %q, want A or B", resp.Metadata.Group)
	}

	pinned, err := eng.Experiment(context.Background(), "me", GroupA)
	if err != nil {
		t.Fatalf("Experiment pinned: %v", err)
	}
	if pinned.Metadata.Group != GroupA {
		t.Errorf("pinned group = %q, want A", pinned.Metadata.Group)
	}
}

func TestEnginePropagatesProviderError(t *testing.T) {
	provider := testProvider()
	provider.itemsErr = errors.New("store offline")
	eng := newTestEngine(t, provider)

	if _, err := eng.Home(context.Background(), DefaultOptions()); err == nil {
		t.Error("expected provider error to propagate")
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(nil, DefaultEngineConfig(), logging.NewTestLogger(nil)); err == nil {
		t.Error("nil provider must be rejected")
	}

	bad := DefaultEngineConfig()
	bad.DefaultLimit = 0
	if _, err := NewEngine(&mockProvider{}, bad, logging.NewTestLogger(nil)); err == nil {
		t.Error("invalid config must be rejected")
	}
}
