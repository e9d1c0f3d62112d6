// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "testing"

func TestRelatedReasonPriority(t *testing.T) {
	anchor := Item{ID: "a", Category: "tools", Price: 1000, Active: true}
	catalog := []Item{
		anchor,
		// Same category and similar price: category wins the reason.
		{ID: "both", Category: "tools", Price: 1100, Active: true},
		{ID: "price", Category: "ingredients", Price: 1200, Active: true},
		{ID: "rated", Category: "ingredients", Price: 9000, Rating: 4.7, Active: true},
		{ID: "inactive", Category: "tools", Price: 1000, Active: false},
		{ID: "none", Category: "ingredients", Price: 9000, Rating: 2.0, Active: true},
	}

	got := Related(&anchor, catalog)

	want := map[string]Reason{
		"both":  ReasonSameCategory,
		"price": ReasonSimilarPrice,
		"rated": ReasonHighRated,
	}
	if len(got) != len(want) {
		t.Fatalf("Related returned %d items, want %d: %+v", len(got), len(want), got)
	}
	for _, rec := range got {
		wantReason, ok := want[rec.ID]
		if !ok {
			t.Errorf("unexpected item %s", rec.ID)
			continue
		}
		if rec.Reason != wantReason {
			t.Errorf("item %s reason = %s, want %s", rec.ID, rec.Reason, wantReason)
		}
	}
	// Priority order: category matches first, then price, then rating.
	if got[0].ID != "both" || got[1].ID != "price" || got[2].ID != "rated" {
		t.Errorf("order = [%s %s %s], want [both price rated]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestRelatedCap(t *testing.T) {
	anchor := Item{ID: "a", Category: "tools", Price: 1000, Active: true}
	catalog := []Item{anchor}
	for i := 0; i < 12; i++ {
		catalog = append(catalog, Item{
			ID:       string(rune('b' + i)),
			Category: "tools",
			Price:    1000,
			Active:   true,
		})
	}

	if got := Related(&anchor, catalog); len(got) != maxRelated {
		t.Errorf("Related returned %d items, want %d", len(got), maxRelated)
	}
}

func TestRelatedNilAnchor(t *testing.T) {
	if got := Related(nil, []Item{{ID: "1"}}); got != nil {
		t.Errorf("Related(nil) = %v, want nil", got)
	}
}

func TestLastChanceComposition(t *testing.T) {
	cart := []CartItem{{Item: Item{ID: "pan", Price: 3000}, Quantity: 1}}
	history := []Order{
		{ID: "o1", Items: []Item{{ID: "pan"}, {ID: "spatula", Price: 800, Rating: 3.0}}},
	}
	items := []Item{
		{ID: "pan", Price: 3000, Rating: 4.5, Sales: 900},
		{ID: "salt", Price: 400, Rating: 4.2, Sales: 700},
		{ID: "oil", Price: 900, Rating: 4.8, Sales: 400},
		{ID: "truffle", Price: 12000, Rating: 5.0, Sales: 50},
		{ID: "meh", Price: 300, Rating: 3.0, Sales: 1000},
	}

	got := LastChance(cart, history, items)

	if len(got) == 0 || got[0].ID != "spatula" || got[0].Reason != ReasonBoughtTogether {
		t.Fatalf("first entry should be the bought-together item, got %+v", got)
	}

	for _, rec := range got {
		if rec.ID == "pan" {
			t.Error("cart item must never appear in last-chance results")
		}
		if rec.ID == "truffle" {
			t.Error("items at 5000 or more must not be add-ons")
		}
		if rec.ID == "meh" {
			t.Error("items rated below 4.0 must not be add-ons")
		}
	}

	// Add-ons are ordered by sales: salt (700) before oil (400).
	var addons []string
	for _, rec := range got {
		if rec.Reason == ReasonPopularAddon {
			addons = append(addons, rec.ID)
		}
	}
	if len(addons) != 2 || addons[0] != "salt" || addons[1] != "oil" {
		t.Errorf("addons = %v, want [salt oil]", addons)
	}
}

func TestLastChanceCap(t *testing.T) {
	cart := []CartItem{{Item: Item{ID: "anchor"}}}
	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, Item{
			ID:     string(rune('a' + i)),
			Price:  1000,
			Rating: 4.5,
			Sales:  i,
		})
	}

	if got := LastChance(cart, nil, items); len(got) > maxLastChance {
		t.Errorf("LastChance returned %d items, want at most %d", len(got), maxLastChance)
	}
}

func TestAssignGroupDeterministic(t *testing.T) {
	if AssignGroup("") != GroupControl {
		t.Error("empty user id should land in the control group")
	}
	a := AssignGroup("user-42")
	for i := 0; i < 5; i++ {
		if AssignGroup("user-42") != a {
			t.Fatal("group assignment must be deterministic")
		}
	}
	if a != GroupA && a != GroupB {
		t.Errorf("assignment = %q, want A or B", a)
	}
}

func TestABTestArms(t *testing.T) {
	items, target, peers := aggregateFixture()

	popOnly := ABTest(target, items, peers, GroupA, nil, testNow)
	for _, rec := range popOnly {
		if rec.Reason != ReasonPopular {
			t.Errorf("arm A must be popularity only, got reason %s", rec.Reason)
		}
	}

	personalized := ABTest(target, items, peers, GroupB, nil, testNow)
	for _, rec := range personalized {
		if rec.Reason == ReasonPopular {
			t.Error("arm B must not contain popularity results")
		}
	}

	control := ABTest(target, items, peers, GroupControl, nil, testNow)
	if len(control) == 0 {
		t.Error("control arm should serve the default aggregate")
	}
}
