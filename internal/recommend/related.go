// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"math"
	"sort"
)

// Placement caps for the contextual variants.
const (
	maxRelated        = 8
	maxLastChance     = 6
	maxPopularAddons  = 4
	addonMaxPrice     = 5000
	addonMinRating    = 4.0
	relatedHighRating = 4.5
)

// Related returns the product-detail placement for an anchor item: active
// items (excluding the anchor) that share its category, sit within 50% of
// its price, or are rated 4.5+. An item matching several rules keeps the
// highest-priority reason: same_category, then similar_price, then
// high_rated. Order follows that priority, capped at 8.
func Related(anchor *Item, items []Item) []Recommendation {
	if anchor == nil {
		return nil
	}

	var sameCategory, similarPrice, highRated []Recommendation
	for i := range items {
		it := &items[i]
		if it.ID == "" || it.ID == anchor.ID || !it.Active {
			continue
		}
		switch {
		case it.Category == anchor.Category:
			sameCategory = append(sameCategory, Recommendation{Item: items[i], Reason: ReasonSameCategory})
		case math.Abs(it.Price-anchor.Price) < anchor.Price*0.5:
			similarPrice = append(similarPrice, Recommendation{Item: items[i], Reason: ReasonSimilarPrice})
		case it.Rating >= relatedHighRating:
			highRated = append(highRated, Recommendation{Item: items[i], Reason: ReasonHighRated})
		}
	}

	combined := make([]Recommendation, 0, len(sameCategory)+len(similarPrice)+len(highRated))
	combined = append(combined, sameCategory...)
	combined = append(combined, similarPrice...)
	combined = append(combined, highRated...)

	return take(combined, maxRelated)
}

// LastChance returns the checkout placement: bought-together items for the
// cart followed by popular cheap add-ons (price under 5000, rating 4.0+,
// not in the cart, best sellers first, top 4), capped at 6 overall.
func LastChance(cart []CartItem, history []Order, items []Item) []Recommendation {
	recs := Complementary(cart, history)

	inCart := make(map[string]struct{}, len(cart))
	for _, ci := range cart {
		if ci.ID != "" {
			inCart[ci.ID] = struct{}{}
		}
	}

	var addons []Recommendation
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			continue
		}
		if _, ok := inCart[it.ID]; ok {
			continue
		}
		if it.Price >= addonMaxPrice || it.Rating < addonMinRating {
			continue
		}
		addons = append(addons, Recommendation{Item: items[i], Reason: ReasonPopularAddon})
	}

	sort.SliceStable(addons, func(i, j int) bool {
		return addons[i].Sales > addons[j].Sales
	})

	recs = append(recs, take(addons, maxPopularAddons)...)
	return take(recs, maxLastChance)
}
