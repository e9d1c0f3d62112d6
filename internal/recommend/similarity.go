// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "math"

// Factor weights shared by both similarity measures.
const (
	weightCategory = 0.4
	weightPrice    = 0.3
	weightOverlap  = 0.3
)

// UserSimilarity computes the similarity of two users in [0, 1] as a
// weighted average over up to three factors: preferred-category overlap
// (0.4), spending closeness (0.3), and purchase overlap (0.3). A factor
// contributes only when both users carry the relevant data, and the result
// is renormalized over the weights that actually contributed. Returns 0
// when no factor is available.
func UserSimilarity(u1, u2 *PeerUser) float64 {
	if u1 == nil || u2 == nil {
		return 0
	}

	var similarity, factors float64

	if len(u1.PreferredCategories) > 0 && len(u2.PreferredCategories) > 0 {
		common := countCommonStrings(u1.PreferredCategories, u2.PreferredCategories)
		denom := float64(max(len(u1.PreferredCategories), len(u2.PreferredCategories)))
		similarity += (float64(common) / denom) * weightCategory
		factors += weightCategory
	}

	if u1.AverageSpending > 0 && u2.AverageSpending > 0 {
		diff := math.Abs(u1.AverageSpending - u2.AverageSpending)
		maxSpend := math.Max(u1.AverageSpending, u2.AverageSpending)
		similarity += (1 - diff/maxSpend) * weightPrice
		factors += weightPrice
	}

	if len(u1.PurchasedItems) > 0 && len(u2.PurchasedItems) > 0 {
		common := countCommonItems(u1.PurchasedItems, u2.PurchasedItems)
		denom := float64(max(len(u1.PurchasedItems), len(u2.PurchasedItems)))
		similarity += (float64(common) / denom) * weightOverlap
		factors += weightOverlap
	}

	if factors == 0 {
		return 0
	}
	return similarity / factors
}

// ItemSimilarity computes the similarity of two items in [0, 1]: category
// exact match (0.4), price closeness (0.3), and tag overlap (0.3).
//
// Unlike UserSimilarity the denominator is always the full weight sum of
// 1.0, even when the tag factor is absent (it contributes 0). The asymmetry
// between the two measures is longstanding ranking behavior; changing it
// reorders results.
func ItemSimilarity(i1, i2 *Item) float64 {
	if i1 == nil || i2 == nil {
		return 0
	}

	var similarity float64

	if i1.Category == i2.Category && i1.Category != "" {
		similarity += weightCategory
	}

	similarity += priceCloseness(i1.Price, i2.Price) * weightPrice

	if len(i1.Tags) > 0 && len(i2.Tags) > 0 {
		common := countCommonStrings(i1.Tags, i2.Tags)
		denom := float64(max(len(i1.Tags), len(i2.Tags)))
		similarity += (float64(common) / denom) * weightOverlap
	}

	return similarity
}

// priceCloseness maps two prices to [0, 1]: 1 for identical prices,
// approaching 0 as they diverge. Clamped at 0 so distant prices cannot
// drive the similarity negative.
func priceCloseness(p1, p2 float64) float64 {
	avg := (p1 + p2) / 2
	if avg == 0 {
		return 1
	}
	closeness := 1 - math.Abs(p1-p2)/avg
	if closeness < 0 {
		return 0
	}
	return closeness
}

// countCommonStrings counts values of a that also appear in b,
// duplicates in a counted once each as they occur.
func countCommonStrings(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var n int
	for _, s := range a {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

// countCommonItems counts items of a whose ID also appears in b.
func countCommonItems(a, b []Item) int {
	set := make(map[string]struct{}, len(b))
	for _, it := range b {
		if it.ID != "" {
			set[it.ID] = struct{}{}
		}
	}
	var n int
	for _, it := range a {
		if _, ok := set[it.ID]; ok {
			n++
		}
	}
	return n
}
