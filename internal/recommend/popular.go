// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "sort"

// Popularity score weights: lifetime sales dominate, rating breaks near-ties.
const (
	popularSalesWeight  = 0.7
	popularRatingWeight = 0.3
)

// PopularityScore computes an item's popularity ranking score,
// sales*0.7 + rating*0.3 with missing fields treated as 0.
func PopularityScore(it *Item) float64 {
	if it == nil {
		return 0
	}
	return float64(it.Sales)*popularSalesWeight + it.Rating*popularRatingWeight
}

// Popular ranks items by popularity score descending, tags them
// ReasonPopular, and returns at most limit entries. Ties keep catalog
// order. Items without an ID are skipped.
func Popular(items []Item, limit int) []Recommendation {
	recs := make([]Recommendation, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Item:   items[i],
			Reason: ReasonPopular,
			Score:  PopularityScore(&items[i]),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
