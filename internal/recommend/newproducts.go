// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"sort"
	"time"
)

// DefaultNewProductWindow is the lookback used by the aggregator.
const DefaultNewProductWindow = 30 * 24 * time.Hour

// NewProducts returns items created within the window before now, newest
// first, tagged ReasonNewProduct. Items with an unknown creation time are
// treated as not new and excluded.
func NewProducts(items []Item, window time.Duration, now time.Time) []Recommendation {
	cutoff := now.Add(-window)

	recs := make([]Recommendation, 0, len(items))
	for i := range items {
		if items[i].ID == "" || items[i].CreatedAt.IsZero() {
			continue
		}
		if !items[i].CreatedAt.After(cutoff) {
			continue
		}
		recs = append(recs, Recommendation{
			Item:   items[i],
			Reason: ReasonNewProduct,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs
}
