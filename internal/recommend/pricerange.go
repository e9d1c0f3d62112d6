// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"math"
	"sort"
)

// Budget window bounds relative to the requested budget.
const (
	budgetLowFactor  = 0.5
	budgetHighFactor = 1.5
)

// PriceBased returns items priced within [0.5*budget, 1.5*budget], closest
// to the budget first, tagged ReasonPriceRange. A non-positive budget
// yields no recommendations.
func PriceBased(budget float64, items []Item) []Recommendation {
	if budget <= 0 {
		return nil
	}

	low := budget * budgetLowFactor
	high := budget * budgetHighFactor

	var recs []Recommendation
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		if items[i].Price < low || items[i].Price > high {
			continue
		}
		recs = append(recs, Recommendation{
			Item:   items[i],
			Reason: ReasonPriceRange,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return math.Abs(recs[i].Price-budget) < math.Abs(recs[j].Price-budget)
	})
	return recs
}
