// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"math"
	"time"
)

// recentViewWindow bounds how far back a product view still boosts items
// in the same category.
const recentViewWindow = 7 * 24 * time.Hour

// ProfileScore computes a personalized relevance score for one item against
// a user's profile and history, rounded to the nearest integer:
//
//	base popularity: rating (default 4.0 when unrated) * 10
//	                 + min(sales/100, 5) * 5
//	+20 when the item's category is a preferred category
//	+15 when price/averageSpending falls in [0.5, 2.0]
//	+10 per purchased item sharing the category or a tag
//	 +5 per view of the same category within the last 7 days
//
// Missing profile or history fields simply skip their bonus.
func ProfileScore(item *Item, profile *UserProfile, history *UserHistory, now time.Time) float64 {
	if item == nil {
		return 0
	}

	rating := item.Rating
	if rating == 0 {
		rating = 4.0
	}
	score := rating * 10
	score += math.Min(float64(item.Sales)/100, 5) * 5

	if profile != nil {
		if containsString(profile.PreferredCategories, item.Category) {
			score += 20
		}
		if profile.AverageSpending > 0 {
			ratio := item.Price / profile.AverageSpending
			if ratio >= 0.5 && ratio <= 2.0 {
				score += 15
			}
		}
	}

	if history != nil {
		for _, purchased := range history.PurchasedItems {
			if purchased.Category == item.Category || sharesTag(purchased.Tags, item.Tags) {
				score += 10
			}
		}
		cutoff := now.Add(-recentViewWindow)
		for _, viewed := range history.ViewedItems {
			if viewed.Category == item.Category && viewed.ViewedAt.After(cutoff) {
				score += 5
			}
		}
	}

	return math.Round(score)
}

// containsString reports whether s appears in list.
func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sharesTag reports whether the two tag sets intersect.
func sharesTag(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return countCommonStrings(a, b) > 0
}
