// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "strings"

// SeasonalTrends returns items whose name, description, or tags contain any
// of the season's keywords, tagged ReasonSeasonalTrend. Input order is
// preserved. A nil keywords map falls back to the defaults; an unknown
// season matches nothing.
func SeasonalTrends(season Season, keywords SeasonKeywords, items []Item) []Recommendation {
	if keywords == nil {
		keywords = DefaultSeasonKeywords()
	}
	kws := keywords[season]
	if len(kws) == 0 {
		return nil
	}

	var recs []Recommendation
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		if !matchesAnyKeyword(&items[i], kws) {
			continue
		}
		recs = append(recs, Recommendation{
			Item:   items[i],
			Reason: ReasonSeasonalTrend,
		})
	}
	return recs
}

// matchesAnyKeyword reports whether the item's name, description, or any
// tag contains one of the keywords. Matching is case-insensitive.
func matchesAnyKeyword(it *Item, keywords []string) bool {
	name := strings.ToLower(it.Name)
	desc := strings.ToLower(it.Description)

	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(name, k) || strings.Contains(desc, k) {
			return true
		}
		for _, tag := range it.Tags {
			if strings.Contains(strings.ToLower(tag), k) {
				return true
			}
		}
	}
	return false
}
