// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "sort"

// similarItemThreshold is the minimum item similarity worth surfacing.
const similarItemThreshold = 0.3

// ContentBased returns items similar to the anchor (similarity > 0.3),
// most similar first. The primitive assigns no Reason; callers tag results
// according to their placement.
func ContentBased(anchor *Item, items []Item) []Recommendation {
	if anchor == nil {
		return nil
	}

	var recs []Recommendation
	for i := range items {
		if items[i].ID == "" || items[i].ID == anchor.ID {
			continue
		}
		sim := ItemSimilarity(anchor, &items[i])
		if sim > similarItemThreshold {
			recs = append(recs, Recommendation{
				Item:       items[i],
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Similarity > recs[j].Similarity
	})
	return recs
}
