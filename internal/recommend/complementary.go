// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "sort"

// maxComplementary caps the bought-together result list.
const maxComplementary = 5

// Complementary recommends items frequently bought together with the cart
// contents: for every past order containing a cart item, each other item in
// that order (not itself in the cart) earns one co-occurrence point, and
// the same order counts again for every cart item it contains. Results are
// tagged ReasonBoughtTogether, sorted by frequency descending (ties keep
// first-seen order), and capped at 5.
func Complementary(cart []CartItem, history []Order) []Recommendation {
	if len(cart) == 0 || len(history) == 0 {
		return nil
	}

	inCart := make(map[string]struct{}, len(cart))
	for _, ci := range cart {
		if ci.ID != "" {
			inCart[ci.ID] = struct{}{}
		}
	}

	var recs []Recommendation
	index := make(map[string]int)

	for _, ci := range cart {
		if ci.ID == "" {
			continue
		}
		for _, order := range history {
			if !orderContains(&order, ci.ID) {
				continue
			}
			for _, it := range order.Items {
				if it.ID == "" || it.ID == ci.ID {
					continue
				}
				if _, ok := inCart[it.ID]; ok {
					continue
				}
				if idx, ok := index[it.ID]; ok {
					recs[idx].Frequency++
					continue
				}
				index[it.ID] = len(recs)
				recs = append(recs, Recommendation{
					Item:      it,
					Reason:    ReasonBoughtTogether,
					Frequency: 1,
				})
			}
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Frequency > recs[j].Frequency
	})

	if len(recs) > maxComplementary {
		recs = recs[:maxComplementary]
	}
	return recs
}

// orderContains reports whether the order includes an item with the id.
func orderContains(order *Order, id string) bool {
	for _, it := range order.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}
