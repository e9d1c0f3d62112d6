// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "sort"

const (
	// similarUserThreshold is the minimum similarity for a peer to count.
	similarUserThreshold = 0.3

	// maxSimilarUsers caps the peer neighborhood size.
	maxSimilarUsers = 10

	// collaborativeScoreScale converts a peer similarity into score points
	// per recommended purchase.
	collaborativeScoreScale = 10
)

// scoredPeer is a peer annotated with its similarity to the target user.
type scoredPeer struct {
	peer       *PeerUser
	similarity float64
}

// similarPeers returns peers with similarity above the threshold, highest
// first, capped at maxSimilarUsers. The target itself is never a peer.
func similarPeers(target *PeerUser, peers []PeerUser) []scoredPeer {
	scored := make([]scoredPeer, 0, len(peers))
	for i := range peers {
		if peers[i].ID == target.ID {
			continue
		}
		sim := UserSimilarity(target, &peers[i])
		if sim > similarUserThreshold {
			scored = append(scored, scoredPeer{peer: &peers[i], similarity: sim})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})

	if len(scored) > maxSimilarUsers {
		scored = scored[:maxSimilarUsers]
	}
	return scored
}

// Collaborative recommends items purchased by users similar to the target:
// peers with similarity > 0.3 (top 10 by similarity) contribute
// similarity*10 score points for each of their purchases the target does
// not already own, accumulated per distinct item across peers. Results are
// tagged ReasonSimilarUsers and sorted by accumulated score descending.
//
// A nil target yields no recommendations.
func Collaborative(target *PeerUser, peers []PeerUser) []Recommendation {
	if target == nil {
		return nil
	}

	owned := make(map[string]struct{}, len(target.PurchasedItems))
	for _, it := range target.PurchasedItems {
		if it.ID != "" {
			owned[it.ID] = struct{}{}
		}
	}

	var recs []Recommendation
	index := make(map[string]int)

	for _, sp := range similarPeers(target, peers) {
		for _, it := range sp.peer.PurchasedItems {
			if it.ID == "" {
				continue
			}
			if _, ok := owned[it.ID]; ok {
				continue
			}
			points := sp.similarity * collaborativeScoreScale
			if idx, ok := index[it.ID]; ok {
				recs[idx].Score += points
				continue
			}
			index[it.ID] = len(recs)
			recs = append(recs, Recommendation{
				Item:   it,
				Reason: ReasonSimilarUsers,
				Score:  points,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs
}
