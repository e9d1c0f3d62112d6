// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"hash/fnv"
	"time"
)

// A/B experiment arms for the recommendation ranking experiment.
const (
	// GroupA ranks purely by popularity.
	GroupA = "A"
	// GroupB personalizes without the popularity slice.
	GroupB = "B"
	// GroupControl serves the default aggregate.
	GroupControl = "control"
)

// abTestPopularLimit is the result cap for the popularity-only arm.
const abTestPopularLimit = 10

// AssignGroup deterministically buckets a user into experiment arm A or B
// by hashing the user ID. An empty ID lands in the control group.
func AssignGroup(userID string) string {
	if userID == "" {
		return GroupControl
	}
	h := fnv.New32a()
	h.Write([]byte(userID))
	if h.Sum32()%2 == 0 {
		return GroupA
	}
	return GroupB
}

// ABTest serves one arm of the ranking experiment:
//
//	A: popularity only, top 10
//	B: personalized, popularity slice disabled
//	anything else: the default aggregate
func ABTest(user *PeerUser, items []Item, peers []PeerUser, group string, keywords SeasonKeywords, now time.Time) []Recommendation {
	switch group {
	case GroupA:
		return Popular(items, abTestPopularLimit)
	case GroupB:
		opts := DefaultOptions()
		opts.IncludePopular = false
		return Generate(user, items, peers, opts, keywords, now)
	default:
		return Generate(user, items, peers, DefaultOptions(), keywords, now)
	}
}
