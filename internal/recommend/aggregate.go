// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"sort"
	"time"
)

// Per-strategy slice sizes fed into the aggregate before deduplication.
const (
	aggregateCollaborativeTake = 5
	aggregatePopularTake       = 5
	aggregateNewTake           = 5
	aggregateSeasonalTake      = 3
)

// DefaultLimit is the aggregate result cap when the caller sets none.
const DefaultLimit = 20

// Options selects which strategies the aggregator composes and how many
// results it returns. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// IncludeCollaborative enables peer-based recommendations. It only
	// takes effect for a known user; anonymous callers never get
	// collaborative results regardless of this flag.
	IncludeCollaborative bool `json:"include_collaborative"`

	// IncludeContentBased is accepted for API compatibility with the
	// storefront but does not contribute to the aggregate; content-based
	// results are served through the related-products placement.
	IncludeContentBased bool `json:"include_content_based"`

	// IncludeSeasonal enables seasonal keyword matches.
	IncludeSeasonal bool `json:"include_seasonal"`

	// IncludePopular enables popularity-ranked items.
	IncludePopular bool `json:"include_popular"`

	// IncludeNew enables recently added items.
	IncludeNew bool `json:"include_new"`

	// Limit caps the aggregate result list. Non-positive falls back to
	// DefaultLimit.
	Limit int `json:"limit"`
}

// DefaultOptions returns the storefront defaults: every strategy enabled,
// limit 20.
func DefaultOptions() Options {
	return Options{
		IncludeCollaborative: true,
		IncludeContentBased:  true,
		IncludeSeasonal:      true,
		IncludePopular:       true,
		IncludeNew:           true,
		Limit:                DefaultLimit,
	}
}

// normalize fills in defaults for unset fields.
func (o Options) normalize() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Generate composes the enabled strategies into one ranked list:
// collaborative top 5 (known users only), popular top 5, new products
// (30-day window) top 5, and seasonal top 3, in that order. Duplicates are
// merged by item ID: the first occurrence keeps its slot, and a later
// duplicate with a strictly higher score overwrites the kept record in
// place, reason included. The merged list is sorted by score descending
// (missing scores rank as 0, ties keep merge order) and truncated to
// opts.Limit.
//
// keywords may be nil to use the default seasonal sets. now drives both
// the new-product window and the season.
func Generate(user *PeerUser, items []Item, peers []PeerUser, opts Options, keywords SeasonKeywords, now time.Time) []Recommendation {
	opts = opts.normalize()

	var recs []Recommendation

	if opts.IncludeCollaborative && user != nil {
		recs = append(recs, take(Collaborative(user, peers), aggregateCollaborativeTake)...)
	}
	if opts.IncludePopular {
		recs = append(recs, Popular(items, aggregatePopularTake)...)
	}
	if opts.IncludeNew {
		recs = append(recs, take(NewProducts(items, DefaultNewProductWindow, now), aggregateNewTake)...)
	}
	if opts.IncludeSeasonal {
		recs = append(recs, take(SeasonalTrends(SeasonAt(now), keywords, items), aggregateSeasonalTake)...)
	}

	recs = dedupeByID(recs)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	return take(recs, opts.Limit)
}

// dedupeByID merges duplicate item IDs: first occurrence wins the slot,
// a strictly higher-scored duplicate overwrites the record in place.
func dedupeByID(recs []Recommendation) []Recommendation {
	out := recs[:0]
	index := make(map[string]int, len(recs))

	for _, rec := range recs {
		idx, seen := index[rec.ID]
		if !seen {
			index[rec.ID] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.Score > out[idx].Score {
			out[idx] = rec
		}
	}
	return out
}

// take returns at most n leading elements of recs.
func take(recs []Recommendation, n int) []Recommendation {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}
