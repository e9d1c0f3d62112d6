// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "time"

// Reason explains why an item was recommended. The storefront maps these
// tags to localized display text; the engine never emits free-form strings.
type Reason string

const (
	// ReasonSimilarUsers marks items purchased by users with similar taste.
	ReasonSimilarUsers Reason = "similar_users"
	// ReasonSameCategory marks items from the same category as the anchor.
	ReasonSameCategory Reason = "same_category"
	// ReasonSimilarPrice marks items in a close price band to the anchor.
	ReasonSimilarPrice Reason = "similar_price"
	// ReasonHighRated marks items with a rating of 4.5 or above.
	ReasonHighRated Reason = "high_rated"
	// ReasonPopular marks items ranked by the popularity score.
	ReasonPopular Reason = "popular"
	// ReasonNewProduct marks recently added items.
	ReasonNewProduct Reason = "new_product"
	// ReasonBoughtTogether marks items that co-occur with cart items in
	// past orders.
	ReasonBoughtTogether Reason = "frequently_bought_together"
	// ReasonSeasonalTrend marks items matching the current season's keywords.
	ReasonSeasonalTrend Reason = "seasonal_trend"
	// ReasonPopularAddon marks cheap, well-rated checkout add-ons.
	ReasonPopularAddon Reason = "popular_addon"
	// ReasonPriceRange marks items close to a requested budget.
	ReasonPriceRange Reason = "price_range"
)

// Item is a catalog entry (menu item or course) as seen by the engine.
// Items are immutable snapshots owned by the catalog store; optional fields
// are zero-valued when absent and every scoring function tolerates that.
type Item struct {
	// ID uniquely identifies the item. Items without an ID cannot be
	// deduplicated or referenced and are skipped by every strategy.
	ID string `json:"id"`

	// Name is the display name. Upstream records carrying "title" instead
	// are normalized into this field at ingestion.
	Name string `json:"name"`

	// Category is the catalog category (e.g. "ingredients", "tools").
	Category string `json:"category"`

	// Price in the storefront's minor currency unit.
	Price float64 `json:"price"`

	// Rating is the average review rating (0-5). Zero means unrated.
	Rating float64 `json:"rating,omitempty"`

	// Sales is the lifetime units sold.
	Sales int `json:"sales,omitempty"`

	// Tags are free-form labels used for similarity and seasonal matching.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the item was added to the catalog. Zero means
	// unknown, which excludes the item from new-product recommendations.
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Description is the display description.
	Description string `json:"description,omitempty"`

	// Active reports whether the item is currently purchasable. The
	// storefront soft-deletes items; inactive ones are never recommended
	// in contextual placements.
	Active bool `json:"active"`
}

// UserProfile carries the preference signals the engine scores against.
// Never mutated by the engine.
type UserProfile struct {
	// ID uniquely identifies the user.
	ID string `json:"id"`

	// PreferredCategories are the user's stated or derived category
	// preferences. Empty means unknown.
	PreferredCategories []string `json:"preferred_categories,omitempty"`

	// AverageSpending is the user's mean order value. Zero means unknown.
	AverageSpending float64 `json:"average_spending,omitempty"`
}

// ViewedItem is a single product-view event in a user's history.
type ViewedItem struct {
	// Category of the viewed item.
	Category string `json:"category"`

	// ViewedAt is when the view happened.
	ViewedAt time.Time `json:"viewed_at"`
}

// UserHistory is a user's purchase and browsing history.
type UserHistory struct {
	// PurchasedItems are items the user has bought.
	PurchasedItems []Item `json:"purchased_items,omitempty"`

	// ViewedItems are recent product views.
	ViewedItems []ViewedItem `json:"viewed_items,omitempty"`
}

// PeerUser is another user's profile plus purchases, used for
// collaborative filtering. Similarity is derived per call and never stored.
type PeerUser struct {
	UserProfile

	// PurchasedItems are the peer's purchases.
	PurchasedItems []Item `json:"purchased_items,omitempty"`
}

// CartItem is an item in the shopping cart.
type CartItem struct {
	Item

	// Quantity is the number of units in the cart, at least 1.
	Quantity int `json:"quantity"`
}

// Order is a past order used for co-occurrence scoring.
type Order struct {
	// ID uniquely identifies the order.
	ID string `json:"id"`

	// UserID is the buyer.
	UserID string `json:"user_id,omitempty"`

	// Items are the order's line items.
	Items []Item `json:"items"`

	// PlacedAt is when the order was placed.
	PlacedAt time.Time `json:"placed_at,omitempty"`
}

// Recommendation is an Item plus the reason it was selected and optional
// ranking diagnostics. Score is additive and never negative; Frequency is
// only set by co-occurrence scoring; Similarity only by content-based
// filtering.
type Recommendation struct {
	Item

	// Reason is the display tag explaining the recommendation.
	Reason Reason `json:"reason,omitempty"`

	// Score is the strategy-assigned ranking score.
	Score float64 `json:"score,omitempty"`

	// Frequency is the co-occurrence count for bought-together items.
	Frequency int `json:"frequency,omitempty"`

	// Similarity is the item-item similarity for content-based results.
	Similarity float64 `json:"similarity,omitempty"`
}
