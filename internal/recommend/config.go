// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import "fmt"

// Config tunes the engine facade. The scoring formulas themselves are
// fixed; only list sizes and the seasonal vocabulary are
// operator-adjustable.
type Config struct {
	// DefaultLimit is the aggregate list size when a request names none.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps request-supplied limits.
	MaxLimit int `json:"max_limit"`

	// NewProductDays is the new-product lookback window in days for the
	// standalone new-products listing. The aggregate always uses the fixed
	// DefaultNewProductWindow so its ranking stays comparable across
	// deployments.
	NewProductDays int `json:"new_product_days"`

	// SeasonKeywords overrides the per-season keyword sets. Nil uses the
	// defaults.
	SeasonKeywords SeasonKeywords `json:"season_keywords,omitempty"`
}

// DefaultEngineConfig returns the stock engine configuration.
func DefaultEngineConfig() Config {
	return Config{
		DefaultLimit:   DefaultLimit,
		MaxLimit:       100,
		NewProductDays: 30,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit %d must be >= default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.NewProductDays <= 0 {
		return fmt.Errorf("new_product_days must be positive, got %d", c.NewProductDays)
	}
	for season, kws := range c.SeasonKeywords {
		switch season {
		case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		default:
			return fmt.Errorf("unknown season %q in season_keywords", season)
		}
		if len(kws) == 0 {
			return fmt.Errorf("season_keywords[%s] must not be empty", season)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() Config {
	out := *c
	if c.SeasonKeywords != nil {
		out.SeasonKeywords = make(SeasonKeywords, len(c.SeasonKeywords))
		for season, kws := range c.SeasonKeywords {
			cp := make([]string, len(kws))
			copy(cp, kws)
			out.SeasonKeywords[season] = cp
		}
	}
	return out
}
