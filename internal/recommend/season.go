// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package recommend

import (
	"fmt"
	"time"
)

// Season is a quarter of the culinary year.
type Season string

const (
	// SeasonSpring covers March through May.
	SeasonSpring Season = "spring"
	// SeasonSummer covers June through August.
	SeasonSummer Season = "summer"
	// SeasonAutumn covers September through November.
	SeasonAutumn Season = "autumn"
	// SeasonWinter covers December through February.
	SeasonWinter Season = "winter"
)

// SeasonForMonth maps a calendar month to its season.
func SeasonForMonth(month time.Month) Season {
	switch {
	case month >= time.March && month <= time.May:
		return SeasonSpring
	case month >= time.June && month <= time.August:
		return SeasonSummer
	case month >= time.September && month <= time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// SeasonAt returns the season for the given instant.
func SeasonAt(t time.Time) Season {
	return SeasonForMonth(t.Month())
}

// ParseSeason validates a caller-supplied season name. The empty string is
// accepted and means "derive from the clock".
func ParseSeason(s string) (Season, error) {
	switch Season(s) {
	case "", SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return Season(s), nil
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// SeasonKeywords maps each season to the keyword set matched against item
// names, descriptions, and tags.
type SeasonKeywords map[Season][]string

// DefaultSeasonKeywords returns the stock keyword sets for the English
// storefront. Operators override these per deployment via configuration.
func DefaultSeasonKeywords() SeasonKeywords {
	return SeasonKeywords{
		SeasonSpring: {"fresh vegetables", "spring harvest", "light dishes"},
		SeasonSummer: {"chilled dishes", "summer vegetables", "barbecue"},
		SeasonAutumn: {"autumn flavors", "slow-braised", "seasonal fruit"},
		SeasonWinter: {"warming dishes", "hot pot", "winter ingredients"},
	}
}
