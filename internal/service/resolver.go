package service

import (
	"errors"
	"sort"

	"powerband"
)

// ErrNoMatchingBand means a configuration gap left the price uncovered.
// Callers hold the previous decision; powering hardware down on a resolver
// gap is worse than a stale decision.
var ErrNoMatchingBand = errors.New("no price band matches price")

// ResolveBand maps a price onto exactly one band. Bands are checked in
// ascending sort_order; a band matches when min <= price < max with nil
// bounds open-ended. On overlapping misconfiguration the first match by
// sort_order wins.
func ResolveBand(bands []powerband.PriceBand, price float64) (powerband.PriceBand, error) {
	ordered := make([]powerband.PriceBand, len(bands))
	copy(ordered, bands)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	for _, b := range ordered {
		if b.Contains(price) {
			return b, nil
		}
	}
	return powerband.PriceBand{}, ErrNoMatchingBand
}

// championBandOrder returns the sort_order of the designated champion band:
// the most expensive configured band. Zero-value result with ok=false when
// the table is empty.
func championBandOrder(bands []powerband.PriceBand) (int, bool) {
	found := false
	max := 0
	for _, b := range bands {
		if !found || b.SortOrder > max {
			max = b.SortOrder
			found = true
		}
	}
	return max, found
}

// bandByID looks a band up in the loaded table.
func bandByID(bands []powerband.PriceBand, id int64) (powerband.PriceBand, bool) {
	for _, b := range bands {
		if b.ID == id {
			return b, true
		}
	}
	return powerband.PriceBand{}, false
}
