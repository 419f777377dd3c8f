package tariff

import (
	"errors"
	"sort"
)

// ErrNoEligibleOffers indicates every candidate was rejected by the
// plausibility filter. Not retryable: either the catalog needs fresh offers
// or the profile needs correction upstream.
var ErrNoEligibleOffers = errors.New("no eligible offers after plausibility filtering")

// Candidate pairs an offer with its simulated cost.
type Candidate struct {
	Offer     Offer
	Breakdown CostBreakdown
}

// RankedOffer is a candidate with its 1-based position in the sorted
// result.
type RankedOffer struct {
	Offer     Offer         `json:"offer"`
	Breakdown CostBreakdown `json:"breakdown"`
	Rank      int           `json:"rank"`
}

// Rank orders candidates by ascending annual total, breaking ties on offer
// ID for determinism, and truncates to topN. Ranks are dense and 1-based.
func Rank(candidates []Candidate, topN int) ([]RankedOffer, error) {
	if len(candidates) == 0 {
		return nil, ErrNoEligibleOffers
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		cmp := sorted[i].Breakdown.Total.Cmp(sorted[j].Breakdown.Total)
		if cmp != 0 {
			return cmp < 0
		}
		return sorted[i].Offer.ID < sorted[j].Offer.ID
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	ranked := make([]RankedOffer, len(sorted))
	for i, c := range sorted {
		ranked[i] = RankedOffer{Offer: c.Offer, Breakdown: c.Breakdown, Rank: i + 1}
	}
	return ranked, nil
}
